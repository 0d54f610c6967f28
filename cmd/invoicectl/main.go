// invoicectl is the operator CLI: extract a single invoice PDF to JSON,
// batch-ingest a directory, or export stored invoices to CSV.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"greenledger/internal/config"
	"greenledger/internal/csvexport"
	"greenledger/internal/domain"
	"greenledger/internal/extract"
	"greenledger/internal/port"
	"greenledger/internal/repository/postgres"
	"greenledger/internal/service"
	s3storage "greenledger/internal/storage/s3"
)

func main() {
	// Missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var rootCmd = &cobra.Command{
	Use:           "invoicectl",
	Short:         "Invoice PDF extraction and ingestion tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract one invoice PDF and print the record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		inv := extract.New().Extract(data, filepath.Base(args[0]))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(inv); err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		if inv.Failed() {
			return fmt.Errorf("extraction failed: %s", inv.Error)
		}
		return nil
	},
}

var (
	batchSave        bool
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract every PDF in a directory concurrently",
	Long: `Extract every PDF in a directory across a bounded worker pool.
With --save, each successfully parsed invoice is archived to S3 and
upserted into Postgres; without it, records are printed as JSON lines.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := os.ReadDir(args[0])
		if err != nil {
			return fmt.Errorf("reading directory %s: %w", args[0], err)
		}

		var inputs []extract.BatchInput
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(args[0], e.Name()))
			if err != nil {
				return fmt.Errorf("reading %s: %w", e.Name(), err)
			}
			inputs = append(inputs, extract.BatchInput{Filename: e.Name(), Data: data})
		}
		if len(inputs) == 0 {
			return fmt.Errorf("no PDF files found in %s", args[0])
		}

		if batchSave {
			return runBatchIngest(cmd.Context(), inputs)
		}

		results := extract.ExtractBatch(cmd.Context(), extract.New(), inputs, batchConcurrency)
		enc := json.NewEncoder(os.Stdout)
		failed := 0
		for _, inv := range results {
			if inv.Failed() {
				failed++
			}
			if err := enc.Encode(inv); err != nil {
				return fmt.Errorf("encoding record: %w", err)
			}
		}
		log.Printf("batch: %d extracted, %d failed", len(results)-failed, failed)
		return nil
	},
}

func runBatchIngest(ctx context.Context, inputs []extract.BatchInput) error {
	svc, _, cleanup, err := buildIngest()
	if err != nil {
		return err
	}
	defer cleanup()

	docs := make([]service.BatchDocument, len(inputs))
	for i, in := range inputs {
		docs[i] = service.BatchDocument{Filename: in.Filename, Data: in.Data}
	}

	worker := service.NewBatchIngestWorker(svc, service.BatchIngestConfig{Concurrency: batchConcurrency})
	outcomes := worker.Run(ctx, docs)

	stored, failed := 0, 0
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
			log.Printf("batch: %s: %v", o.Filename, o.Err)
		case o.Result != nil && o.Result.Invoice.Failed():
			failed++
			log.Printf("batch: %s: %s", o.Filename, o.Result.Invoice.Error)
		case o.Result != nil && o.Result.Stored:
			stored++
			if len(o.Result.Duplicates) > 0 {
				log.Printf("batch: %s: replaced existing invoice %s at %s",
					o.Filename, o.Result.Invoice.InvoiceNumber, o.Result.Invoice.Store)
			}
		}
	}
	log.Printf("batch: %d stored, %d failed of %d", stored, failed, len(outcomes))
	return nil
}

var (
	exportOut   string
	exportStore string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored invoices to a line-item-flat CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()

		repo := postgres.NewInvoiceRepo(db)
		filter := port.InvoiceFilter{Store: domain.Store(exportStore)}
		invoices, total, err := repo.List(cmd.Context(), filter, 0, 10000)
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = csvexport.BuildFilename("invoices", "csv")
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		defer f.Close()

		if _, err := f.Write(csvexport.BOM); err != nil {
			return err
		}
		w := csvexport.NewWriter(f)
		if err := w.WriteHeader(); err != nil {
			return err
		}
		if err := w.WriteInvoices(invoices); err != nil {
			return err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}

		log.Printf("export: wrote %d invoices to %s", total, out)
		return nil
	},
}

// buildIngest wires the full ingestion stack for CLI use.
func buildIngest() (service.IngestService, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("initializing S3 client: %w", err)
	}
	svc := service.NewIngestService(extract.New(), postgres.NewInvoiceRepo(db), s3Client, &cfg.S3)
	return svc, cfg, func() { db.Close() }, nil
}

func init() {
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "archive to S3 and upsert into Postgres")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "worker pool size (0 = CPU count)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default invoices_<date>.csv)")
	exportCmd.Flags().StringVar(&exportStore, "store", "", "filter by store")

	rootCmd.AddCommand(extractCmd, batchCmd, exportCmd)
}
