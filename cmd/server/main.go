package main

import (
	"fmt"
	"log"

	"greenledger/internal/config"
	"greenledger/internal/extract"
	"greenledger/internal/handler"
	"greenledger/internal/repository/postgres"
	"greenledger/internal/router"
	"greenledger/internal/service"
	s3storage "greenledger/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	invoiceRepo := postgres.NewInvoiceRepo(db)

	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	ingestSvc := service.NewIngestService(extract.New(), invoiceRepo, s3Client, &cfg.S3)

	invoiceH := handler.NewInvoiceHandler(ingestSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg.CORS.AllowedOrigins, invoiceH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
