package service

import (
	"context"
	"log"
	"runtime"
	"sync"
	"time"
)

// BatchIngestConfig holds settings for the batch ingest worker.
type BatchIngestConfig struct {
	Concurrency int
	// PerDocTimeout bounds one document's ingest (extraction plus
	// storage I/O). Zero means five minutes.
	PerDocTimeout time.Duration
}

// BatchDocument is one PDF queued for ingestion.
type BatchDocument struct {
	Filename string
	Data     []byte
}

// BatchOutcome pairs a document with its ingest result or error.
type BatchOutcome struct {
	Filename string        `json:"filename"`
	Result   *IngestResult `json:"result,omitempty"`
	Err      error         `json:"-"`
}

// BatchIngestWorker fans a set of documents out over a bounded worker
// pool. Each document is independent: one failure never aborts the batch.
type BatchIngestWorker struct {
	svc IngestService
	cfg BatchIngestConfig
	wg  sync.WaitGroup
}

// NewBatchIngestWorker creates a new BatchIngestWorker.
func NewBatchIngestWorker(svc IngestService, cfg BatchIngestConfig) *BatchIngestWorker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if cfg.PerDocTimeout <= 0 {
		cfg.PerDocTimeout = 5 * time.Minute
	}
	return &BatchIngestWorker{svc: svc, cfg: cfg}
}

// Run ingests every document and blocks until all workers finish. One
// outcome is returned per document, in input order. Cancelling ctx stops
// dispatching; in-flight documents run to completion on fresh contexts.
func (w *BatchIngestWorker) Run(ctx context.Context, docs []BatchDocument) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(docs))
	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("batchIngestWorker: starting (%d documents, concurrency=%d)",
		len(docs), w.cfg.Concurrency)

	for i := range docs {
		if ctx.Err() != nil {
			log.Printf("batchIngestWorker: context canceled after dispatching %d of %d", i, len(docs))
			for j := i; j < len(docs); j++ {
				outcomes[j] = BatchOutcome{Filename: docs[j].Filename, Err: ctx.Err()}
			}
			break
		}

		doc := docs[i]
		idx := i

		sem <- struct{}{} // acquire
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-sem }() // release

			// Fresh context so an in-flight ingest completes even when
			// the dispatch context is canceled mid-batch.
			docCtx, cancel := context.WithTimeout(context.Background(), w.cfg.PerDocTimeout)
			defer cancel()

			result, err := w.svc.Ingest(docCtx, doc.Filename, doc.Data)
			if err != nil {
				log.Printf("batchIngestWorker: %s: %v", doc.Filename, err)
			}
			outcomes[idx] = BatchOutcome{Filename: doc.Filename, Result: result, Err: err}
		}()
	}

	w.wg.Wait()
	log.Printf("batchIngestWorker: done (%d documents)", len(docs))
	return outcomes
}
