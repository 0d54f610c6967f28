package extract

import (
	"context"
	"log"
	"runtime"
	"sync"

	"greenledger/internal/domain"
	"greenledger/internal/port"
)

// BatchInput is one document to extract: its bytes and the download
// filename the authority resolver needs.
type BatchInput struct {
	Filename string
	Data     []byte
}

// ExtractBatch runs extractions concurrently across a bounded worker
// pool. Extraction is CPU-bound once bytes are in memory, so concurrency
// defaults to the core count. One result is returned per input, in input
// order; a failed document yields its error record and never aborts the
// batch. Cancelling ctx stops dispatching new documents.
func ExtractBatch(ctx context.Context, ex port.InvoiceExtractor, inputs []BatchInput, concurrency int) []*domain.Invoice {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	results := make([]*domain.Invoice, len(inputs))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range inputs {
		if ctx.Err() != nil {
			log.Printf("extract.ExtractBatch: context canceled after %d of %d documents", i, len(inputs))
			for j := i; j < len(inputs); j++ {
				results[j] = errorRecord(inputs[j].Filename, ctx.Err().Error(), "")
			}
			break
		}

		in := inputs[i]
		idx := i

		sem <- struct{}{} // acquire
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }() // release
			results[idx] = ex.Extract(in.Data, in.Filename)
		}()
	}

	wg.Wait()
	return results
}
