package pinecone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/fivetwenty-io/pinecone/internal/constants"
)

// Batch defaults.
const (
	DefaultBatchSize        = 100
	DefaultBatchConcurrency = 4
)

// BatchResult is the outcome of upserting one batch.
type BatchResult struct {
	Batch         int
	Offset        int
	Count         int
	UpsertedCount int64
	Error         error
	Duration      time.Duration
}

// BatchUpserter splits large upserts into batches and sends them in parallel.
// Each worker owns its own IndexClient, so handles are never shared between
// goroutines. Configure a shared Cache on the client to avoid one describe
// per worker.
type BatchUpserter struct {
	client      Client
	index       string
	batchSize   int
	concurrency int
	timeout     time.Duration
	callback    func(result *BatchResult)
}

// NewBatchUpserter creates a batch upserter for the named index.
func NewBatchUpserter(client Client, index string, concurrency int) *BatchUpserter {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	return &BatchUpserter{
		client:      client,
		index:       index,
		batchSize:   DefaultBatchSize,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetBatchSize sets how many vectors go into one request.
func (b *BatchUpserter) SetBatchSize(size int) {
	if size > 0 {
		b.batchSize = size
	}
}

// SetTimeout sets the timeout of a single batch. Zero or less leaves batches
// bounded only by the context passed to Upsert.
func (b *BatchUpserter) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// OnResult registers a callback run after each batch. It may be called from
// several goroutines at once.
func (b *BatchUpserter) OnResult(callback func(result *BatchResult)) {
	b.callback = callback
}

// Upsert writes vectors in batches. Results are ordered by batch. The error
// aggregates the failures of all failed batches.
func (b *BatchUpserter) Upsert(ctx context.Context, namespace string, vectors []Vector) ([]BatchResult, error) {
	if b.index == "" {
		return nil, ErrIndexNameRequired
	}

	batches := (len(vectors) + b.batchSize - 1) / b.batchSize
	results := make([]BatchResult, batches)

	jobs := make(chan int)
	workers := min(b.concurrency, batches)

	var waitGroup sync.WaitGroup

	for range workers {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			handle := b.client.Index(b.index)
			for batch := range jobs {
				results[batch] = b.upsertBatch(ctx, handle, namespace, vectors, batch)

				if b.callback != nil {
					b.callback(&results[batch])
				}
			}
		}()
	}

	next := 0
	for next < batches && ctx.Err() == nil {
		select {
		case jobs <- next:
			next++
		case <-ctx.Done():
		}
	}

	close(jobs)
	waitGroup.Wait()

	for skipped := next; skipped < batches; skipped++ {
		results[skipped] = b.skippedBatch(skipped, len(vectors), ctx.Err())
	}

	var result *multierror.Error

	for i := range results {
		if results[i].Error != nil {
			result = multierror.Append(result, fmt.Errorf("batch %d: %w", results[i].Batch, results[i].Error))
		}
	}

	return results, result.ErrorOrNil()
}

func (b *BatchUpserter) upsertBatch(ctx context.Context, handle IndexClient, namespace string, vectors []Vector, batch int) BatchResult {
	offset := batch * b.batchSize
	end := min(offset+b.batchSize, len(vectors))

	result := BatchResult{Batch: batch, Offset: offset, Count: end - offset}

	if b.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	response, err := handle.Upsert(ctx, namespace, vectors[offset:end])
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = err

		return result
	}

	result.UpsertedCount = response.UpsertedCount

	return result
}

func (b *BatchUpserter) skippedBatch(batch, total int, err error) BatchResult {
	offset := batch * b.batchSize

	return BatchResult{
		Batch:  batch,
		Offset: offset,
		Count:  min(offset+b.batchSize, total) - offset,
		Error:  err,
	}
}

// TotalUpserted sums the upserted counts of results.
func TotalUpserted(results []BatchResult) int64 {
	var total int64
	for _, r := range results {
		total += r.UpsertedCount
	}

	return total
}
