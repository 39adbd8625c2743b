package whatsapp

import (
	"context"
	"time"
)

const (
	DefaultBatchSize  = 50
	DefaultBatchDelay = time.Second
)

// BatchOptions tunes BatchSend. A zero BatchSize means DefaultBatchSize
// and a zero Delay means DefaultBatchDelay; a negative Delay disables the
// pause between batches.
type BatchOptions[T any] struct {
	BatchSize  int
	Delay      time.Duration
	OnProgress func(completed, total int)
	OnError    func(result SendResult, item T, index int)
}

// BatchResult aggregates a BatchSend run. Results keep input order.
type BatchResult struct {
	Total      int          `json:"total"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Results    []SendResult `json:"results"`
}

// BatchSend calls send once per item, sequentially and in input order,
// pausing for opts.Delay after every BatchSize-th item (never after the
// last one). A transport error from send aborts the run and is returned
// together with the results gathered so far, as is context cancellation
// during a pause.
func BatchSend[T any](ctx context.Context, items []T, send func(context.Context, T) (SendResult, error), opts BatchOptions[T]) (BatchResult, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	delay := opts.Delay
	if delay == 0 {
		delay = DefaultBatchDelay
	}

	out := BatchResult{Total: len(items), Results: make([]SendResult, 0, len(items))}

	for i, item := range items {
		result, err := send(ctx, item)
		if err != nil {
			return out, err
		}
		out.Results = append(out.Results, result)

		if result.Success {
			out.Successful++
		} else {
			out.Failed++
			if opts.OnError != nil {
				opts.OnError(result, item, i)
			}
		}

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(items))
		}

		if (i+1)%batchSize == 0 && i+1 < len(items) && delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return out, nil
}
