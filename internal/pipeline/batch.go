package pipeline

import (
	"context"
	"sync"

	"github.com/calluna/finsight/internal/model"
)

// Job is one user's unit of batch work. Users are independent: each job
// owns its snapshot and produces its own output set, so jobs run fully
// in parallel with no coordination.
type Job struct {
	Snapshot model.Snapshot
	Profile  model.UserProfile
}

// BatchResult pairs a job with its outcome. One user's failure never
// aborts the rest of the batch.
type BatchResult struct {
	UserID  string
	Outputs *model.UserOutputs
	Err     error
}

// RunBatch fans jobs out over a bounded worker pool and returns results
// in input order. The onDone callback, if set, fires once per completed
// job for progress reporting.
func (e *Engine) RunBatch(ctx context.Context, jobs []Job, windowDays, workers int, onDone func(BatchResult)) []BatchResult {
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]BatchResult, len(jobs))
	indices := make(chan int)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				job := jobs[i]
				outputs, err := e.Run(ctx, job.Snapshot, job.Profile, windowDays)
				result := BatchResult{
					UserID:  job.Snapshot.UserID,
					Outputs: outputs,
					Err:     err,
				}
				results[i] = result
				if onDone != nil {
					mu.Lock()
					onDone(result)
					mu.Unlock()
				}
			}
		}()
	}

	for i := range jobs {
		select {
		case <-ctx.Done():
			results[i] = BatchResult{UserID: jobs[i].Snapshot.UserID, Err: ctx.Err()}
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	return results
}
