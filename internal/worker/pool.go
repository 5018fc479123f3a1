// Package worker runs a lookup service over many inputs with bounded
// concurrency.
package worker

import (
	"context"
	"sync"

	"github.com/tbckr/asnlook/internal/services"
)

// Result is the outcome of running a service on one input.
type Result struct {
	Input  string
	Output services.Result
	Err    error
}

// Run calls svc.Run for every input using at most concurrency goroutines and
// returns one Result per input in input order. A concurrency below 1 is
// treated as 1. Inputs not yet started when ctx is done get ctx.Err().
func Run(ctx context.Context, svc services.Service, inputs []string, concurrency int) []Result {
	results := make([]Result, len(inputs))
	if len(inputs) == 0 {
		return results
	}
	concurrency = max(1, min(concurrency, len(inputs)))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i].Input = inputs[i]
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					continue
				}
				results[i].Output, results[i].Err = svc.Run(ctx, inputs[i])
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
