// Package worker renders independent texture graphs in parallel.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/texsynth/internal/graph"
	"github.com/MeKo-Tech/texsynth/internal/pipeline"
)

// Renderer renders one graph. *pipeline.Renderer satisfies it.
type Renderer interface {
	Render(ctx context.Context, g graph.Graph, width, height int, force bool) (pipeline.Rendered, error)
}

// Job is a single graph to render.
type Job struct {
	Name   string
	Graph  graph.Graph
	Width  int
	Height int
	Force  bool
}

// Result is the outcome of one job.
type Result struct {
	Job Job
	pipeline.Rendered
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called once per finished job, from a single goroutine.
type ProgressFunc func(r Result)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Renderer   Renderer
	OnProgress ProgressFunc
}

// Pool renders jobs with a fixed number of workers. Each job is one
// single-threaded evaluation, so workers never share intermediate images.
type Pool struct {
	workers    int
	renderer   Renderer
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		renderer:   cfg.Renderer,
		onProgress: cfg.OnProgress,
	}
}

// Run executes all jobs and returns their results in completion order.
// It blocks until every job has a result; jobs not started before ctx is
// cancelled report ctx.Err().
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	if len(jobs) == 0 {
		return nil
	}

	jobCh := make(chan Job, len(jobs))
	resultCh := make(chan Result, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, jobCh, resultCh)
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	results := make([]Result, 0, len(jobs))
	done := make(chan struct{})

	go func() {
		for result := range resultCh {
			results = append(results, result)
			if p.onProgress != nil {
				p.onProgress(result)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	return results
}

func (p *Pool) worker(ctx context.Context, jobs <-chan Job, results chan<- Result) {
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- Result{Job: job, Err: err}
			continue
		}

		start := time.Now()
		rendered, err := p.renderer.Render(ctx, job.Graph, job.Width, job.Height, job.Force)

		results <- Result{
			Job:      job,
			Rendered: rendered,
			Err:      err,
			Elapsed:  time.Since(start),
		}
	}
}
