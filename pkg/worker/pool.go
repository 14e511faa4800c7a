package worker

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/plantona/plantona-api/pkg/logger"
)

// Task is one isolated unit of work. A panicking task is recovered and logged;
// it never takes down its siblings.
type Task func(ctx context.Context)

// Pool runs tasks with bounded parallelism.
type Pool struct {
	size int
	log  *logger.Logger
}

func NewPool(size int, log *logger.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{size: size, log: log}
}

func (p *Pool) Size() int {
	return p.size
}

// Run executes all tasks and blocks until every one has finished. At most
// p.size tasks run at a time. Tasks not yet started are skipped once ctx is
// canceled; in-flight tasks run to completion.
func (p *Pool) Run(ctx context.Context, tasks []Task) {
	sem := make(chan struct{}, p.size)
	var wg sync.WaitGroup

	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(t Task) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					p.log.ZL.Error().
						Interface("panic", r).
						Str("stack", string(debug.Stack())).
						Msg("task panic recovered")
				}
			}()
			t(ctx)
		}(task)
	}

	wg.Wait()
}
