// Package pipeline sequences the stages of a content build with per-stage
// timing and fail-fast error handling.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Stage is one step of a build run.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pipeline runs named stages in the order they were added. The first stage
// error aborts the run; later stages never execute. A Pipeline is built on
// one goroutine and run once; it is not safe for concurrent mutation.
type Pipeline struct {
	log    *zap.Logger
	stages []Stage
}

// New creates an empty Pipeline.
//
// Precondition: log must be non-nil.
func New(log *zap.Logger) *Pipeline {
	return &Pipeline{log: log}
}

// Add appends a named stage.
//
// Precondition: name must be non-empty; run must be non-nil.
func (p *Pipeline) Add(name string, run func(ctx context.Context) error) {
	p.stages = append(p.stages, Stage{Name: name, Run: run})
}

// Run executes every stage in order.
//
// Postcondition: Either every stage ran and nil is returned, or the first
// failing stage's error is returned wrapped with its name, or the
// context's error is returned if it was cancelled between stages.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	for _, st := range p.stages {
		select {
		case <-ctx.Done():
			p.log.Warn("build cancelled",
				zap.String("next_stage", st.Name),
				zap.Duration("elapsed", time.Since(start)),
			)
			return ctx.Err()
		default:
		}

		stageStart := time.Now()
		p.log.Info("stage started", zap.String("stage", st.Name))
		if err := st.Run(ctx); err != nil {
			p.log.Error("stage failed",
				zap.String("stage", st.Name),
				zap.Duration("elapsed", time.Since(stageStart)),
				zap.Error(err),
			)
			return fmt.Errorf("pipeline: stage %s: %w", st.Name, err)
		}
		p.log.Info("stage finished",
			zap.String("stage", st.Name),
			zap.Duration("elapsed", time.Since(stageStart)),
		)
	}

	p.log.Info("build finished",
		zap.Int("stages", len(p.stages)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
