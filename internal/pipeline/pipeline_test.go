package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/worldforge/internal/pipeline"
)

func TestPipeline_Run_ExecutesStagesInOrder(t *testing.T) {
	p := pipeline.New(zap.NewNop())

	var order []string
	for _, name := range []string{"load", "compile", "validate", "emit"} {
		name := name
		p.Add(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"load", "compile", "validate", "emit"}, order)
}

func TestPipeline_Run_StopsAtFirstFailure(t *testing.T) {
	p := pipeline.New(zap.NewNop())
	boom := errors.New("duplicate identifier")

	var ran []string
	p.Add("load", func(ctx context.Context) error {
		ran = append(ran, "load")
		return nil
	})
	p.Add("compile", func(ctx context.Context) error {
		ran = append(ran, "compile")
		return boom
	})
	p.Add("emit", func(ctx context.Context) error {
		ran = append(ran, "emit")
		return nil
	})

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "stage compile")
	assert.Equal(t, []string{"load", "compile"}, ran)
}

func TestPipeline_Run_EmptyPipelineSucceeds(t *testing.T) {
	p := pipeline.New(zap.NewNop())
	assert.NoError(t, p.Run(context.Background()))
}

func TestPipeline_Run_CancellationStopsLaterStages(t *testing.T) {
	p := pipeline.New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	var ran []string
	p.Add("load", func(ctx context.Context) error {
		ran = append(ran, "load")
		cancel()
		return nil
	})
	p.Add("compile", func(ctx context.Context) error {
		ran = append(ran, "compile")
		return nil
	})

	err := p.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"load"}, ran)
}

func TestPipeline_Run_CancelledBeforeStartRunsNothing(t *testing.T) {
	p := pipeline.New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := 0
	p.Add("load", func(ctx context.Context) error {
		ran++
		return nil
	})

	err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ran)
}

func TestProperty_Run_EveryStageRunsOnSuccess(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(rt, "stages")

		p := pipeline.New(zap.NewNop())
		ran := 0
		for i := 0; i < n; i++ {
			p.Add("stage", func(ctx context.Context) error {
				ran++
				return nil
			})
		}

		if err := p.Run(context.Background()); err != nil {
			rt.Fatalf("run failed: %v", err)
		}
		if ran != n {
			rt.Fatalf("ran %d of %d stages", ran, n)
		}
	})
}
