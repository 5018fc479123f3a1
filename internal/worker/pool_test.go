package worker_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbckr/asnlook/internal/resolver"
	"github.com/tbckr/asnlook/internal/services"
	"github.com/tbckr/asnlook/internal/services/iplookup"
	"github.com/tbckr/asnlook/internal/snapshot"
	"github.com/tbckr/asnlook/internal/testutil"
	"github.com/tbckr/asnlook/internal/worker"
)

func ipService(t *testing.T) services.Service {
	t.Helper()
	snap, err := snapshot.Build(snapshot.Source{
		Registry:      []byte("64500 EXAMPLE-NET, NL\n"),
		IPv4:          []byte("10.0.0.0/8\t64500\n"),
		IPv4Delimiter: "\t",
		IPv6Delimiter: " ",
	}, nil)
	require.NoError(t, err)
	return iplookup.NewService(resolver.New(snap), nil, testutil.NopLogger())
}

// gaugeService tracks how many Run calls are in flight at once.
type gaugeService struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	release  chan struct{}
}

func (g *gaugeService) Name() string { return "gauge" }

func (g *gaugeService) Run(_ context.Context, input string) (services.Result, error) {
	n := g.inFlight.Add(1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-g.release
	g.inFlight.Add(-1)
	return &iplookup.Result{Input: input}, nil
}

func (g *gaugeService) AggregateResults(results []services.Result) services.Result {
	return results[0]
}

func TestRun_OrderPreserved(t *testing.T) {
	inputs := make([]string, 50)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("10.0.%d.%d", i/256, i%256)
	}

	results := worker.Run(context.Background(), ipService(t), inputs, 7)
	require.Len(t, results, len(inputs))

	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, inputs[i], r.Input)
		assert.Equal(t, inputs[i], r.Output.(*iplookup.Result).IP)
	}
}

func TestRun_ErrorPerInput(t *testing.T) {
	inputs := []string{"10.1.1.1", "not-an-ip", "192.0.2.1"}
	results := worker.Run(context.Background(), ipService(t), inputs, 3)
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	assert.False(t, results[0].Output.IsEmpty())
	assert.ErrorIs(t, results[1].Err, services.ErrInvalidInput)
	require.NoError(t, results[2].Err)
	assert.True(t, results[2].Output.IsEmpty(), "unannounced address is an empty result, not an error")
}

func TestRun_NoSnapshot(t *testing.T) {
	svc := iplookup.NewService(resolver.New(nil), nil, testutil.NopLogger())
	results := worker.Run(context.Background(), svc, []string{"10.1.1.1", "10.2.2.2"}, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, services.ErrNoSnapshot)
	}
}

func TestRun_EmptyInputs(t *testing.T) {
	assert.Empty(t, worker.Run(context.Background(), ipService(t), nil, 5))
}

func TestRun_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inputs := []string{"10.0.0.1", "10.0.0.2"}
	results := worker.Run(ctx, ipService(t), inputs, 2)
	require.Len(t, results, 2)
	for i, r := range results {
		assert.Equal(t, inputs[i], r.Input)
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestRun_ConcurrencyBound(t *testing.T) {
	g := &gaugeService{release: make(chan struct{})}
	inputs := make([]string, 12)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("10.0.0.%d", i)
	}

	done := make(chan []worker.Result)
	go func() { done <- worker.Run(context.Background(), g, inputs, 3) }()

	for range inputs {
		g.release <- struct{}{}
	}
	results := <-done

	require.Len(t, results, len(inputs))
	assert.LessOrEqual(t, g.peak.Load(), int32(3))
}

func TestRun_ConcurrencyBelowOne(t *testing.T) {
	g := &gaugeService{release: make(chan struct{})}
	done := make(chan []worker.Result)
	go func() { done <- worker.Run(context.Background(), g, []string{"a", "b"}, 0) }()

	g.release <- struct{}{}
	g.release <- struct{}{}
	results := <-done

	require.Len(t, results, 2)
	assert.Equal(t, "b", results[1].Output.(*iplookup.Result).Input)
	assert.Equal(t, int32(1), g.peak.Load())
}
