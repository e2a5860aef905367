package galaxy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resultLog struct {
	mu      sync.Mutex
	results []Result
}

func (l *resultLog) add(r Result) {
	l.mu.Lock()
	l.results = append(l.results, r)
	l.mu.Unlock()
}

func (l *resultLog) snapshot() []Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Result(nil), l.results...)
}

func flush(t *testing.T, r *Regenerator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, r.Flush(ctx))
}

func TestRegeneratorDebouncesToLastCommit(t *testing.T) {
	h := newMemHost()
	in := newTestInstance(t, h, "primary", smallParams(100))

	var log resultLog
	r := NewRegenerator(in, WithSettle(50*time.Millisecond), OnResult(log.add))
	defer r.Close()

	for _, n := range []int{200, 300, 400} {
		require.NoError(t, r.Commit(smallParams(n)))
	}
	assert.True(t, r.Pending())
	flush(t, r)

	assert.False(t, r.Pending())
	assert.Equal(t, 400, in.Buffer().Len())
	assert.Equal(t, 400, in.Params().ParticleCount)

	results := log.snapshot()
	require.NotEmpty(t, results)
	last := results[len(results)-1]
	assert.NoError(t, last.Err)
	assert.Equal(t, 400, last.Buffer.Len())
	assert.Equal(t, 1, h.attachedUnder(in.Anchor()))
}

func TestRegeneratorCancelsInFlight(t *testing.T) {
	h := newMemHost()
	in := newTestInstance(t, h, "primary", smallParams(100))

	var log resultLog
	r := NewRegenerator(in, WithSettle(0), OnResult(log.add))
	defer r.Close()

	require.NoError(t, r.Commit(smallParams(3_000_000)))
	require.Eventually(t, func() bool {
		return in.State() == StateGenerating
	}, 5*time.Second, 100*time.Microsecond)

	require.NoError(t, r.Commit(smallParams(250)))
	flush(t, r)

	assert.Equal(t, 250, in.Buffer().Len())

	results := log.snapshot()
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, ErrSuperseded)
	assert.True(t, errors.Is(results[0].Err, context.Canceled))
	assert.NoError(t, results[1].Err)
}

func TestRegeneratorInvalidCommitKeepsPrevious(t *testing.T) {
	h := newMemHost()
	in := newTestInstance(t, h, "primary", smallParams(100))
	before := in.Current()

	var log resultLog
	r := NewRegenerator(in, WithSettle(0), OnResult(log.add))
	defer r.Close()

	p := smallParams(100)
	p.Branches = 0
	require.NoError(t, r.Commit(p))
	flush(t, r)

	assert.Same(t, before, in.Current())
	results := log.snapshot()
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrInvalidParameters)
}

func TestRegeneratorClose(t *testing.T) {
	h := newMemHost()
	in := newTestInstance(t, h, "primary", smallParams(100))

	r := NewRegenerator(in, WithSettle(time.Hour))
	require.NoError(t, r.Commit(smallParams(200)))
	r.Close()
	r.Close()

	assert.ErrorIs(t, r.Commit(smallParams(300)), ErrClosed)
	flush(t, r)
	assert.Equal(t, 100, in.Buffer().Len())
	assert.Equal(t, StateAttached, in.State())
}
