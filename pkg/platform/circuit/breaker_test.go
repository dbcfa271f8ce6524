package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	b := New("ratelimit-redis")

	assert.Equal(t, "ratelimit-redis", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())

	for range 4 {
		useFallback, _ := b.RecordFailure()
		assert.False(t, useFallback)
	}
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback, "fifth consecutive failure opens by default")
	assert.True(t, change.Opened)
	assert.Equal(t, "open", b.State().String())
}

func TestNonPositiveThresholdsKeepDefaults(t *testing.T) {
	b := New("x", WithFailureThreshold(0), WithSuccessThreshold(-1))
	for range 4 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen())
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

// outcome is one primary call result fed to the breaker.
type outcome bool

const (
	ok   outcome = true
	fail outcome = false
)

func TestTransitions(t *testing.T) {
	cases := []struct {
		name     string
		failures int
		success  int
		calls    []outcome
		wantOpen bool
	}{
		{name: "below failure threshold stays closed", failures: 3, success: 2, calls: []outcome{fail, fail}, wantOpen: false},
		{name: "threshold reached opens", failures: 3, success: 2, calls: []outcome{fail, fail, fail}, wantOpen: true},
		{name: "success in between resets failure streak", failures: 3, success: 2, calls: []outcome{fail, fail, ok, fail, fail}, wantOpen: false},
		{name: "open needs consecutive successes", failures: 1, success: 3, calls: []outcome{fail, ok, ok}, wantOpen: true},
		{name: "failure while open restarts recovery", failures: 1, success: 2, calls: []outcome{fail, ok, fail, ok}, wantOpen: true},
		{name: "recovery closes", failures: 1, success: 2, calls: []outcome{fail, ok, fail, ok, ok}, wantOpen: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := New("store", WithFailureThreshold(tc.failures), WithSuccessThreshold(tc.success))
			for _, c := range tc.calls {
				if c == ok {
					b.RecordSuccess()
				} else {
					b.RecordFailure()
				}
			}
			assert.Equal(t, tc.wantOpen, b.IsOpen())
		})
	}
}

func TestChangesAreReportedOnce(t *testing.T) {
	b := New("store", WithFailureThreshold(1), WithSuccessThreshold(1))

	_, change := b.RecordFailure()
	require.True(t, change.Opened)
	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.Equal(t, StateChange{}, change, "already open")

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	_, change = b.RecordSuccess()
	assert.Equal(t, StateChange{}, change, "already closed")
}

func TestReset(t *testing.T) {
	b := New("store", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()

	assert.Equal(t, StateClosed, b.State())
	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.False(t, change.Closed)
}

func TestConcurrentRecording(t *testing.T) {
	b := New("store", WithFailureThreshold(50))

	var opened int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.True(t, b.IsOpen())
	assert.Equal(t, 1, opened, "exactly one caller observes the transition")
}
