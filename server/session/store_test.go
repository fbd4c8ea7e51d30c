package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// Unknown user loads as nil.
	got, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)

	st := NewState()
	st.Propose(time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC))
	st.Phase = PhaseAwaitingEmail
	st.GuestEmail = "jane@example.com"
	require.NoError(t, store.Save(ctx, "alice", st))

	got, err = store.Load(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, PhaseAwaitingEmail, got.Phase)
	assert.Equal(t, "jane@example.com", got.GuestEmail)
	require.NotNil(t, got.ProposedStart)
	require.NotNil(t, got.ProposedEnd)
	assert.Equal(t, MeetingDuration, got.ProposedEnd.Sub(*got.ProposedStart))

	require.NoError(t, store.Delete(ctx, "alice"))
	got, err = store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_LoadIsolatesState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	st := NewState()
	st.SuggestedSlots = []time.Time{time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Save(ctx, "bob", st))

	// Mutating a loaded copy must not leak into the store.
	loaded, err := store.Load(ctx, "bob")
	require.NoError(t, err)
	loaded.Phase = PhaseCompleted
	loaded.SuggestedSlots[0] = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	again, err := store.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, PhaseInitial, again.Phase)
	assert.Equal(t, 2026, again.SuggestedSlots[0].Year())
}

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseInitial, "initial"},
		{PhaseChecking, "checking"},
		{PhaseAwaitingChoice, "awaiting_choice"},
		{PhaseAwaitingEmail, "awaiting_email"},
		{PhaseBooking, "booking"},
		{PhaseCompleted, "completed"},
		{Phase(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.phase.String())
	}
}

func TestKeyedLocks_SerializesSameKey(t *testing.T) {
	locks := NewKeyedLocks()

	const workers = 8
	const iterations = 50
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				unlock := locks.Lock("same-user")
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*iterations, counter)
}

func TestKeyedLocks_IndependentKeys(t *testing.T) {
	locks := NewKeyedLocks()

	unlockA := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on a different key blocked")
	}
	unlockA()
}
