package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHappyPathTransitions(t *testing.T) {
	tr := NewTracker()
	token := NewToken()

	a, err := tr.Begin(token, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StateCreating, a.State)

	require.NoError(t, tr.OrderCreated(token, "PAYPAL-1"))
	a, ok := tr.Get(token)
	require.True(t, ok)
	assert.Equal(t, StateAwaiting, a.State)
	assert.Equal(t, "PAYPAL-1", a.RemoteOrderID)

	_, err = tr.BeginCapture(token, "user-1")
	require.NoError(t, err)

	require.NoError(t, tr.Complete(token))
	a, _ = tr.Get(token)
	assert.Equal(t, StateCompleted, a.State)
}

func TestOrderCreatedRequiresCreatingState(t *testing.T) {
	tr := NewTracker()

	// Unknown token: nothing to transition.
	err := tr.OrderCreated(NewToken(), "PAYPAL-1")
	assert.ErrorIs(t, err, ErrUnknownAttempt)

	// Token already past creating: transition rejected, state unchanged.
	token := NewToken()
	_, err = tr.Begin(token, "user-1")
	require.NoError(t, err)
	require.NoError(t, tr.OrderCreated(token, "PAYPAL-1"))

	err = tr.OrderCreated(token, "PAYPAL-2")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	a, _ := tr.Get(token)
	assert.Equal(t, "PAYPAL-1", a.RemoteOrderID)
}

func TestDoubleBeginRejected(t *testing.T) {
	tr := NewTracker()
	token := NewToken()

	_, err := tr.Begin(token, "user-1")
	require.NoError(t, err)

	_, err = tr.Begin(token, "user-1")
	assert.ErrorIs(t, err, ErrInFlight)
}

func TestCaptureBeforeCreateCompletesRejected(t *testing.T) {
	tr := NewTracker()
	token := NewToken()

	_, err := tr.Begin(token, "user-1")
	require.NoError(t, err)

	// Still creating the remote order; capture must wait for approval.
	_, err = tr.BeginCapture(token, "user-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDoubleCaptureRejected(t *testing.T) {
	tr := NewTracker()
	token := NewToken()

	_, err := tr.BeginCapture(token, "user-1")
	require.NoError(t, err)

	_, err = tr.BeginCapture(token, "user-1")
	assert.ErrorIs(t, err, ErrInFlight)
}

func TestCompletedAttemptCannotRestart(t *testing.T) {
	tr := NewTracker()
	token := NewToken()

	_, err := tr.BeginCapture(token, "user-1")
	require.NoError(t, err)
	require.NoError(t, tr.Complete(token))

	_, err = tr.Begin(token, "user-1")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	_, err = tr.BeginCapture(token, "user-1")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestCancelReturnsToIdleAndAllowsRetry(t *testing.T) {
	tr := NewTracker()
	token := NewToken()

	_, err := tr.Begin(token, "user-1")
	require.NoError(t, err)
	require.NoError(t, tr.OrderCreated(token, "PAYPAL-1"))

	require.NoError(t, tr.Cancel(token))
	a, _ := tr.Get(token)
	assert.Equal(t, StateIdle, a.State)

	_, err = tr.Begin(token, "user-1")
	assert.NoError(t, err)
}

func TestFailedAttemptCanRetry(t *testing.T) {
	tr := NewTracker()
	token := NewToken()

	_, err := tr.Begin(token, "user-1")
	require.NoError(t, err)
	require.NoError(t, tr.Fail(token))

	_, err = tr.Begin(token, "user-1")
	assert.NoError(t, err)

	// A failed capture can also be retried directly.
	require.NoError(t, tr.OrderCreated(token, "PAYPAL-1"))
	_, err = tr.BeginCapture(token, "user-1")
	require.NoError(t, err)
	require.NoError(t, tr.Fail(token))
	_, err = tr.BeginCapture(token, "user-1")
	assert.NoError(t, err)
}

func TestUnknownTokenAdmittedIntoCapture(t *testing.T) {
	// After a restart the tracker is empty but approved attempts still
	// arrive at capture.
	tr := NewTracker()

	a, err := tr.BeginCapture("unseen-token", "user-1")
	require.NoError(t, err)
	assert.Equal(t, StateCapturing, a.State)
}

func TestCancelRequiresAwaitingState(t *testing.T) {
	tr := NewTracker()
	token := NewToken()

	assert.ErrorIs(t, tr.Cancel(token), ErrUnknownAttempt)

	_, err := tr.Begin(token, "user-1")
	require.NoError(t, err)
	assert.ErrorIs(t, tr.Cancel(token), ErrInvalidTransition)
}

func TestPruneDropsStaleAttempts(t *testing.T) {
	tr := NewTracker()
	token := NewToken()

	_, err := tr.Begin(token, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 0, tr.Prune(time.Hour))
	assert.Equal(t, 1, tr.Prune(0))

	_, ok := tr.Get(token)
	assert.False(t, ok)
}
