// Package checkout tracks the state of a checkout attempt from cart to
// captured payment. Each attempt is keyed by an idempotency token that
// rides through order creation and capture.
package checkout

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateIdle      State = "idle"
	StateCreating  State = "creating_remote_order"
	StateAwaiting  State = "awaiting_user_approval"
	StateCapturing State = "capturing"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

var (
	ErrInFlight          = errors.New("checkout attempt already in flight")
	ErrAlreadyCompleted  = errors.New("checkout attempt already completed")
	ErrUnknownAttempt    = errors.New("unknown checkout attempt")
	ErrInvalidTransition = errors.New("invalid checkout transition")
)

type Attempt struct {
	Token         string    `json:"token"`
	UserID        string    `json:"user_id"`
	State         State     `json:"state"`
	RemoteOrderID string    `json:"remote_order_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewToken mints the per-attempt idempotency token.
func NewToken() string {
	return uuid.NewString()
}

// Tracker holds in-flight attempts. It backs the advisory client-side
// in-flight flag with a real server-side guard, so two rapid submissions
// of the same attempt cannot both proceed.
type Tracker struct {
	mu       sync.Mutex
	attempts map[string]*Attempt
}

func NewTracker() *Tracker {
	return &Tracker{attempts: make(map[string]*Attempt)}
}

// Begin moves an attempt into creating_remote_order. A fresh token starts
// a new attempt; a token already past idle/failed is rejected.
func (t *Tracker) Begin(token, userID string) (*Attempt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.attempts[token]
	if !ok {
		a = &Attempt{Token: token, UserID: userID, State: StateIdle}
		t.attempts[token] = a
	}
	switch a.State {
	case StateIdle, StateFailed:
		a.State = StateCreating
		a.UpdatedAt = time.Now()
		return a, nil
	case StateCompleted:
		return nil, ErrAlreadyCompleted
	default:
		return nil, ErrInFlight
	}
}

// OrderCreated records the provider's remote order id and moves the
// attempt to awaiting_user_approval.
func (t *Tracker) OrderCreated(token, remoteOrderID string) error {
	return t.transition(token, StateCreating, StateAwaiting, func(a *Attempt) {
		a.RemoteOrderID = remoteOrderID
	})
}

// Cancel returns an attempt to idle when the user backs out of the hosted
// widget. The cart is untouched.
func (t *Tracker) Cancel(token string) error {
	return t.transition(token, StateAwaiting, StateIdle, nil)
}

// BeginCapture moves an approved attempt into capturing. An unknown token
// (for example after a process restart) is admitted directly into
// capturing; a token still creating, already capturing, or completed is
// rejected.
func (t *Tracker) BeginCapture(token, userID string) (*Attempt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.attempts[token]
	if !ok {
		a = &Attempt{Token: token, UserID: userID, State: StateCapturing, UpdatedAt: time.Now()}
		t.attempts[token] = a
		return a, nil
	}
	switch a.State {
	case StateAwaiting, StateFailed:
		a.State = StateCapturing
		a.UpdatedAt = time.Now()
		return a, nil
	case StateCompleted:
		return nil, ErrAlreadyCompleted
	case StateCapturing:
		return nil, ErrInFlight
	default:
		return nil, fmt.Errorf("%w: capture from %s", ErrInvalidTransition, a.State)
	}
}

func (t *Tracker) Complete(token string) error {
	return t.transition(token, StateCapturing, StateCompleted, nil)
}

// Fail marks a terminal failure from creation or capture. The attempt can
// be retried with the same token.
func (t *Tracker) Fail(token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.attempts[token]
	if !ok {
		return ErrUnknownAttempt
	}
	if a.State != StateCreating && a.State != StateCapturing {
		return fmt.Errorf("%w: fail from %s", ErrInvalidTransition, a.State)
	}
	a.State = StateFailed
	a.UpdatedAt = time.Now()
	return nil
}

func (t *Tracker) Get(token string) (*Attempt, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.attempts[token]
	if !ok {
		return nil, false
	}
	cp := *a
	return &cp, true
}

// Prune drops attempts idle longer than maxAge, so abandoned checkouts do
// not accumulate.
func (t *Tracker) Prune(maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for token, a := range t.attempts {
		if a.UpdatedAt.Before(cutoff) {
			delete(t.attempts, token)
			removed++
		}
	}
	return removed
}

func (t *Tracker) transition(token string, from, to State, apply func(*Attempt)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.attempts[token]
	if !ok {
		return ErrUnknownAttempt
	}
	if a.State != from {
		return fmt.Errorf("%w: %s -> %s (attempt is %s)", ErrInvalidTransition, from, to, a.State)
	}
	a.State = to
	a.UpdatedAt = time.Now()
	if apply != nil {
		apply(a)
	}
	return nil
}
