// Package confirm drives role assignment from the client side and waits
// until the caller's session reflects the new role.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cradle-gate/internal/domain"

	"github.com/cenkalti/backoff/v4"
)

// ErrBusy is returned when Run is called while a run is in progress.
var ErrBusy = errors.New("confirmation already in progress")

var errRoleNotObserved = errors.New("role not yet visible in session")

// RetryPolicy bounds the confirming loop.
type RetryPolicy struct {
	// InitialDelay is waited once after assignment before the first check.
	InitialDelay time.Duration
	// Interval separates consecutive checks.
	Interval time.Duration
	// MaxAttempts is the number of checks before giving up.
	MaxAttempts int
}

// DefaultRetryPolicy waits 1s, then checks every 500ms, 20 times.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{InitialDelay: time.Second, Interval: 500 * time.Millisecond, MaxAttempts: 20}
}

// Validate rejects policies the loop cannot run.
func (p RetryPolicy) Validate() error {
	if p.InitialDelay < 0 || p.Interval < 0 {
		return fmt.Errorf("retry policy delays must not be negative")
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry policy needs at least one attempt, got %d", p.MaxAttempts)
	}
	return nil
}

// Session is the client view of the gate the poller drives.
type Session interface {
	AssignRole(ctx context.Context, role domain.Role) (domain.Role, error)
	// RefreshSession forces new session claims.
	RefreshSession(ctx context.Context) error
	// CurrentRole reads the role the refreshed session carries.
	CurrentRole(ctx context.Context) (domain.Role, error)
}

// Result summarizes a finished run.
type Result struct {
	State    State
	Role     domain.Role
	Attempts int
}

// Option configures a Poller.
type Option func(*Poller)

// WithPolicy replaces DefaultRetryPolicy.
func WithPolicy(p RetryPolicy) Option {
	return func(pl *Poller) { pl.policy = p }
}

// WithClock injects the timer source.
func WithClock(c Clock) Option {
	return func(pl *Poller) { pl.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(pl *Poller) { pl.logger = l }
}

// WithStateListener is called on every state change, from the goroutine
// running Run.
func WithStateListener(fn func(State)) Option {
	return func(pl *Poller) { pl.onState = fn }
}

// Poller assigns a role and confirms it became visible in the session,
// then navigates to the landing path exactly once.
type Poller struct {
	session  Session
	landing  string
	navigate func(path string)
	policy   RetryPolicy
	clock    Clock
	logger   *slog.Logger
	onState  func(State)

	mu        sync.Mutex
	state     State
	result    Result
	navigated bool
}

// NewPoller creates a poller that calls navigate(landing) when done.
func NewPoller(session Session, landing string, navigate func(path string), opts ...Option) *Poller {
	p := &Poller{
		session:  session,
		landing:  landing,
		navigate: navigate,
		policy:   DefaultRetryPolicy(),
		clock:    RealClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Run assigns role and waits until the session reflects it. Confirmed and
// TimedOut both navigate and return a nil error; a timeout proceeds
// optimistically. Once terminal, Run returns the earlier result without
// doing anything. Canceling ctx stops all timers and never navigates.
func (p *Poller) Run(ctx context.Context, role domain.Role) (Result, error) {
	if err := p.policy.Validate(); err != nil {
		return Result{}, err
	}

	if res, ok, err := p.claim(); !ok {
		return res, err
	}
	assigned, err := p.session.AssignRole(ctx, role)
	if err != nil {
		if ctx.Err() != nil {
			return p.stop(ctx, role, 0)
		}
		p.setState(StateFailed)
		p.logger.WarnContext(ctx, "role assignment rejected", "role", role.String(), "error", err)
		return Result{State: StateFailed, Role: role}, err
	}

	p.setState(StateConfirming)
	if err := p.wait(ctx, p.policy.InitialDelay); err != nil {
		return p.stop(ctx, assigned, 0)
	}

	attempts := 0
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.policy.Interval), uint64(p.policy.MaxAttempts-1)),
		ctx,
	)
	err = backoff.RetryNotifyWithTimer(func() error {
		attempts++
		return p.check(ctx, assigned, attempts)
	}, b, nil, p.clock.NewTimer())

	switch {
	case err == nil:
		p.logger.InfoContext(ctx, "role confirmed", "role", assigned.String(), "attempts", attempts)
		return p.finish(StateConfirmed, assigned, attempts), nil
	case ctx.Err() != nil:
		return p.stop(ctx, assigned, attempts)
	default:
		p.logger.WarnContext(ctx, "role confirmation timed out",
			"role", assigned.String(),
			"attempts", attempts,
			"error", domain.ErrConfirmationTimeout)
		return p.finish(StateTimedOut, assigned, attempts), nil
	}
}

// check refreshes the session and compares its role with expected.
// Collaborator errors count as a miss.
func (p *Poller) check(ctx context.Context, expected domain.Role, attempt int) error {
	if err := p.session.RefreshSession(ctx); err != nil {
		p.logger.DebugContext(ctx, "session refresh failed", "attempt", attempt, "error", err)
		return err
	}
	observed, err := p.session.CurrentRole(ctx)
	if err != nil {
		p.logger.DebugContext(ctx, "profile reload failed", "attempt", attempt, "error", err)
		return err
	}
	if observed != expected {
		return errRoleNotObserved
	}
	return nil
}

func (p *Poller) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := p.clock.NewTimer()
	t.Start(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}

func (p *Poller) stop(ctx context.Context, role domain.Role, attempts int) (Result, error) {
	p.setState(StateCanceled)
	p.logger.InfoContext(ctx, "role confirmation canceled", "role", role.String(), "attempts", attempts)
	return Result{State: StateCanceled, Role: role, Attempts: attempts}, ctx.Err()
}

// finish records a terminal result and navigates unless a previous run
// already did.
func (p *Poller) finish(state State, role domain.Role, attempts int) Result {
	res := Result{State: state, Role: role, Attempts: attempts}

	p.mu.Lock()
	p.state = state
	p.result = res
	first := !p.navigated
	p.navigated = true
	p.mu.Unlock()

	if p.onState != nil {
		p.onState(state)
	}
	if first && p.navigate != nil {
		p.navigate(p.landing)
	}
	return res
}

// claim moves an idle or failed poller to StateAssigning in one critical
// section, so only one Run proceeds. When it cannot, it returns what Run
// should return instead.
func (p *Poller) claim() (Result, bool, error) {
	p.mu.Lock()
	switch {
	case p.state.Terminal():
		res := p.result
		p.mu.Unlock()
		return res, false, nil
	case p.state == StateAssigning || p.state == StateConfirming:
		p.mu.Unlock()
		return Result{}, false, ErrBusy
	}
	p.state = StateAssigning
	p.mu.Unlock()

	if p.onState != nil {
		p.onState(StateAssigning)
	}
	return Result{}, true, nil
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	if p.onState != nil {
		p.onState(s)
	}
}
