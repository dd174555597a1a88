package messaging

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/vvsvvt/transitq/contracts"
)

const defaultFatalDelay = 2 * time.Second

// FatalPolicy is the host-side handling of access-denied receive outcomes.
// A misconfigured permission is unrecoverable for the whole process, not just
// the call: the policy emits a fatal-severity record naming the queue and the
// principal, waits long enough for the record to be collected, then
// terminates. The session itself stays side-effect free and merely returns
// the *contracts.AccessDeniedError this policy acts on.
type FatalPolicy struct {
	logger *slog.Logger
	delay  time.Duration
	exit   func(code int)
}

// FatalPolicyOption configures a FatalPolicy.
type FatalPolicyOption func(*FatalPolicy)

// WithFatalLogger sets the logger.
func WithFatalLogger(logger *slog.Logger) FatalPolicyOption {
	return func(p *FatalPolicy) {
		p.logger = logger
	}
}

// WithFatalDelay sets how long to wait between logging and terminating.
func WithFatalDelay(d time.Duration) FatalPolicyOption {
	return func(p *FatalPolicy) {
		p.delay = d
	}
}

// WithExitFunc replaces os.Exit, letting tests observe termination.
func WithExitFunc(exit func(code int)) FatalPolicyOption {
	return func(p *FatalPolicy) {
		p.exit = exit
	}
}

// NewFatalPolicy creates a policy that logs, waits 2s and calls os.Exit(1).
func NewFatalPolicy(options ...FatalPolicyOption) *FatalPolicy {
	p := &FatalPolicy{
		logger: slog.Default(),
		delay:  defaultFatalDelay,
		exit:   os.Exit,
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Handle applies the policy when err is an access-denied outcome. It reports
// whether the policy fired; with the default exit func it does not return in
// that case.
func (p *FatalPolicy) Handle(err error) bool {
	var denied *contracts.AccessDeniedError
	if !errors.As(err, &denied) {
		return false
	}

	p.logger.Error("access to queue denied, terminating process",
		"queue", denied.Queue,
		"principal", denied.Principal,
		"error", denied.Err,
	)
	time.Sleep(p.delay)
	p.exit(1)
	return true
}
