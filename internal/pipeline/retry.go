package pipeline

import (
	"context"
	"time"

	"github.com/scan-io-git/codemedic/internal/config"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy bounds the retries of transient stage failures.
// Every retry waits the same fixed Delay.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Sleep       SleepFunc
}

// DefaultRetryPolicy allows two attempts one minute apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: config.DefaultMaxAttempts,
		Delay:       config.DefaultRetryDelay,
		Sleep:       SleepContext,
	}
}

// RetryPolicyFromConfig reads the pipeline section of the configuration.
func RetryPolicyFromConfig(cfg *config.Config) RetryPolicy {
	policy := DefaultRetryPolicy()
	if cfg == nil {
		return policy
	}
	policy.MaxAttempts = config.SetThen(cfg.Pipeline.MaxAttempts, policy.MaxAttempts)
	policy.Delay = cfg.Pipeline.Delay()
	return policy
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	if p.Sleep == nil {
		p.Sleep = SleepContext
	}
	return p
}

// SleepContext blocks for d, returning early with ctx.Err() when ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
