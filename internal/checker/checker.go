package checker

import (
	"context"
	"errors"
	"time"

	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	"github.com/khanhnv2901/sitescan/internal/logger"
	sharederrors "github.com/khanhnv2901/sitescan/internal/shared/errors"
	"go.uber.org/zap"
)

// Checker is the interface every collector satisfies. Check never returns an
// error: failures are recorded in the returned outcome.
type Checker[T any] interface {
	// Check performs one network interaction against target. now is the
	// evaluation time used for derived fields.
	Check(ctx context.Context, target scan.Target, now time.Time) scan.Outcome[T]

	// Name returns the collector's key ("http", "tls", "whois").
	Name() string
}

// DoneFunc is called once per collector as soon as it finishes.
type DoneFunc func(name string, ok bool, elapsed time.Duration)

// Runner runs the configured collectors against one target and waits for all
// of them before returning. A nil checker leaves its slot "not collected".
type Runner struct {
	HTTP  Checker[scan.HTTPRecord]
	TLS   Checker[scan.TLSRecord]
	Whois Checker[scan.WhoisRecord]

	// Sequential runs collectors one after another instead of concurrently.
	Sequential bool
	// Deadline bounds the whole collection phase; zero means no overall bound.
	// Collectors still running when it fires are recorded as "timeout".
	Deadline time.Duration
	// OnDone is optional.
	OnDone DoneFunc
}

type job struct {
	name string
	run  func(ctx context.Context, target scan.Target, now time.Time) (apply func(), ok bool)
	fail func(reason string)
}

type finished struct {
	index   int
	apply   func()
	ok      bool
	elapsed time.Duration
}

func bind[T any](c Checker[T], slot *scan.Outcome[T]) job {
	return job{
		name: c.Name(),
		run: func(ctx context.Context, target scan.Target, now time.Time) (func(), bool) {
			out := c.Check(ctx, target, now)
			return func() { *slot = out }, out.OK()
		},
		fail: func(reason string) { *slot = scan.Failed[T](reason) },
	}
}

// Run collects every configured source. Results are written only from the
// calling goroutine, after each collector reports back.
func (r *Runner) Run(ctx context.Context, target scan.Target, now time.Time) scan.Collection {
	var coll scan.Collection

	var jobs []job
	if r.HTTP != nil {
		jobs = append(jobs, bind(r.HTTP, &coll.HTTP))
	}
	if r.TLS != nil {
		jobs = append(jobs, bind(r.TLS, &coll.TLS))
	}
	if r.Whois != nil {
		jobs = append(jobs, bind(r.Whois, &coll.Whois))
	}
	if len(jobs) == 0 {
		return coll
	}

	if r.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Deadline)
		defer cancel()
	}

	// Buffered so collectors that outlive the deadline can still send and exit.
	results := make(chan finished, len(jobs))
	exec := func(i int) {
		start := time.Now()
		jobCtx := logger.WithFields(ctx, zap.String("collector", jobs[i].name))
		logger.Debug(jobCtx, "collector started")
		apply, ok := jobs[i].run(jobCtx, target, now)
		results <- finished{index: i, apply: apply, ok: ok, elapsed: time.Since(start)}
	}

	if r.Sequential {
		go func() {
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				exec(i)
			}
		}()
	} else {
		for i := range jobs {
			go exec(i)
		}
	}

	done := make([]bool, len(jobs))
	for remaining := len(jobs); remaining > 0; remaining-- {
		select {
		case res := <-results:
			res.apply()
			done[res.index] = true
			r.report(ctx, jobs[res.index].name, res.ok, res.elapsed)
		case <-ctx.Done():
			reason := sharederrors.ErrTimeout.Error()
			if errors.Is(ctx.Err(), context.Canceled) {
				reason = "canceled"
			}
			for i, j := range jobs {
				if !done[i] {
					j.fail(reason)
					logger.Warn(ctx, "collector did not finish", zap.String("collector", j.name), zap.String("reason", reason))
				}
			}
			return coll
		}
	}

	return coll
}

func (r *Runner) report(ctx context.Context, name string, ok bool, elapsed time.Duration) {
	fields := []zap.Field{zap.String("collector", name), zap.Duration("elapsed", elapsed)}
	if ok {
		logger.Debug(ctx, "collector finished", fields...)
	} else {
		logger.Info(ctx, "collector failed", fields...)
	}
	if r.OnDone != nil {
		r.OnDone(name, ok, elapsed)
	}
}

// failure formats a collector error under one of the shared taxonomy sentinels.
func failure(kind error, err error) string {
	if err == nil {
		return kind.Error()
	}
	return kind.Error() + ": " + err.Error()
}
