// Package monitoring recovers panics raised inside commands and views and
// hands them to an external error monitor.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrRecovered is returned by Boundary.Run when fn panicked. The caller can
// offer a retry or go back home.
var ErrRecovered = errors.New("recovered from panic")

// Report describes one recovered panic
type Report struct {
	Message   string    `json:"message"`
	Stack     string    `json:"stack"`
	Boundary  string    `json:"boundary"`
	SessionID string    `json:"sessionId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Reporter forwards reports to a monitor
type Reporter interface {
	Report(ctx context.Context, r Report) error
}

// Identity returns who was using the app when a panic happened
type Identity func() (sessionID, userID string)

// Boundary catches panics of the functions it runs
type Boundary struct {
	reporter Reporter
	identity Identity
	logger   log.FieldLogger
	now      func() time.Time
}

// NewBoundary creates a boundary reporting to reporter. identity may be nil.
func NewBoundary(reporter Reporter, identity Identity, logger log.FieldLogger) *Boundary {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if reporter == nil {
		reporter = NewLogReporter(logger)
	}
	return &Boundary{
		reporter: reporter,
		identity: identity,
		logger:   logger,
		now:      time.Now,
	}
}

// Run calls fn. A panic is reported and turned into an error wrapping
// ErrRecovered; other errors are returned as they are.
func (b *Boundary) Run(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		report := Report{
			Message:   fmt.Sprint(rec),
			Stack:     string(debug.Stack()),
			Boundary:  name,
			Timestamp: b.now(),
		}
		if b.identity != nil {
			report.SessionID, report.UserID = b.identity()
		}
		if rerr := b.reporter.Report(context.WithoutCancel(ctx), report); rerr != nil {
			b.logger.WithError(rerr).WithField("boundary", name).Warn("Failed to report panic")
		}
		err = fmt.Errorf("%s: %w: %s", name, ErrRecovered, report.Message)
	}()

	return fn(ctx)
}

// Retry is Run that remounts fn once after a recovered panic
func (b *Boundary) Retry(ctx context.Context, name string, fn func(context.Context) error) error {
	err := b.Run(ctx, name, fn)
	if !errors.Is(err, ErrRecovered) || ctx.Err() != nil {
		return err
	}
	b.logger.WithField("boundary", name).Info("Retrying after recovered panic")
	return b.Run(ctx, name, fn)
}

// LogReporter writes reports to a logger
type LogReporter struct {
	logger log.FieldLogger
}

func NewLogReporter(logger log.FieldLogger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(_ context.Context, rep Report) error {
	r.logger.WithFields(log.Fields{
		"boundary":  rep.Boundary,
		"sessionId": rep.SessionID,
		"userId":    rep.UserID,
		"stack":     rep.Stack,
	}).Error(rep.Message)
	return nil
}

// Multi sends every report to each reporter and joins their errors
type Multi []Reporter

func (m Multi) Report(ctx context.Context, rep Report) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, rep); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
