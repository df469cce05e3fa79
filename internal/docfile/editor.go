// Package docfile edits one shared document under an exclusive lease.
//
// An Editor moves through three states. It starts Unopened; the first Extract (or an
// Update issued without one) takes an OS-level exclusive lock on the document and
// opens it for reading and writing, moving to Leased. Close flushes, unlocks and moves
// to Released, after which the editor cannot be used again.
//
// Besides the OS lock, every Editor owns a single permit. Extract takes it and Update
// gives it back, so callers sharing one Editor cannot interleave between a paired
// Extract and Update. Editors in other goroutines or processes are kept out by the OS
// lock alone, which is held until Close.
package docfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gofrs/flock"
	"golang.org/x/sync/semaphore"

	"github.com/systmms/paramdocs/internal/logging"
)

const (
	// DefaultAttempts is how many times the exclusive lock is tried before giving up
	DefaultAttempts = 100
	// DefaultDelay is the fixed wait between lock attempts
	DefaultDelay = 100 * time.Millisecond
)

var (
	// ErrLockExhausted is returned when the document stayed locked for every attempt
	ErrLockExhausted = errors.New("exclusive lock attempts exhausted")
	// ErrReleased is returned by editors used after Close
	ErrReleased = errors.New("editor already released")

	errLocked = errors.New("document is locked by another holder")
)

// State is the lifecycle position of an Editor
type State int

const (
	Unopened State = iota
	Leased
	Released
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Leased:
		return "leased"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// LockError reports a lease that could not be acquired
type LockError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("could not lock %s exclusively after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

func (e *LockError) Unwrap() []error {
	return []error{ErrLockExhausted, e.Err}
}

// Option configures an Editor
type Option func(*Editor)

// WithRetry sets the lock attempt ceiling and the fixed delay between attempts
func WithRetry(attempts int, delay time.Duration) Option {
	return func(e *Editor) {
		if attempts > 0 {
			e.attempts = attempts
		}
		if delay >= 0 {
			e.delay = delay
		}
	}
}

// WithLogger sets the logger used for lease diagnostics
func WithLogger(logger *logging.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithObserver registers a callback invoked after every failed lock attempt
func WithObserver(fn func(attempt int)) Option {
	return func(e *Editor) {
		e.observe = fn
	}
}

// Editor reads and rewrites a single file under an exclusive lease
type Editor struct {
	path     string
	attempts int
	delay    time.Duration
	logger   *logging.Logger
	observe  func(attempt int)

	permit *semaphore.Weighted
	held   atomic.Bool

	mu    sync.Mutex
	state State
	lock  *flock.Flock
	file  *os.File
}

// New creates an editor for path. Nothing is opened until the first Extract or Update.
func New(path string, opts ...Option) *Editor {
	e := &Editor{
		path:     path,
		attempts: DefaultAttempts,
		delay:    DefaultDelay,
		logger:   logging.Discard(),
		permit:   semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Path returns the edited file
func (e *Editor) Path() string {
	return e.path
}

// State returns the current lifecycle state
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Extract takes the editor's permit, leases the file if needed and returns its full
// content. The permit stays held until Update or Discard.
func (e *Editor) Extract(ctx context.Context) (string, error) {
	if err := e.permit.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for %s: %w", e.path, err)
	}
	e.held.Store(true)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.leaseLocked(ctx); err != nil {
		e.releasePermit()
		return "", err
	}

	if _, err := e.file.Seek(0, io.SeekStart); err != nil {
		e.releasePermit()
		return "", fmt.Errorf("failed to rewind %s: %w", e.path, err)
	}
	data, err := io.ReadAll(e.file)
	if err != nil {
		e.releasePermit()
		return "", fmt.Errorf("failed to read %s: %w", e.path, err)
	}
	return string(data), nil
}

// Update replaces the file content and gives back the permit taken by Extract.
// Called without a prior Extract, it acquires the lease itself.
func (e *Editor) Update(ctx context.Context, content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.releasePermit()

	if err := e.leaseLocked(ctx); err != nil {
		return err
	}

	if err := e.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", e.path, err)
	}
	if _, err := e.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind %s: %w", e.path, err)
	}
	if _, err := io.WriteString(e.file, content); err != nil {
		return fmt.Errorf("failed to write %s: %w", e.path, err)
	}
	if err := e.file.Sync(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", e.path, err)
	}
	return nil
}

// Discard gives back the permit taken by Extract without writing
func (e *Editor) Discard() {
	e.releasePermit()
}

// Edit runs one extract, transform, update cycle. The permit is given back on every
// path out of Edit; when fn returns an error or the content is unchanged nothing is
// written.
func (e *Editor) Edit(ctx context.Context, fn func(current string) (string, error)) error {
	current, err := e.Extract(ctx)
	if err != nil {
		return err
	}

	updated := false
	defer func() {
		if !updated {
			e.Discard()
		}
	}()

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == current {
		return nil
	}

	updated = true
	return e.Update(ctx, next)
}

// Close flushes and releases the lease. It is safe to call more than once.
func (e *Editor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Released {
		return nil
	}

	var errs []error
	if e.file != nil {
		if err := e.file.Sync(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, fmt.Errorf("failed to flush %s: %w", e.path, err))
		}
		if err := e.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", e.path, err))
		}
		e.file = nil
	}
	if e.lock != nil {
		if err := e.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("failed to unlock %s: %w", e.path, err))
		}
		e.lock = nil
		e.logger.Debug("Released lease on %s", e.path)
	}
	e.state = Released
	e.releasePermit()

	return errors.Join(errs...)
}

func (e *Editor) releasePermit() {
	if e.held.CompareAndSwap(true, false) {
		e.permit.Release(1)
	}
}

// leaseLocked moves the editor to Leased. Callers hold e.mu.
func (e *Editor) leaseLocked(ctx context.Context) error {
	switch e.state {
	case Leased:
		return nil
	case Released:
		return ErrReleased
	}

	lock := flock.New(e.path, flock.SetFlag(os.O_RDONLY))
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		ok, err := lock.TryLock()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		if !ok {
			return struct{}{}, errLocked
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(e.delay)),
		backoff.WithMaxTries(uint(e.attempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			e.logger.Debug("Lock attempt %d on %s failed (%v), retrying in %s", attempt, e.path, err, wait)
			if e.observe != nil {
				e.observe(attempt)
			}
		}),
	)
	if err != nil {
		_ = lock.Close()
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("failed to open %s: %w", e.path, err)
		case ctx.Err() != nil:
			return fmt.Errorf("waiting for lock on %s: %w", e.path, ctx.Err())
		default:
			return &LockError{Path: e.path, Attempts: attempt, Err: err}
		}
	}

	f, err := os.OpenFile(e.path, os.O_RDWR, 0)
	if err != nil {
		_ = lock.Unlock()
		return fmt.Errorf("failed to open %s: %w", e.path, err)
	}

	e.lock = lock
	e.file = f
	e.state = Leased
	e.logger.Debug("Leased %s after %d attempt(s)", e.path, attempt)
	return nil
}
