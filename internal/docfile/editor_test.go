package docfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readDoc(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestEditor_ExtractUpdateClose(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "hello ")
	ed := New(path)
	assert.Equal(t, Unopened, ed.State())

	ctx := context.Background()
	content, err := ed.Extract(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello ", content)
	assert.Equal(t, Leased, ed.State())

	require.NoError(t, ed.Update(ctx, "hello world"))
	assert.Equal(t, Leased, ed.State(), "lease is kept until Close")

	// a shorter rewrite must truncate
	_, err = ed.Extract(ctx)
	require.NoError(t, err)
	require.NoError(t, ed.Update(ctx, "bye"))

	require.NoError(t, ed.Close())
	assert.Equal(t, Released, ed.State())
	require.NoError(t, ed.Close(), "Close is idempotent")

	assert.Equal(t, "bye", readDoc(t, path))
}

func TestEditor_ExtractRereadsFromStart(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "abc")
	ed := New(path)
	defer ed.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		content, err := ed.Extract(ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc", content)
		ed.Discard()
	}
}

func TestEditor_UpdateWithoutExtract(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "old")
	ed := New(path)

	require.NoError(t, ed.Update(context.Background(), "new"))
	assert.Equal(t, Leased, ed.State())
	require.NoError(t, ed.Close())

	assert.Equal(t, "new", readDoc(t, path))
}

func TestEditor_UseAfterClose(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "x")
	ed := New(path)
	require.NoError(t, ed.Close())

	_, err := ed.Extract(context.Background())
	require.ErrorIs(t, err, ErrReleased)

	err = ed.Update(context.Background(), "y")
	require.ErrorIs(t, err, ErrReleased)

	assert.Equal(t, "x", readDoc(t, path))
}

func TestEditor_MissingFileFailsFast(t *testing.T) {
	t.Parallel()

	ed := New(filepath.Join(t.TempDir(), "missing.md"), WithRetry(50, time.Second))
	defer ed.Close()

	start := time.Now()
	_, err := ed.Extract(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrLockExhausted)
	assert.Less(t, time.Since(start), 5*time.Second, "a missing file is not retried")

	_, statErr := os.Stat(ed.Path())
	assert.True(t, os.IsNotExist(statErr), "the document must not be created")
}

func TestEditor_LockExhausted(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "locked")
	ctx := context.Background()

	holder := New(path)
	_, err := holder.Extract(ctx)
	require.NoError(t, err)
	defer holder.Close()

	var observed atomic.Int32
	waiter := New(path, WithRetry(3, 10*time.Millisecond), WithObserver(func(int) { observed.Add(1) }))
	defer waiter.Close()

	_, err = waiter.Extract(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockExhausted)

	var lockErr *LockError
	require.True(t, errors.As(err, &lockErr))
	assert.Equal(t, path, lockErr.Path)
	assert.Equal(t, 3, lockErr.Attempts)
	assert.Equal(t, int32(2), observed.Load(), "observer runs between attempts")
	assert.Equal(t, Unopened, waiter.State())

	// the failed Extract gave its permit back
	holder.Discard()
	require.NoError(t, holder.Close())

	content, err := waiter.Extract(ctx)
	require.NoError(t, err)
	assert.Equal(t, "locked", content)
	waiter.Discard()
}

func TestEditor_WaitsForOtherHolder(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "v1")
	ctx := context.Background()

	holder := New(path)
	_, err := holder.Extract(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = holder.Update(ctx, "v2")
		_ = holder.Close()
	}()

	waiter := New(path, WithRetry(100, 20*time.Millisecond))
	defer waiter.Close()

	content, err := waiter.Extract(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", content, "the second reader sees the completed write")
	waiter.Discard()
}

func TestEditor_ContextCancelledWhileWaitingForPermit(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "x")
	ed := New(path)
	defer ed.Close()

	_, err := ed.Extract(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = ed.Extract(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	ed.Discard()
}

func TestEditor_Edit(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "a")
	ed := New(path)
	defer ed.Close()
	ctx := context.Background()

	require.NoError(t, ed.Edit(ctx, func(s string) (string, error) { return s + "b", nil }))
	assert.Equal(t, "ab", readDoc(t, path))

	boom := errors.New("boom")
	err := ed.Edit(ctx, func(s string) (string, error) { return "ignored", boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "ab", readDoc(t, path), "failed edits write nothing")

	require.NoError(t, ed.Edit(ctx, func(s string) (string, error) { return s, nil }))
	assert.Equal(t, "ab", readDoc(t, path))

	// the permit must be free again after every path above
	timeout, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, ed.Edit(timeout, func(s string) (string, error) { return s + "c", nil }))
	assert.Equal(t, "abc", readDoc(t, path))
}

func TestEditor_EditReleasesPermitOnPanic(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "a")
	ed := New(path)
	defer ed.Close()

	assert.Panics(t, func() {
		_ = ed.Edit(context.Background(), func(string) (string, error) { panic("boom") })
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := ed.Extract(ctx)
	require.NoError(t, err)
	ed.Discard()
}

func TestEditor_SharedInstancePairsExtractAndUpdate(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "")
	ed := New(path)
	defer ed.Close()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			content, err := ed.Extract(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, ed.Update(context.Background(), content+"x"))
		}()
	}
	wg.Wait()

	assert.Equal(t, strings.Repeat("x", workers), readDoc(t, path))
}

func TestEditor_ConcurrentEditorsDoNotLoseWrites(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency test in short mode")
	}
	t.Parallel()

	path := writeDoc(t, "hello ")
	chars := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

	var wg sync.WaitGroup
	errs := make(chan error, len(chars))
	for _, c := range chars {
		wg.Add(1)
		go func(c string) {
			defer wg.Done()
			ed := New(path)
			defer ed.Close()

			content, err := ed.Extract(context.Background())
			if err != nil {
				errs <- err
				return
			}
			if err := ed.Update(context.Background(), content+c); err != nil {
				errs <- err
			}
		}(c)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("Timeout waiting for concurrent edits")
	}
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	result := readDoc(t, path)
	require.Len(t, result, 16)
	require.True(t, strings.HasPrefix(result, "hello "))

	got := strings.Split(strings.TrimPrefix(result, "hello "), "")
	sort.Strings(got)
	assert.Equal(t, chars, got, "every character appears exactly once")
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unopened", Unopened.String())
	assert.Equal(t, "leased", Leased.String())
	assert.Equal(t, "released", Released.String())
	assert.Equal(t, "state(7)", State(7).String())
}
