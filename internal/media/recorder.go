// Package media captures voice notes. The capture source is an injected
// io.Reader so the recorder stays testable and device-agnostic.
package media

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/chuongle2003/chorus-cli/internal/shared"
)

// DefaultLimit caps a recording when no limit is configured.
const DefaultLimit = 60 * time.Second

const chunkSize = 4096

// Recording is the result of one capture.
type Recording struct {
	Data        []byte
	Duration    time.Duration
	AutoStopped bool
}

// Recorder captures audio from a source into memory. A recording stops
// when Stop is called or when the limit elapses, whichever comes first.
type Recorder struct {
	source io.Reader
	limit  time.Duration

	mu          sync.Mutex
	recording   bool
	cancel      context.CancelFunc
	done        chan struct{}
	buf         bytes.Buffer
	started     time.Time
	finished    time.Time
	autoStopped bool
}

// NewRecorder builds a recorder over a capture source. A non-positive
// limit falls back to DefaultLimit.
func NewRecorder(source io.Reader, limit time.Duration) *Recorder {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Recorder{source: source, limit: limit}
}

// Start begins capturing. It fails if a recording is already running.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return shared.ErrAlreadyRecording
	}

	ctx, cancel := context.WithCancel(ctx)
	r.recording = true
	r.cancel = cancel
	r.done = make(chan struct{})
	r.buf.Reset()
	r.started = time.Now()
	r.finished = time.Time{}
	r.autoStopped = false

	go r.capture(ctx, r.done)
	return nil
}

// Stop ends the recording and returns it. Calling Stop after an
// auto-stop is fine; it returns the capped recording.
func (r *Recorder) Stop() (Recording, error) {
	r.mu.Lock()
	if !r.recording && r.done == nil {
		r.mu.Unlock()
		return Recording{}, shared.ErrNotRecording
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	rec := Recording{
		Data:        append([]byte(nil), r.buf.Bytes()...),
		Duration:    r.finished.Sub(r.started),
		AutoStopped: r.autoStopped,
	}
	r.done = nil
	return rec, nil
}

// Recording reports whether a capture is running.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Elapsed returns how long the current recording has run.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return 0
	}
	return time.Since(r.started)
}

// Limit returns the configured cap.
func (r *Recorder) Limit() time.Duration {
	return r.limit
}

type readResult struct {
	data []byte
	err  error
}

func (r *Recorder) capture(ctx context.Context, done chan struct{}) {
	defer close(done)

	deadline := time.NewTimer(r.limit)
	defer deadline.Stop()

	// Reads run in their own goroutine so the limit and Stop still take
	// effect while the source blocks. A read stuck in the source after
	// the recording ends is abandoned, not waited on.
	chunks := make(chan readResult)
	go func() {
		buf := make([]byte, chunkSize)
		for {
			n, err := r.source.Read(buf)
			res := readResult{err: err}
			if n > 0 {
				res.data = append([]byte(nil), buf[:n]...)
			}
			select {
			case chunks <- res:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	auto := false

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-deadline.C:
			auto = true
			break loop
		case res := <-chunks:
			if len(res.data) > 0 {
				r.mu.Lock()
				r.buf.Write(res.data)
				r.mu.Unlock()
			}
			if res.err != nil {
				break loop
			}
		}
	}

	r.mu.Lock()
	r.recording = false
	r.autoStopped = auto
	r.finished = time.Now()
	if r.finished.Sub(r.started) > r.limit {
		r.finished = r.started.Add(r.limit)
	}
	r.mu.Unlock()
}

// Filename returns a unique name for an uploaded voice note.
func Filename() string {
	return "voice-" + shared.GenerateID() + ".ogg"
}
