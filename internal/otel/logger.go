package otel

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// EventLogFile is the name of the JSONL event log inside the data dir.
const EventLogFile = "talkatoo.events.jsonl"

// queueSize bounds the lines waiting for the writer goroutine.
const queueSize = 4096

// Logger appends events to a JSONL file from one writer goroutine.
// Emit never blocks: a line that does not fit the queue is counted in
// Dropped, but the event still reaches the attached Ring.
type Logger struct {
	session string
	out     io.Writer
	file    io.Closer // nil unless the Logger opened the file itself
	queue   chan []byte
	done    chan struct{}

	ring    atomic.Pointer[Ring]
	trace   atomic.Bool
	dropped atomic.Uint64

	// closeMu guards closed and the queue close against in-flight Emits.
	closeMu   sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// OpenFile creates a Logger appending to the file at path, creating the
// parent directory. Close closes the file.
func OpenFile(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create event log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	l := NewLogger(f)
	l.file = f
	return l, nil
}

// NewLogger creates a Logger writing to w. Call Close to flush.
func NewLogger(w io.Writer) *Logger {
	var id [8]byte
	_, _ = rand.Read(id[:])

	l := &Logger{
		session: hex.EncodeToString(id[:]),
		out:     w,
		queue:   make(chan []byte, queueSize),
		done:    make(chan struct{}),
	}
	go l.writeLoop()
	return l
}

// NewNullLogger creates a Logger that only feeds its Ring.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func (l *Logger) writeLoop() {
	defer close(l.done)
	for line := range l.queue {
		if _, err := l.out.Write(line); err != nil {
			l.dropped.Add(1)
		}
	}
}

// Emit stamps e with the time (if unset) and the session id, pushes it to
// the attached Ring and queues it for the log file.
func (l *Logger) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.session

	if r := l.ring.Load(); r != nil {
		r.Push(e)
	}

	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	line = append(line, '\n')

	l.closeMu.RLock()
	defer l.closeMu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	select {
	case l.queue <- line:
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info-level event.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn-level event.
func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. A nil err leaves Err empty.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	e := Event{Level: LevelError, Kind: kind, Comp: comp}
	if err != nil {
		e.Err = err.Error()
	}
	l.Emit(e)
}

// SetTrace turns per-message tracing on or off.
func (l *Logger) SetTrace(on bool) {
	l.trace.Store(on)
}

// Tracing reports whether Trace emits anything.
func (l *Logger) Tracing() bool {
	return l.trace.Load()
}

// Trace records the type of a message passing through comp. It is a no-op
// unless tracing was turned on.
func (l *Logger) Trace(comp string, msg any) {
	if !l.trace.Load() {
		return
	}
	l.Emit(Event{Level: LevelDebug, Kind: KindMsgReceived, Comp: comp, Msg: fmt.Sprintf("%T", msg)})
}

// Attach sends every later event to r as well. A nil r detaches.
func (l *Logger) Attach(r *Ring) {
	l.ring.Store(r)
}

// Session is the random id stamped on this Logger's events.
func (l *Logger) Session() string {
	return l.session
}

// Dropped counts events that never reached the log file.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close writes out the queue and stops the writer. Emits racing with or
// following Close are counted as dropped. Safe to call more than once.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		l.closeMu.Lock()
		l.closed = true
		close(l.queue)
		l.closeMu.Unlock()

		<-l.done
		if l.file != nil {
			_ = l.file.Close()
		}
		if n := l.dropped.Load(); n > 0 {
			fmt.Fprintf(os.Stderr, "talkatoo: %d events dropped during session %s\n", n, l.session)
		}
	})
}
