package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxPollBytes caps how much of the file one poll reads.
const maxPollBytes = 1 << 20

// Source yields complete producer lines appended since the last poll.
type Source interface {
	Name() string
	Poll(ctx context.Context) ([][]byte, error)
}

// FileSource tails a JSONL file the recognizer appends to.
//
// The first poll starts at the current end of the file so a restart does
// not replay an old session. A file that does not exist yet is read from
// its beginning once it appears. A file that shrank was truncated and is
// re-read from the start.
// Not safe for concurrent use; the Watcher polls each source from one
// goroutine at a time.
type FileSource struct {
	path    string
	offset  int64 // -1 until the first poll
	partial []byte
}

// NewFileSource creates a source tailing path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, offset: -1}
}

// Name returns the file path.
func (s *FileSource) Name() string {
	return s.path
}

// Poll returns the complete lines written since the previous poll. A
// trailing line without newline is held back until it is finished.
func (s *FileSource) Poll(ctx context.Context) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.offset < 0 {
				s.offset = 0
			}
			return nil, nil
		}
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat feed: %w", err)
	}

	switch {
	case s.offset < 0:
		s.offset = info.Size()
		return nil, nil
	case info.Size() < s.offset:
		s.offset = 0
		s.partial = nil
	case info.Size() == s.offset:
		return nil, nil
	}

	if _, err := f.Seek(s.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek feed: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(f, maxPollBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	s.offset += int64(len(data))

	buf := append(s.partial, data...)
	last := bytes.LastIndexByte(buf, '\n')
	if last < 0 {
		s.partial = buf
		return nil, nil
	}
	s.partial = append([]byte(nil), buf[last+1:]...)

	var lines [][]byte
	for _, line := range bytes.Split(buf[:last], []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
