package comm

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Stream is a line-buffered writer. There is one stream per rank; only the
// printer rank's output reaches w, every other rank's output is discarded.
// Complete lines are written as they arrive.
type Stream struct {
	mu      sync.Mutex
	w       io.Writer
	rank    int
	printer int
	buf     bytes.Buffer
}

// NewStream returns a stream for rank that prints only from rank 0.
func NewStream(w io.Writer, rank int) *Stream {
	return &Stream{w: w, rank: rank}
}

// SetPrinter selects the rank whose output is written.
func (s *Stream) SetPrinter(rank int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.printer = rank
}

// Printer returns the printing rank.
func (s *Stream) Printer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.printer
}

// Printing reports whether this rank's output is written.
func (s *Stream) Printing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rank == s.printer
}

// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rank != s.printer {
		return len(p), nil
	}
	s.buf.Write(p)
	if i := bytes.LastIndexByte(s.buf.Bytes(), '\n'); i >= 0 {
		if _, err := s.w.Write(s.buf.Next(i + 1)); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

// Printf formats to the stream.
func (s *Stream) Printf(format string, args ...any) {
	fmt.Fprintf(s, format, args...)
}

// Flush writes any incomplete trailing line.
func (s *Stream) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf.Len() == 0 {
		return nil
	}
	_, err := s.w.Write(s.buf.Bytes())
	s.buf.Reset()
	return err
}
