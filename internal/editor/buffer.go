// Package editor provides a minimal in-memory document with a selection,
// used when suggestions are driven from the command line or a terminal UI
// instead of a real editor host.
package editor

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

var ErrInvalidRange = errors.New("invalid selection range")

// Buffer is a text document with a single selection expressed as byte
// offsets. It is safe for concurrent use.
type Buffer struct {
	mu    sync.RWMutex
	text  string
	start int
	end   int
	path  string
	dirty bool
}

// NewBuffer creates a buffer holding text with an empty selection at the end.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: text, start: len(text), end: len(text)}
}

// OpenFile loads a buffer from disk.
func OpenFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	b := NewBuffer(string(data))
	b.path = path
	return b, nil
}

// Path returns the file the buffer was opened from, if any.
func (b *Buffer) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Text returns the whole document.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Dirty reports whether the buffer changed since it was opened or saved.
func (b *Buffer) Dirty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dirty
}

// Select sets the selection to [start, end). Offsets outside the document
// are clamped; a reversed range is an error.
func (b *Buffer) Select(start, end int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start > end {
		return fmt.Errorf("%w: start %d is after end %d", ErrInvalidRange, start, end)
	}
	b.start = clamp(start, 0, len(b.text))
	b.end = clamp(end, 0, len(b.text))
	return nil
}

// SelectText selects the first occurrence of needle.
func (b *Buffer) SelectText(needle string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := strings.Index(b.text, needle)
	if idx < 0 || needle == "" {
		return false
	}
	b.start = idx
	b.end = idx + len(needle)
	return true
}

// Range returns the selection offsets.
func (b *Buffer) Range() (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.start, b.end
}

// Selection returns the selected text.
func (b *Buffer) Selection() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text[b.start:b.end]
}

// ReplaceSelection swaps the selected text for text and leaves the cursor
// after the inserted text.
func (b *Buffer) ReplaceSelection(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.text = b.text[:b.start] + text + b.text[b.end:]
	b.start += len(text)
	b.end = b.start
	b.dirty = true
}

// Save writes the buffer back to the file it was opened from.
func (b *Buffer) Save() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.path == "" {
		return errors.New("buffer has no file")
	}
	if err := os.WriteFile(b.path, []byte(b.text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", b.path, err)
	}
	b.dirty = false
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
