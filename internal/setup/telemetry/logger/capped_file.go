// Package logger provides the file writers behind the zap cores.
package logger

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CappedFile is an append-only log file that never grows far beyond maxLines.
// Once 2*maxLines lines are in the file it is rewritten with the newest
// maxLines lines. A maxLines of zero or less disables the cap.
type CappedFile struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	maxLines int

	// ring of the newest lines
	recent  []string
	next    int
	stored  int
	written int
}

// OpenCappedFile opens or creates the file at path.
func OpenCappedFile(path string, maxLines int) (*CappedFile, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	f := &CappedFile{path: path, file: file, maxLines: maxLines}
	if maxLines > 0 {
		f.recent = make([]string, maxLines)
	}

	return f, nil
}

// Write appends p and compacts the file when the line budget is spent.
func (f *CappedFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.file.Write(p)
	if err != nil || f.maxLines <= 0 {
		return n, err
	}

	for line := range bytes.SplitSeq(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}

		f.remember(string(line))

		if f.written >= 2*f.maxLines {
			if err := f.compact(); err != nil {
				return n, fmt.Errorf("failed to compact log file: %w", err)
			}
		}
	}

	return n, nil
}

// Sync flushes the file to disk.
func (f *CappedFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.file.Sync()
}

// Close closes the file.
func (f *CappedFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.file.Close()
}

func (f *CappedFile) remember(line string) {
	f.recent[f.next] = line
	f.next = (f.next + 1) % f.maxLines

	if f.stored < f.maxLines {
		f.stored++
	}

	f.written++
}

// lines returns the remembered lines, oldest first.
func (f *CappedFile) lines() []string {
	out := make([]string, 0, f.stored)
	start := (f.next - f.stored + f.maxLines) % f.maxLines

	for i := range f.stored {
		out = append(out, f.recent[(start+i)%f.maxLines])
	}

	return out
}

// compact replaces the file with the remembered lines through a temp file.
func (f *CappedFile) compact() error {
	temp, err := os.CreateTemp(filepath.Dir(f.path), "compact-")
	if err != nil {
		return err
	}

	tempPath := temp.Name()

	if _, err := temp.WriteString(strings.Join(f.lines(), "\n") + "\n"); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)

		return err
	}

	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	_ = f.file.Close()

	if err := os.Rename(tempPath, f.path); err != nil {
		return err
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	f.file = file
	f.written = f.stored

	return nil
}
