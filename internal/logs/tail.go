package logs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	defaultPoll  = 250 * time.Millisecond
	maxLineBytes = 1024 * 1024
)

// Options controls Tail.
type Options struct {
	// Lines is the number of trailing lines to print first; 0 prints none.
	Lines  int
	Follow bool
	// Poll is the follow-mode polling interval.
	Poll time.Duration
}

// LineFunc receives each line without its trailing newline.
type LineFunc func(line string) error

// Tail emits the last opts.Lines lines of path, then follows the file until
// ctx is done when opts.Follow is set. A missing file is not an error in
// follow mode; the follower waits for it to appear.
func Tail(ctx context.Context, path string, opts Options, emit LineFunc) error {
	if emit == nil {
		return errors.New("logs: line callback is required")
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if !opts.Follow {
			return fmt.Errorf("log file %s does not exist", path)
		}
		info = nil
	case err != nil:
		return fmt.Errorf("stat log file: %w", err)
	case info.IsDir():
		return fmt.Errorf("log path %q is a directory", path)
	}

	var offset int64
	if info != nil {
		lines, end, err := readLastLines(path, opts.Lines)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if err := emit(line); err != nil {
				return err
			}
		}
		offset = end
	}
	if !opts.Follow {
		return nil
	}
	return follow(ctx, path, info, offset, opts.Poll, emit)
}

// LastLines returns up to limit trailing lines of path.
func LastLines(path string, limit int) ([]string, error) {
	lines, _, err := readLastLines(path, limit)
	return lines, err
}

func readLastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := completeLinesEnd(file)
		return nil, end, err
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	ring := make([]string, limit)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	end, err := completeLinesEnd(file)
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	if info, err := file.Stat(); err == nil && end < info.Size() && count > 0 {
		// The unterminated last line is emitted once complete.
		lines = lines[:count-1]
	}
	return lines, end, nil
}

// completeLinesEnd returns the offset just past the last newline, so a line
// still being written is picked up whole by the follower.
func completeLinesEnd(file *os.File) (int64, error) {
	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat log file: %w", err)
	}
	size := info.Size()
	if size == 0 {
		return 0, nil
	}
	buf := make([]byte, 1)
	if _, err := file.ReadAt(buf, size-1); err != nil {
		return 0, fmt.Errorf("read log file: %w", err)
	}
	if buf[0] == '\n' {
		return size, nil
	}
	// Walk back to the previous newline in bounded chunks.
	const chunk = 4096
	end := size - 1
	for end > 0 {
		start := max(end-chunk, 0)
		block := make([]byte, end-start)
		if _, err := file.ReadAt(block, start); err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("read log file: %w", err)
		}
		if i := bytes.LastIndexByte(block, '\n'); i >= 0 {
			return start + int64(i) + 1, nil
		}
		end = start
	}
	return 0, nil
}

func follow(ctx context.Context, path string, current os.FileInfo, offset int64, poll time.Duration, emit LineFunc) error {
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			current, offset = nil, 0
		case err != nil:
			return fmt.Errorf("stat log file: %w", err)
		default:
			if current == nil || !os.SameFile(current, info) || info.Size() < offset {
				offset = 0
			}
			current = info
			if info.Size() > offset {
				next, err := readForward(path, offset, emit)
				if err != nil {
					return err
				}
				offset = next
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// readForward emits the complete lines after offset and returns the offset
// following the last newline consumed.
func readForward(path string, offset int64, emit LineFunc) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && line[len(line)-1] == '\n' {
			offset += int64(len(line))
			if emitErr := emit(string(bytes.TrimRight(line, "\r\n"))); emitErr != nil {
				return offset, emitErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, nil
			}
			return offset, fmt.Errorf("read log file: %w", err)
		}
		if len(line) > maxLineBytes {
			return offset, fmt.Errorf("read log file: line exceeds %d bytes", maxLineBytes)
		}
	}
}
