package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const pollInterval = 250 * time.Millisecond

// Field restricts output to lines carrying key with value.
type Field struct {
	Key   string
	Value string
}

// Matches reports whether line carries the field in console (key=value) or
// JSON ("key":"value") form.
func (f Field) Matches(line string) bool {
	if f.Key == "" {
		return true
	}
	console := f.Key + "=" + f.Value
	for rest := line; ; {
		i := strings.Index(rest, console)
		if i < 0 {
			break
		}
		end := i + len(console)
		if end == len(rest) || rest[end] == ' ' {
			return true
		}
		rest = rest[end:]
	}
	return strings.Contains(line, fmt.Sprintf("%q:%q", f.Key, f.Value))
}

// TailOptions controls Tail.
type TailOptions struct {
	// Offset is the byte offset to resume from; negative reads the last
	// Limit matching lines of the file.
	Offset int64
	Limit  int
	Fields []Field
	// Follow waits up to Wait for new lines when none are available.
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

func (o TailOptions) matches(line string) bool {
	for _, f := range o.Fields {
		if !f.Matches(line) {
			return false
		}
	}
	return true
}

// Tail reads matching lines from the log file at path. A missing file yields
// no lines and offset zero.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	offset := opts.Offset
	var lines []string
	if offset < 0 {
		lines, offset, err = readFrom(path, 0, opts)
		if err != nil {
			return TailResult{}, err
		}
		if opts.Limit > 0 && len(lines) > opts.Limit {
			lines = lines[len(lines)-opts.Limit:]
		}
	} else {
		if offset > info.Size() {
			// The file was rotated; start over on the fresh one.
			offset = 0
		}
		lines, offset, err = readFrom(path, offset, opts)
		if err != nil {
			return TailResult{Offset: opts.Offset}, err
		}
	}

	if len(lines) > 0 || !opts.Follow || opts.Wait <= 0 {
		return TailResult{Lines: lines, Offset: offset}, nil
	}
	return follow(ctx, path, offset, opts)
}

func readFrom(path string, offset int64, opts TailOptions) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReader(file)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// A partial last line is left for the next read.
			break
		}
		if err != nil {
			return nil, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		line = strings.TrimRight(line, "\r\n")
		if opts.matches(line) {
			lines = append(lines, line)
		}
	}
	return lines, offset, nil
}

func follow(ctx context.Context, path string, offset int64, opts TailOptions) (TailResult, error) {
	deadline := time.Now().Add(opts.Wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
		lines, next, err := readFrom(path, offset, opts)
		if err != nil {
			return TailResult{Offset: offset}, err
		}
		offset = next
		if len(lines) > 0 || time.Now().After(deadline) {
			return TailResult{Lines: lines, Offset: offset}, nil
		}
	}
}
