package epw

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// LoadState tracks how much of the source has been parsed. It only moves forward.
type LoadState int

const (
	Unloaded LoadState = iota
	HeaderLoaded
	DataLoaded
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case HeaderLoaded:
		return "header loaded"
	case DataLoaded:
		return "data loaded"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

const maxLineBytes = 1 << 20

func (f *File) openSource() (io.ReadCloser, error) {
	if f.data != nil {
		return io.NopCloser(bytes.NewReader(f.data)), nil
	}
	r, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, f.path)
		}
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	return r, nil
}

// scanLines calls fn with each non-blank line and its 1-based line number
// until fn returns false.
func scanLines(r io.Reader, fn func(lineNo int, line string) bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !fn(lineNo, line) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return formatErrorf(lineNo+1, "read: %v", err)
	}
	return nil
}

// ensureHeader parses the eight header lines once. A failure is kept and
// returned on every later call.
func (f *File) ensureHeader() error {
	if f.state >= HeaderLoaded {
		return nil
	}
	if f.err != nil {
		return f.err
	}

	r, err := f.openSource()
	if err != nil {
		f.err = err
		return err
	}
	defer r.Close()

	lines := make([]string, 0, HeaderLineCount)
	first := 0
	err = scanLines(r, func(lineNo int, line string) bool {
		if first == 0 {
			first = lineNo
		}
		lines = append(lines, line)
		return len(lines) < HeaderLineCount
	})
	if err == nil {
		f.header, err = parseHeader(lines, max(first, 1))
	}
	if err != nil {
		f.err = err
		return err
	}
	f.state = HeaderLoaded
	return nil
}

// ensureData parses the hourly rows once, loading the header first if needed.
func (f *File) ensureData() error {
	if err := f.ensureHeader(); err != nil {
		return err
	}
	if f.state >= DataLoaded {
		return nil
	}
	if f.err != nil {
		return f.err
	}

	r, err := f.openSource()
	if err != nil {
		f.err = err
		return err
	}
	defer r.Close()

	var (
		rows    []string
		lineNos []int
		seen    int
	)
	err = scanLines(r, func(lineNo int, line string) bool {
		seen++
		if seen <= HeaderLineCount {
			return true
		}
		rows = append(rows, line)
		lineNos = append(lineNos, lineNo)
		return true
	})
	if err == nil {
		f.table, err = parseTable(rows, lineNos)
	}
	if err != nil {
		f.err = err
		return err
	}
	f.state = DataLoaded
	return nil
}
