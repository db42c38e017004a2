// Package archive keeps the raw samples of each session as a flat file, one
// integer sample per line, so sessions can be replayed through the engine.
package archive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const fileTimeLayout = "20060102T150405Z"

var ErrEmptyPath = errors.New("archive path is empty")

type Store struct {
	fs  afero.Fs
	dir string
}

func New(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// FileName returns the archive name for a session of deviceID started at start.
func FileName(deviceID string, start time.Time) string {
	return sanitize(deviceID) + "_" + start.UTC().Format(fileTimeLayout) + ".csv"
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}

// Create makes an empty archive file for a new session and returns its path.
func (s *Store) Create(deviceID string, start time.Time) (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir %q: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, FileName(deviceID, start))
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create archive %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close archive %q: %w", path, err)
	}
	return path, nil
}

// Append writes samples to the end of the archive at path.
func (s *Store) Append(path string, samples []int) error {
	if path == "" {
		return ErrEmptyPath
	}
	f, err := s.fs.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open archive %q: %w", path, err)
	}

	w := bufio.NewWriter(f)
	buf := make([]byte, 0, 12)
	for _, v := range samples {
		buf = strconv.AppendInt(buf[:0], int64(v), 10)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			_ = f.Close()
			return fmt.Errorf("write archive %q: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush archive %q: %w", path, err)
	}
	return f.Close()
}

// Open returns a reader over the archive at path.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %q: %w", path, err)
	}
	return f, nil
}

// ReadSamples parses an archive stream. Blank lines are skipped; a leading
// non-numeric header line is tolerated so hand-made CSV exports replay too.
func ReadSamples(r io.Reader) ([]int, error) {
	sc := bufio.NewScanner(r)
	out := make([]int, 0, 4096)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if i := strings.IndexByte(text, ','); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
		v, err := strconv.Atoi(text)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
