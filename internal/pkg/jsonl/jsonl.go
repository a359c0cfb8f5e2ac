// Package jsonl keeps small record sets as one JSON object per line on an
// afero filesystem.
//
// Appends are fsynced before they return. Rewrite goes through a temp file
// and a rename so readers never observe a half-written file. Decoding is
// strict: unknown fields and trailing data are errors, and callers are
// expected to refuse the whole file when any line fails.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrTrailingData reports a line holding more than one JSON value.
var ErrTrailingData = errors.New("jsonl: trailing data after record")

// LineError locates a line that failed to decode.
type LineError struct {
	Path string
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("jsonl: %s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Decode strictly decodes one line into v.
func Decode(line []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}

	return nil
}

// Scan calls fn for every non-blank line in path. A missing file is empty.
// The first error stops the scan and is returned as a *LineError.
func Scan(fs afero.Fs, path string, fn func(line []byte) error) error {
	f, err := fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return &LineError{Path: path, Line: n, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return &LineError{Path: path, Line: n + 1, Err: err}
	}

	return nil
}

// Append writes v as one line at the end of path and syncs it.
func Append(fs afero.Fs, path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}

	if _, err := f.Write(append(b, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// Rewrite replaces path with one line per element of vs.
func Rewrite[T any](fs afero.Fs, path string, vs []T) error {
	var buf bytes.Buffer
	for _, v := range vs {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fs, dir, ".jsonl-*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(name)
		return err
	}

	return fs.Rename(name, path)
}
