package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// LocalOptions configures the filesystem driver.
type LocalOptions struct {
	// Root is the directory objects are stored under. Created if missing.
	Root string
	// Fs overrides the filesystem; tests pass afero.NewMemMapFs().
	Fs afero.Fs
}

// LocalAdapter implements Storage on a directory tree.
//
// Writes go to a temporary file that is synced and renamed over the target,
// so readers never see a partially written object.
type LocalAdapter struct {
	fs afero.Fs
}

// NewLocal returns a filesystem-backed storage rooted at opts.Root.
func NewLocal(opts LocalOptions) (*LocalAdapter, error) {
	base := opts.Fs
	if base == nil {
		if strings.TrimSpace(opts.Root) == "" {
			return nil, errors.New("storage: local root is required")
		}
		if err := os.MkdirAll(opts.Root, 0o700); err != nil {
			return nil, fmt.Errorf("storage: create root: %w", err)
		}
		base = afero.NewBasePathFs(afero.NewOsFs(), opts.Root)
	}

	return &LocalAdapter{fs: base}, nil
}

func cleanKey(key string) (string, error) {
	p := path.Clean("/" + key)
	if p == "/" || strings.Contains(key, "\\") {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}

	return filepath.FromSlash(p), nil
}

func (l *LocalAdapter) PutObject(ctx context.Context, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	name, err := cleanKey(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	dir := filepath.Dir(name)
	if err := l.fs.MkdirAll(dir, 0o700); err != nil {
		return ObjectInfo{}, err
	}

	tmp, err := afero.TempFile(l.fs, dir, ".put-*")
	if err != nil {
		return ObjectInfo{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = l.fs.Remove(tmp.Name())
		}
	}()

	sum := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, sum), r)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := tmp.Sync(); err != nil {
		return ObjectInfo{}, err
	}
	if err := tmp.Close(); err != nil {
		return ObjectInfo{}, err
	}
	if err := l.fs.Rename(tmp.Name(), name); err != nil {
		return ObjectInfo{}, err
	}
	committed = true

	st, err := l.fs.Stat(name)
	if err != nil {
		return ObjectInfo{}, err
	}

	return ObjectInfo{
		Key:         key,
		Size:        n,
		ETag:        hex.EncodeToString(sum.Sum(nil)),
		ContentType: contentType(key, opts.ContentType),
		Metadata:    opts.Metadata,
		UpdatedAt:   st.ModTime(),
	}, nil
}

func (l *LocalAdapter) GetObject(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := l.StatObject(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	name, _ := cleanKey(key)
	f, err := l.fs.Open(name)
	if err != nil {
		return nil, ObjectInfo{}, mapLocalErr(err)
	}

	return f, info, nil
}

func (l *LocalAdapter) StatObject(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	name, err := cleanKey(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	st, err := l.fs.Stat(name)
	if err != nil {
		return ObjectInfo{}, mapLocalErr(err)
	}
	if st.IsDir() {
		return ObjectInfo{}, ErrObjectNotFound
	}

	return ObjectInfo{
		Key:         key,
		Size:        st.Size(),
		ContentType: contentType(key, ""),
		UpdatedAt:   st.ModTime(),
	}, nil
}

func (l *LocalAdapter) DeleteObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := cleanKey(key)
	if err != nil {
		return err
	}

	if err := l.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func (l *LocalAdapter) Close() error { return nil }

func mapLocalErr(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrObjectNotFound
	}

	return err
}

func contentType(key, given string) string {
	if given != "" {
		return given
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}

	return "text/plain; charset=utf-8"
}
