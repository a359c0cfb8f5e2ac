// Package catalog keeps the file catalog in a JSON-lines file.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shandysiswandi/mlsgate/internal/filestore/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"github.com/shandysiswandi/mlsgate/internal/pkg/jsonl"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const version = 1

// ErrMalformed is returned by Open when a line is not a valid entry.
var ErrMalformed = errors.New("catalog: malformed entry")

type line struct {
	V              int       `json:"v"`
	Name           string    `json:"name"`
	Owner          string    `json:"owner"`
	Classification int       `json:"classification"`
	CreatedAt      time.Time `json:"created_at"`
}

type Catalog struct {
	fs   afero.Fs
	path string
	ins  instrument.Instrumentation

	mu    sync.RWMutex
	files map[string]entity.File
}

func Open(fs afero.Fs, path string, ins instrument.Instrumentation) (*Catalog, error) {
	c := &Catalog{fs: fs, path: path, ins: ins, files: map[string]entity.File{}}

	err := jsonl.Scan(fs, path, func(b []byte) error {
		var l line
		if err := jsonl.Decode(b, &l); err != nil {
			return errors.Join(ErrMalformed, err)
		}

		switch {
		case l.V != version:
			return fmt.Errorf("%w: version %d", ErrMalformed, l.V)
		case l.Name == "" || l.Owner == "":
			return fmt.Errorf("%w: empty name or owner", ErrMalformed)
		}
		lvl, err := blp.ParseLevel(l.Classification)
		if err != nil {
			return errors.Join(ErrMalformed, err)
		}
		if _, dup := c.files[l.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q", ErrMalformed, l.Name)
		}

		c.files[l.Name] = entity.File{Name: l.Name, Owner: l.Owner, Classification: lvl, CreatedAt: l.CreatedAt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func toLine(f entity.File) line {
	return line{
		V:              version,
		Name:           f.Name,
		Owner:          f.Owner,
		Classification: int(f.Classification),
		CreatedAt:      f.CreatedAt.UTC(),
	}
}

func (c *Catalog) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("filestore.outbound.catalog").Start(ctx, name)
}

func recordErr(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Catalog) CreateFile(ctx context.Context, f entity.File) error {
	_, span := c.startSpan(ctx, "CreateFile")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.files[f.Name]; ok {
		return goerror.ErrConflict
	}
	if err := jsonl.Append(c.fs, c.path, toLine(f)); err != nil {
		return recordErr(span, err)
	}
	c.files[f.Name] = f

	return nil
}

func (c *Catalog) GetFile(ctx context.Context, name string) (*entity.File, error) {
	_, span := c.startSpan(ctx, "GetFile")
	defer span.End()

	c.mu.RLock()
	f, ok := c.files[name]
	c.mu.RUnlock()
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &f, nil
}

func (c *Catalog) ListFiles(ctx context.Context) ([]entity.File, error) {
	_, span := c.startSpan(ctx, "ListFiles")
	defer span.End()

	c.mu.RLock()
	files := slices.Collect(maps.Values(c.files))
	c.mu.RUnlock()

	slices.SortFunc(files, func(a, b entity.File) int { return strings.Compare(a.Name, b.Name) })

	return files, nil
}

// DeleteFile rewrites the whole file without name.
func (c *Catalog) DeleteFile(ctx context.Context, name string) error {
	_, span := c.startSpan(ctx, "DeleteFile")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.files[name]; !ok {
		return nil
	}

	rest := make([]line, 0, len(c.files)-1)
	for _, f := range c.files {
		if f.Name != name {
			rest = append(rest, toLine(f))
		}
	}
	slices.SortFunc(rest, func(a, b line) int { return strings.Compare(a.Name, b.Name) })

	if err := jsonl.Rewrite(c.fs, c.path, rest); err != nil {
		return recordErr(span, err)
	}
	delete(c.files, name)

	return nil
}
