package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/mlsgate/internal/filestore/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/storage"
	"github.com/shandysiswandi/mlsgate/internal/pkg/validator"
)

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !validator.ValidFilename(name) {
		return "", goerror.NewInvalidInput(nil, "name", "must be 1-128 characters of letters, digits, spaces, '.', '_' or '-'")
	}

	return name, nil
}

func (s *Usecase) getFile(ctx context.Context, name string) (*entity.File, error) {
	f, err := s.repoCatalog.GetFile(ctx, name)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("file does not exist", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get file", "file", name, "error", err)
		return nil, goerror.NewServer(err)
	}

	return f, nil
}

// readObject returns the current contents. A catalog entry whose object is
// missing reads as empty. An object over the size limit is refused whole.
func (s *Usecase) readObject(ctx context.Context, name string) ([]byte, error) {
	rc, _, err := s.storage.GetObject(ctx, entity.ObjectKey(name))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get object", "file", name, "error", err)
		return nil, goerror.NewServer(err)
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, s.maxBytes()+1))
	if err != nil {
		slog.ErrorContext(ctx, "failed to read object", "file", name, "error", err)
		return nil, goerror.NewServer(err)
	}
	if int64(len(b)) > s.maxBytes() {
		slog.WarnContext(ctx, "object exceeds size limit", "file", name, "max_bytes", s.maxBytes())
		return nil, goerror.NewBusiness("file exceeds the size limit", goerror.CodeInvalidInput)
	}

	return b, nil
}

func (s *Usecase) writeObject(ctx context.Context, name string, b []byte) error {
	if int64(len(b)) > s.maxBytes() {
		return goerror.NewInvalidInput(nil, "text", "file would exceed the size limit")
	}

	_, err := s.storage.PutObject(ctx, entity.ObjectKey(name), bytes.NewReader(b), storage.PutOptions{
		Size:        int64(len(b)),
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to put object", "file", name, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
