package usecase

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/shandysiswandi/mlsgate/internal/filestore/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
)

type ListItem struct {
	File     entity.File
	CanRead  bool
	CanWrite bool
}

// List returns every catalog entry, sorted by name, with what the caller
// may do to each. Names and owners are visible at every level.
func (s *Usecase) List(ctx context.Context) ([]ListItem, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	sub, err := currentSubject(ctx)
	if err != nil {
		return nil, err
	}

	files, err := s.repoCatalog.ListFiles(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list files", "error", err)
		return nil, goerror.NewServer(err)
	}

	slices.SortFunc(files, func(a, b entity.File) int { return strings.Compare(a.Name, b.Name) })

	items := make([]ListItem, 0, len(files))
	for _, f := range files {
		items = append(items, ListItem{
			File:     f,
			CanRead:  blp.CanRead(sub.Clearance, f.Classification),
			CanWrite: blp.CanWrite(sub.Clearance, f.Classification),
		})
	}

	return items, nil
}
