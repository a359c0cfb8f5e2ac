package inbound

import (
	"context"

	"github.com/shandysiswandi/mlsgate/internal/filestore/entity"
	"github.com/shandysiswandi/mlsgate/internal/filestore/usecase"
	"github.com/shandysiswandi/mlsgate/internal/pkg/router"
)

type uc interface {
	Create(ctx context.Context, in usecase.CreateInput) (*entity.File, error)
	Read(ctx context.Context, in usecase.ReadInput) (*usecase.ReadOutput, error)
	Append(ctx context.Context, in usecase.WriteInput) error
	Write(ctx context.Context, in usecase.WriteInput) error
	List(ctx context.Context) ([]usecase.ListItem, error)
}

// RegisterHTTPEndpoint mounts the file routes. All of them need an
// authenticated subject; the identity module installs the authenticator.
func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/files", end.List)
	r.POST("/api/v1/files", end.Create)
	r.GET("/api/v1/files/:name", end.Read)
	r.PUT("/api/v1/files/:name", end.Write)
	r.POST("/api/v1/files/:name/append", end.Append)
}
