package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/mlsgate/internal/filestore/entity"
)

type FileResponse struct {
	Name           string    `json:"name"`
	Owner          string    `json:"owner"`
	Classification int       `json:"classification"`
	Label          string    `json:"classification_label"`
	CreatedAt      time.Time `json:"created_at"`
}

func toFileResponse(f entity.File) FileResponse {
	return FileResponse{
		Name:           f.Name,
		Owner:          f.Owner,
		Classification: int(f.Classification),
		Label:          f.Classification.String(),
		CreatedAt:      f.CreatedAt,
	}
}

type CreateRequest struct {
	Name string `json:"name"`
}

type CreateResponse struct {
	FileResponse
}

func (CreateResponse) StatusCode() int { return http.StatusCreated }

func (r CreateResponse) Message() string { return "File '" + r.Name + "' created successfully" }

type ReadResponse struct {
	FileResponse
	Content string `json:"content"`
}

type TextRequest struct {
	Text string `json:"text"`
}

type WriteResponse struct {
	msg string
}

func (r WriteResponse) StatusCode() int { return http.StatusOK }

func (r WriteResponse) Message() string { return r.msg }

type ListEntry struct {
	FileResponse
	CanRead  bool `json:"can_read"`
	CanWrite bool `json:"can_write"`
}

type ListResponse []ListEntry

func (l ListResponse) Meta() map[string]any { return map[string]any{"total": len(l)} }
