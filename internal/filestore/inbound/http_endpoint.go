package inbound

import (
	"github.com/shandysiswandi/mlsgate/internal/filestore/usecase"
	"github.com/shandysiswandi/mlsgate/internal/pkg/router"
)

// HTTPEndpoint exposes the classified file operations.
type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Create(r *router.Request) (any, error) {
	var req CreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	f, err := h.uc.Create(r.Context(), usecase.CreateInput{Name: req.Name})
	if err != nil {
		return nil, err
	}

	return CreateResponse{FileResponse: toFileResponse(*f)}, nil
}

func (h *HTTPEndpoint) Read(r *router.Request) (any, error) {
	out, err := h.uc.Read(r.Context(), usecase.ReadInput{Name: r.GetParam("name")})
	if err != nil {
		return nil, err
	}

	return ReadResponse{FileResponse: toFileResponse(out.File), Content: out.Content}, nil
}

func (h *HTTPEndpoint) Append(r *router.Request) (any, error) {
	var req TextRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	name := r.GetParam("name")
	if err := h.uc.Append(r.Context(), usecase.WriteInput{Name: name, Text: req.Text}); err != nil {
		return nil, err
	}

	return WriteResponse{msg: "Appended to '" + name + "' successfully"}, nil
}

func (h *HTTPEndpoint) Write(r *router.Request) (any, error) {
	var req TextRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	name := r.GetParam("name")
	if err := h.uc.Write(r.Context(), usecase.WriteInput{Name: name, Text: req.Text}); err != nil {
		return nil, err
	}

	return WriteResponse{msg: "Wrote to '" + name + "' successfully"}, nil
}

func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	items, err := h.uc.List(r.Context())
	if err != nil {
		return nil, err
	}

	out := make(ListResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ListEntry{FileResponse: toFileResponse(it.File), CanRead: it.CanRead, CanWrite: it.CanWrite})
	}

	return out, nil
}
