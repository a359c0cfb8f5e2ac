package entity

import (
	"time"

	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
)

// File is a catalog entry. Its contents live in object storage.
type File struct {
	Name           string
	Owner          string
	Classification blp.Level
	CreatedAt      time.Time
}

// ObjectKey is where the contents of the file named name are stored.
func ObjectKey(name string) string {
	return "files/" + name
}
