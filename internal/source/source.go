// Package source obtains the executable bytes a run will execute from
// memory: local files, standard input, HTTP endpoints or OCI images.
// Every source returns the same artifact shape so the rest of the system
// never cares where the bytes came from.
package source

import (
	"context"

	"github.com/slok/memrun/internal/model"
)

// Source produces the executable bytes of a program. Implementations
// never write the bytes to disk.
type Source interface {
	Fetch(ctx context.Context) (*model.Artifact, error)
}
