package artifact

import (
	"errors"
	"strings"
	"time"

	"goaliegen/internal/domain/catalog"
)

// Domain errors.
var (
	ErrEmptyPayload    = errors.New("artifact payload is empty")
	ErrBadExtension    = errors.New("artifact file name has the wrong extension")
	ErrEmptyArtifactID = errors.New("artifact id is required")
	ErrMissingArtifact = errors.New("no artifact has been generated")
)

// Artifact is a generated document held in memory until it is downloaded.
type Artifact struct {
	ID          string
	Kind        catalog.Kind
	Format      catalog.Format
	FileName    string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// Validate checks the artifact can be offered for download.
// PRE: none
// POST: returns error if the ID or payload is empty or the extension does not match Format
func (a Artifact) Validate() error {
	if a.ID == "" {
		return ErrEmptyArtifactID
	}
	if len(a.Data) == 0 {
		return ErrEmptyPayload
	}
	if !strings.HasSuffix(a.FileName, a.Format.Extension()) {
		return ErrBadExtension
	}
	return nil
}

// Size returns the payload size in bytes.
func (a Artifact) Size() int {
	return len(a.Data)
}
