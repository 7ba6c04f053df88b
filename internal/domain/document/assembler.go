package document

import (
	"context"
	"errors"

	"goaliegen/internal/domain/artifact"
)

// ErrGenerationFailed wraps any failure of a document library while building an artifact.
var ErrGenerationFailed = errors.New("document generation failed")

// GenerationFailedMessage is the only text a user sees when assembly fails.
const GenerationFailedMessage = "There was an error generating the document. Please try again."

// Assembler turns a validated request into a downloadable artifact.
// PRE: req was produced by Validate with no problems
// POST: returns exactly one valid artifact, or an error wrapping ErrGenerationFailed and no artifact
type Assembler interface {
	Assemble(ctx context.Context, req Request) (artifact.Artifact, error)
}
