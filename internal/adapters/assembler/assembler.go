// Package assembler builds PDF and DOCX artifacts from validated document requests.
package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"goaliegen/internal/domain/artifact"
	"goaliegen/internal/domain/catalog"
	"goaliegen/internal/domain/document"
)

type writerFunc func(req document.Request, t Template, created time.Time) ([]byte, error)

// Assembler implements document.Assembler with gofpdf and godocx.
type Assembler struct {
	GenerateID func() string
	Now        func() time.Time
	writers    map[catalog.Kind]writerFunc
}

var _ document.Assembler = (*Assembler)(nil)

// New returns an Assembler using random IDs and the wall clock.
func New() *Assembler {
	return &Assembler{
		GenerateID: uuid.NewString,
		Now:        func() time.Time { return time.Now().UTC() },
		writers: map[catalog.Kind]writerFunc{
			catalog.KindDrill:           writeDrill,
			catalog.KindTeamPlan:        writeTeamPlan,
			catalog.KindJournal:         writeJournal,
			catalog.KindDevelopmentPlan: writeDevelopmentPlan,
		},
	}
}

// Assemble builds the artifact for req.
// PRE: req came from document.Validate with no problems
// POST: on error no artifact is returned and the error wraps document.ErrGenerationFailed
func (a *Assembler) Assemble(ctx context.Context, req document.Request) (art artifact.Artifact, err error) {
	if err := ctx.Err(); err != nil {
		return artifact.Artifact{}, fmt.Errorf("%w: %v", document.ErrGenerationFailed, err)
	}
	write, ok := a.writers[req.Kind.Kind]
	if !ok {
		return artifact.Artifact{}, fmt.Errorf("%w: %v %q", document.ErrGenerationFailed, catalog.ErrUnknownKind, req.Kind.Kind)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("document_writer_panic", "kind", req.Kind.Kind, "panic", fmt.Sprint(r))
			art = artifact.Artifact{}
			err = fmt.Errorf("%w: panic: %v", document.ErrGenerationFailed, r)
		}
	}()

	now := a.Now()
	start := time.Now()
	data, err := write(req, TemplateFor(req), now)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("%w: %s: %v", document.ErrGenerationFailed, req.Kind.Kind, err)
	}

	art = artifact.Artifact{
		ID:          a.GenerateID(),
		Kind:        req.Kind.Kind,
		Format:      req.Kind.Format,
		FileName:    req.FileName(),
		ContentType: req.Kind.Format.ContentType(),
		Data:        data,
		CreatedAt:   now,
	}
	if err := art.Validate(); err != nil {
		return artifact.Artifact{}, fmt.Errorf("%w: %v", document.ErrGenerationFailed, err)
	}
	slog.Debug("document_assembled", "kind", art.Kind, "file", art.FileName, "bytes", art.Size(), "duration_ms", time.Since(start).Milliseconds())
	return art, nil
}
