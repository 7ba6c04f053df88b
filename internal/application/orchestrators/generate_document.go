package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"goaliegen/internal/adapters/analytics"
	modalStore "goaliegen/internal/adapters/storage/modal"
	domainAnalytics "goaliegen/internal/domain/analytics"
	"goaliegen/internal/domain/artifact"
	"goaliegen/internal/domain/document"
	domainModal "goaliegen/internal/domain/modal"
	"goaliegen/internal/domain/validation"
)

// GenerateDocumentInput is one form submission.
type GenerateDocumentInput struct {
	ModalID string
	Inputs  document.Inputs
	// UploadProblems are the file checks already failed while reading the
	// multipart body; Inputs.Image is nil for a rejected upload.
	UploadProblems validation.Problems
}

// GenerateDocumentDeps holds dependencies for ExecuteGenerateDocument.
type GenerateDocumentDeps struct {
	Modals    modalStore.Store
	Assembler document.Assembler
	Recorder  domainAnalytics.Recorder
	Observer  Observer // optional
	Now       func() time.Time
}

// ExecuteGenerateDocument validates the submitted inputs and, when they are
// ready, assembles the document and attaches it to the modal.
//
// The modal is locked only while it changes state; assembly runs unlocked
// with the modal in generating, so a second submission of the same modal is
// refused with ErrInvalidTransition until the first one finishes.
//
// PRE: input.ModalID names an open modal in form_open
// POST: on validation problems the modal is back in form_open and the error
// matches validation.ErrNotReady; on assembly failure the modal is back in
// form_open with the generic notice and the error matches
// document.ErrGenerationFailed; otherwise the modal is generated and holds
// exactly one artifact
func ExecuteGenerateDocument(ctx context.Context, input GenerateDocumentInput, deps GenerateDocumentDeps) (domainModal.Modal, error) {
	var req document.Request
	m, err := deps.Modals.Update(ctx, input.ModalID, func(m *domainModal.Modal) error {
		now := deps.Now()
		if err := m.Submit(input.Inputs, now); err != nil {
			return err
		}
		r, problems := document.Validate(m.Kind, input.Inputs, now)
		problems = mergeProblems(input.UploadProblems, problems)
		if !problems.Ready() {
			return m.Reject(problems, now)
		}
		req = r
		return m.BeginGenerating(problems, now)
	})
	if err != nil {
		return domainModal.Modal{}, fmt.Errorf("submit modal: %w", err)
	}
	if m.State == domainModal.StateFormOpen {
		slog.Debug("document_inputs_rejected", "modal_id", m.ID, "kind", string(m.Kind.Kind), "problems", len(m.Problems))
		return m, m.Problems.Err()
	}

	kind := string(req.Kind.Kind)
	start := time.Now()
	art, err := deps.Assembler.Assemble(ctx, req)
	elapsed := time.Since(start)
	if err == nil {
		m, err = deps.Modals.Update(ctx, input.ModalID, func(m *domainModal.Modal) error {
			return m.Complete(art, deps.Now())
		})
		if errors.Is(err, modalStore.ErrNotFound) {
			// Closed while generating; the artifact is simply dropped.
			return domainModal.Modal{}, err
		}
	}
	if err != nil {
		slog.Error("document_generation_failed", "modal_id", input.ModalID, "kind", kind, "error", err)
		if deps.Observer != nil {
			deps.Observer.DocumentGenerated(kind, "error", elapsed, 0)
		}
		failed, uerr := deps.Modals.Update(ctx, input.ModalID, func(m *domainModal.Modal) error {
			return m.Fail(document.GenerationFailedMessage, deps.Now())
		})
		if !errors.Is(err, document.ErrGenerationFailed) {
			err = fmt.Errorf("%w: %w", document.ErrGenerationFailed, err)
		}
		if uerr != nil {
			return domainModal.Modal{}, errors.Join(err, uerr)
		}
		return failed, err
	}

	if deps.Observer != nil {
		deps.Observer.DocumentGenerated(kind, "ok", elapsed, art.Size())
	}
	name, params := generatedEvent(req)
	analytics.Track(ctx, deps.Recorder, name, params)
	slog.Info("document_generated",
		"modal_id", m.ID,
		"kind", kind,
		"file_name", art.FileName,
		"bytes", art.Size(),
		"duration_ms", elapsed.Milliseconds(),
	)
	return m, nil
}

// mergeProblems puts upload problems first and drops later problems for the
// same field, so a rejected file is not also reported as missing.
func mergeProblems(first, rest validation.Problems) validation.Problems {
	out := append(validation.Problems(nil), first...)
	for _, p := range rest {
		if !first.Has(p.Field) {
			out = append(out, p)
		}
	}
	return out
}

// DownloadArtifactInput identifies the modal whose artifact is fetched.
type DownloadArtifactInput struct {
	ModalID string
}

// DownloadArtifactDeps holds dependencies for ExecuteDownloadArtifact.
type DownloadArtifactDeps struct {
	Modals   modalStore.Store
	Recorder domainAnalytics.Recorder
	Observer Observer // optional
	Now      func() time.Time
}

// ExecuteDownloadArtifact hands over the generated artifact and discards the modal.
// PRE: the modal is in generated
// POST: the artifact is returned exactly once; the modal is reset and removed
func ExecuteDownloadArtifact(ctx context.Context, input DownloadArtifactInput, deps DownloadArtifactDeps) (artifact.Artifact, error) {
	var (
		art    artifact.Artifact
		inputs document.Inputs
	)
	m, err := deps.Modals.Update(ctx, input.ModalID, func(m *domainModal.Modal) error {
		inputs = m.Inputs
		a, err := m.TakeArtifact(deps.Now())
		art = a
		return err
	})
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("download artifact: %w", err)
	}
	if err := deps.Modals.Delete(ctx, m.ID); err != nil {
		slog.Warn("modal_delete_failed", "modal_id", m.ID, "error", err)
	}

	if deps.Observer != nil {
		deps.Observer.Downloaded(string(art.Kind))
	}
	name, params := downloadedEvent(art.Kind, inputs)
	analytics.Track(ctx, deps.Recorder, name, params)
	slog.Info("artifact_downloaded", "modal_id", m.ID, "file_name", art.FileName)
	return art, nil
}
