package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/mail"

	"goaliegen/internal/adapters/email"
	modalStore "goaliegen/internal/adapters/storage/modal"
	"goaliegen/internal/domain/artifact"
	domainModal "goaliegen/internal/domain/modal"
)

// Email errors.
var (
	ErrEmailDisabled  = errors.New("email delivery is not configured")
	ErrInvalidAddress = errors.New("please enter a valid email address")
)

// EmailArtifactInput asks for a generated artifact to be mailed.
type EmailArtifactInput struct {
	ModalID string
	To      string
}

// EmailArtifactDeps holds dependencies for ExecuteEmailArtifact.
type EmailArtifactDeps struct {
	Modals modalStore.Store
	Sender email.Sender // nil disables delivery
}

// ExecuteEmailArtifact sends the modal's artifact as an attachment.
// The modal keeps its artifact so it can still be downloaded.
// PRE: the modal is in generated; input.To is a single address
// POST: the message is accepted by the sender; the modal is unchanged
func ExecuteEmailArtifact(ctx context.Context, input EmailArtifactInput, deps EmailArtifactDeps) (email.SendResult, error) {
	if deps.Sender == nil {
		return email.SendResult{}, ErrEmailDisabled
	}
	addr, err := mail.ParseAddress(input.To)
	if err != nil {
		return email.SendResult{}, ErrInvalidAddress
	}

	m, err := deps.Modals.Get(ctx, input.ModalID)
	if err != nil {
		return email.SendResult{}, fmt.Errorf("email artifact: %w", err)
	}
	if m.State != domainModal.StateGenerated || m.Artifact == nil {
		return email.SendResult{}, fmt.Errorf("email artifact: %w", artifact.ErrMissingArtifact)
	}
	a := *m.Artifact

	res, err := deps.Sender.Send(ctx, email.SendRequest{
		To:      []string{addr.Address},
		Subject: m.Kind.Title,
		HTML:    fmt.Sprintf("<p>Your document <strong>%s</strong> is attached.</p>", html.EscapeString(a.FileName)),
		Attachments: []email.Attachment{{
			FileName:    a.FileName,
			ContentType: a.ContentType,
			Data:        a.Data,
		}},
	})
	if err != nil {
		slog.Error("artifact_email_failed", "modal_id", m.ID, "error", err)
		return email.SendResult{}, fmt.Errorf("email artifact: %w", err)
	}
	slog.Info("artifact_emailed", "modal_id", m.ID, "file_name", a.FileName, "message_id", res.MessageID)
	return res, nil
}
