// Package modal models one document form from opening to download as an
// explicit state machine.
//
//	Idle -> FormOpen -> Validating -> FormOpen            (invalid input)
//	                              \-> Generating -> Generated -> Idle
//	                                            \-> FormOpen (generation failed)
//
// Close is allowed from every state and always lands in Idle.
package modal

import (
	"errors"
	"fmt"
	"time"

	"goaliegen/internal/domain/artifact"
	"goaliegen/internal/domain/catalog"
	"goaliegen/internal/domain/document"
	"goaliegen/internal/domain/validation"
)

// State is the lifecycle state of a modal.
type State string

const (
	StateIdle       State = "idle"
	StateFormOpen   State = "form_open"
	StateValidating State = "validating"
	StateGenerating State = "generating"
	StateGenerated  State = "generated"
)

// Domain errors.
var (
	ErrInvalidTransition = errors.New("invalid modal state transition")
	ErrNotReady          = errors.New("cannot generate from inputs with validation problems")
	ErrEmptyModalID      = errors.New("modal id is required")
)

var transitions = map[State][]State{
	StateIdle:       {StateFormOpen},
	StateFormOpen:   {StateValidating},
	StateValidating: {StateFormOpen, StateGenerating},
	StateGenerating: {StateGenerated, StateFormOpen},
	StateGenerated:  {StateIdle},
}

// CanTransition reports whether from -> to is a legal move.
// Moving to Idle is always legal (close).
func CanTransition(from, to State) bool {
	if to == StateIdle {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Modal is one open document form and what it has produced so far.
// INVARIANT: Artifact != nil iff State == StateGenerated.
type Modal struct {
	ID        string
	Kind      catalog.KindInfo
	State     State
	Inputs    document.Inputs
	Problems  validation.Problems
	Notice    string // generic failure message from the last generation attempt
	Artifact  *artifact.Artifact
	OpenedAt  time.Time
	UpdatedAt time.Time
}

// Open creates a modal for kind and moves it from Idle to FormOpen.
// PRE: id is non-empty
// POST: returned modal is in StateFormOpen with empty inputs
func Open(id string, kind catalog.KindInfo, now time.Time) (Modal, error) {
	if id == "" {
		return Modal{}, ErrEmptyModalID
	}
	m := Modal{ID: id, Kind: kind, State: StateIdle, OpenedAt: now}
	if err := m.transition(StateFormOpen, now); err != nil {
		return Modal{}, err
	}
	return m, nil
}

func (m *Modal) transition(to State, now time.Time) error {
	if !CanTransition(m.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.State, to)
	}
	m.State = to
	m.UpdatedAt = now
	return nil
}

// Submit records the inputs and starts validation.
// PRE: State == StateFormOpen
// POST: State == StateValidating; previous problems and notice cleared
func (m *Modal) Submit(in document.Inputs, now time.Time) error {
	if err := m.transition(StateValidating, now); err != nil {
		return err
	}
	m.Inputs = in
	m.Problems = nil
	m.Notice = ""
	return nil
}

// Reject returns the form to the user with the problems found.
// PRE: State == StateValidating; problems is non-empty
// POST: State == StateFormOpen
func (m *Modal) Reject(problems validation.Problems, now time.Time) error {
	if err := m.transition(StateFormOpen, now); err != nil {
		return err
	}
	m.Problems = problems
	return nil
}

// BeginGenerating moves a validated modal into generation.
// PRE: State == StateValidating; problems is empty
// POST: State == StateGenerating
func (m *Modal) BeginGenerating(problems validation.Problems, now time.Time) error {
	if !problems.Ready() {
		return ErrNotReady
	}
	return m.transition(StateGenerating, now)
}

// Complete attaches the generated artifact.
// PRE: State == StateGenerating; a passes artifact.Validate
// POST: State == StateGenerated; Artifact is set
func (m *Modal) Complete(a artifact.Artifact, now time.Time) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := m.transition(StateGenerated, now); err != nil {
		return err
	}
	m.Artifact = &a
	return nil
}

// Fail reports a generation failure and reopens the form.
// PRE: State == StateGenerating
// POST: State == StateFormOpen; Notice is set; no artifact
func (m *Modal) Fail(notice string, now time.Time) error {
	if err := m.transition(StateFormOpen, now); err != nil {
		return err
	}
	m.Notice = notice
	m.Artifact = nil
	return nil
}

// TakeArtifact hands over the artifact for download and returns the modal to Idle.
// PRE: State == StateGenerated
// POST: State == StateIdle; the modal no longer holds the artifact
func (m *Modal) TakeArtifact(now time.Time) (artifact.Artifact, error) {
	if m.State != StateGenerated || m.Artifact == nil {
		return artifact.Artifact{}, fmt.Errorf("%w: %s", artifact.ErrMissingArtifact, m.State)
	}
	a := *m.Artifact
	m.reset(now)
	return a, nil
}

// Close discards everything the modal holds.
// POST: State == StateIdle; inputs, problems and artifact cleared
func (m *Modal) Close(now time.Time) {
	m.reset(now)
}

func (m *Modal) reset(now time.Time) {
	m.State = StateIdle
	m.Inputs = document.Inputs{}
	m.Problems = nil
	m.Notice = ""
	m.Artifact = nil
	m.UpdatedAt = now
}

// Editable reports whether the form fields accept input.
func (m Modal) Editable() bool {
	return m.State == StateFormOpen
}
