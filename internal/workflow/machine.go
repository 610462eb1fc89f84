package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"brandpatrol/internal/models"
)

// State is a checkpoint in the reporting flow.
type State string

const (
	StateIdle              State = "idle"
	StateMenuOpened        State = "menu_opened"
	StateReportEntryFound  State = "report_entry_found"
	StateTypeSelected      State = "type_selected"
	StateReasonSelected    State = "reason_selected"
	StateDescriptionFilled State = "description_filled"
	StateEvidenceUploaded  State = "evidence_uploaded"
	StateSubmitted         State = "submitted"
	StateFailed            State = "failed"
)

// allowedTransitions is the forward chain plus Failed reachable from every
// non-terminal state.
var allowedTransitions = map[State]map[State]struct{}{
	StateIdle:              {StateMenuOpened: {}, StateFailed: {}},
	StateMenuOpened:        {StateReportEntryFound: {}, StateFailed: {}},
	StateReportEntryFound:  {StateTypeSelected: {}, StateFailed: {}},
	StateTypeSelected:      {StateReasonSelected: {}, StateFailed: {}},
	StateReasonSelected:    {StateDescriptionFilled: {}, StateFailed: {}},
	StateDescriptionFilled: {StateEvidenceUploaded: {}, StateFailed: {}},
	StateEvidenceUploaded:  {StateSubmitted: {}, StateFailed: {}},
	StateSubmitted:         {},
	StateFailed:            {},
}

// ValidateTransition rejects edges outside the workflow graph.
func ValidateTransition(from, to State) error {
	next, ok := allowedTransitions[from]
	if !ok {
		return fmt.Errorf("invalid workflow state: %q", from)
	}
	if _, ok := next[to]; !ok {
		return fmt.Errorf("invalid workflow transition: %s -> %s", from, to)
	}
	return nil
}

// Stage advances the machine to To by running its steps in order. An
// Optional stage that fails is skipped instead of failing the workflow
// (evidence upload is the canonical example: platforms without an upload
// affordance still accept the report).
type Stage struct {
	To       State
	Steps    []Step
	Optional bool
}

// Definition is one platform's reporting workflow: the app or URL to drive
// and the ordered stages from an open listing page to a submitted report.
// The machine itself is platform-agnostic.
type Definition struct {
	Platform  string
	AppTarget string

	// SearchSteps navigate from app launch to the listing search results.
	// The patrol loop runs them once per session, before any reporting.
	SearchSteps []Step

	Stages []Stage

	// Recover navigates back to a known-safe screen after a failure so the
	// next target can still be processed.
	Recover []Step
}

// RecordStore is the slice of the session ledger the machine needs: durable
// status transitions and evidence attachment, keyed by report id.
type RecordStore interface {
	UpdateStatus(id string, status models.ReportStatus, note string) error
	AttachEvidence(id, path string) error
}

// Machine sequences a Definition's stages through the step runner, owning
// recovery and the report record's status transitions.
type Machine struct {
	runner *Runner
	store  RecordStore
	log    *zap.Logger
}

// NewMachine creates a workflow machine.
func NewMachine(runner *Runner, store RecordStore, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{runner: runner, store: store, log: log.Named("workflow")}
}

// Execute drives the report flow for reportID, which must already exist in
// the store with status pending. On success the record becomes submitted; on
// any failure it becomes failed with a note naming the last attempted state,
// and the recover steps run so the device is left on a safe screen. A record
// is never left pending by a completed Execute call.
func (m *Machine) Execute(ctx context.Context, def Definition, reportID string) error {
	current := StateIdle

	for _, stage := range def.Stages {
		if err := ctx.Err(); err != nil {
			m.fail(ctx, def, reportID, current, "cancelled")
			return err
		}
		if err := ValidateTransition(current, stage.To); err != nil {
			m.fail(ctx, def, reportID, current, err.Error())
			return err
		}

		if err := m.runStage(ctx, stage); err != nil {
			if ctx.Err() != nil {
				m.fail(ctx, def, reportID, current, "cancelled")
				return ctx.Err()
			}
			if stage.Optional {
				m.log.Warn("optional stage skipped",
					zap.String("stage", string(stage.To)), zap.Error(err))
				current = stage.To
				continue
			}
			note := fmt.Sprintf("failed at %s: %v", current, err)
			m.fail(ctx, def, reportID, current, note)
			return err
		}

		current = stage.To
		m.log.Info("stage reached",
			zap.String("platform", def.Platform),
			zap.String("state", string(current)))
	}

	if current != StateSubmitted {
		note := fmt.Sprintf("workflow ended early at %s", current)
		m.fail(ctx, def, reportID, current, note)
		return fmt.Errorf("workflow for %s ended at %s, not submitted", def.Platform, current)
	}

	if err := m.store.UpdateStatus(reportID, models.StatusSubmitted, "report submitted in-app"); err != nil {
		return fmt.Errorf("record submitted status: %w", err)
	}
	return nil
}

// runStage runs each step, applying the step's encoded fallback descriptor
// set once before giving up. That is the whole of local recovery: the
// machine never replays earlier stages.
func (m *Machine) runStage(ctx context.Context, stage Stage) error {
	for _, step := range stage.Steps {
		err := m.runner.Run(ctx, step)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return err
		}
		if len(step.Fallback) > 0 {
			alt := step
			alt.Targets = step.Fallback
			alt.Fallback = nil
			m.log.Debug("trying fallback descriptors", zap.String("step", step.Name))
			if err = m.runner.Run(ctx, alt); err == nil {
				continue
			}
		}
		return err
	}
	return nil
}

// fail records the terminal failed status and navigates the device back so
// the next target is processable. Both are best-effort: a failure here must
// not mask the original error.
func (m *Machine) fail(ctx context.Context, def Definition, reportID string, last State, note string) {
	if err := m.store.UpdateStatus(reportID, models.StatusFailed, note); err != nil {
		m.log.Error("record failed status", zap.String("report", reportID), zap.Error(err))
	}
	for _, step := range def.Recover {
		if err := m.runner.Run(context.WithoutCancel(ctx), step); err != nil {
			m.log.Warn("recover step failed", zap.String("step", step.Name), zap.Error(err))
			return
		}
	}
}
