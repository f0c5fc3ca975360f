// Package saleflow models the progress of a sale through the order pipeline:
// received from a marketplace, processed in Odoo, stock deducted, and stock
// synced back out to every marketplace.
package saleflow

import (
	"errors"
	"fmt"
	"time"
)

// Step is one stage of the sale pipeline. Steps are ordered.
type Step string

const (
	StepOrderReceived      Step = "order_received"
	StepOdooProcessing     Step = "odoo_processing"
	StepStockDeducted      Step = "stock_deducted"
	StepMarketplacesSynced Step = "marketplaces_synced"
)

// Steps returns all steps in pipeline order
func Steps() []Step {
	return []Step{StepOrderReceived, StepOdooProcessing, StepStockDeducted, StepMarketplacesSynced}
}

// Index returns the position of the step in the pipeline, or -1 if unknown
func (s Step) Index() int {
	switch s {
	case StepOrderReceived:
		return 0
	case StepOdooProcessing:
		return 1
	case StepStockDeducted:
		return 2
	case StepMarketplacesSynced:
		return 3
	default:
		return -1
	}
}

// IsValid returns true if the step is known
func (s Step) IsValid() bool {
	return s.Index() >= 0
}

// StepStatus is the outcome of a step
type StepStatus string

const (
	StatusSuccess StepStatus = "success"
	StatusError   StepStatus = "error"
	StatusPending StepStatus = "pending"
)

// IsValid returns true if the status is known
func (s StepStatus) IsValid() bool {
	switch s {
	case StatusSuccess, StatusError, StatusPending:
		return true
	default:
		return false
	}
}

var (
	// ErrUnknownStep is returned for a step outside the pipeline
	ErrUnknownStep = errors.New("saleflow: unknown step")
	// ErrInvalidStatus is returned when recording a status other than success or error
	ErrInvalidStatus = errors.New("saleflow: step can only be recorded as success or error")
	// ErrStepOutOfOrder is returned when the previous step has not succeeded
	ErrStepOutOfOrder = errors.New("saleflow: previous step has not succeeded")
	// ErrStepAlreadyRecorded is returned when a step already has an outcome
	ErrStepAlreadyRecorded = errors.New("saleflow: step already recorded")
	// ErrNotRetryable is returned when retrying a step that has not failed
	ErrNotRetryable = errors.New("saleflow: only a failed step can be retried")
	// ErrFlowNotFound is returned when no flow is tracked for an order
	ErrFlowNotFound = errors.New("saleflow: flow not found")
	// ErrInconsistentFlow is returned when restoring a flow that breaks step ordering
	ErrInconsistentFlow = errors.New("saleflow: inconsistent step states")
)

// StepState is the recorded state of one step
type StepState struct {
	Step        Step
	Status      StepStatus
	Timestamp   *time.Time
	ErrorDetail string
	// Duration is the time since the previous step was recorded, if both are known
	Duration time.Duration
}

// Flow tracks one order through the pipeline.
// A step may only be recorded once the previous step has succeeded, so once a
// step fails every later step stays pending until the failed step is retried.
type Flow struct {
	OrderID string
	steps   [4]StepState
}

// NewFlow creates a flow with every step pending
func NewFlow(orderID string) *Flow {
	f := &Flow{OrderID: orderID}
	for i, s := range Steps() {
		f.steps[i] = StepState{Step: s, Status: StatusPending}
	}
	return f
}

// Restore rebuilds a flow from previously recorded states, rejecting any
// combination that could not have been produced by Record
func Restore(orderID string, states []StepState) (*Flow, error) {
	f := NewFlow(orderID)
	for _, st := range states {
		idx := st.Step.Index()
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStep, st.Step)
		}
		if !st.Status.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, st.Status)
		}
		f.steps[idx] = st
	}
	for i := 1; i < len(f.steps); i++ {
		if f.steps[i].Status != StatusPending && f.steps[i-1].Status != StatusSuccess {
			return nil, fmt.Errorf("%w: %s is %s while %s is %s", ErrInconsistentFlow,
				f.steps[i].Step, f.steps[i].Status, f.steps[i-1].Step, f.steps[i-1].Status)
		}
	}
	return f, nil
}

// Record sets the outcome of a step
func (f *Flow) Record(step Step, status StepStatus, at time.Time, detail string) error {
	idx := step.Index()
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	if status != StatusSuccess && status != StatusError {
		return ErrInvalidStatus
	}
	if idx > 0 && f.steps[idx-1].Status != StatusSuccess {
		return fmt.Errorf("%w: %s is %s", ErrStepOutOfOrder, f.steps[idx-1].Step, f.steps[idx-1].Status)
	}
	if f.steps[idx].Status != StatusPending {
		return fmt.Errorf("%w: %s", ErrStepAlreadyRecorded, step)
	}

	ts := at
	st := StepState{Step: step, Status: status, Timestamp: &ts}
	if status == StatusError {
		st.ErrorDetail = detail
	}
	if idx > 0 && f.steps[idx-1].Timestamp != nil {
		st.Duration = ts.Sub(*f.steps[idx-1].Timestamp)
	}
	f.steps[idx] = st
	return nil
}

// Retry returns a failed step to pending so it can be recorded again
func (f *Flow) Retry(step Step) error {
	idx := step.Index()
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	if f.steps[idx].Status != StatusError {
		return fmt.Errorf("%w: %s is %s", ErrNotRetryable, step, f.steps[idx].Status)
	}
	f.steps[idx] = StepState{Step: step, Status: StatusPending}
	return nil
}

// CurrentStep returns the first step that has not succeeded,
// or the last step when the whole flow has succeeded
func (f *Flow) CurrentStep() Step {
	for _, st := range f.steps {
		if st.Status != StatusSuccess {
			return st.Step
		}
	}
	return StepMarketplacesSynced
}

// IsHealthy returns true if no step has failed
func (f *Flow) IsHealthy() bool {
	for _, st := range f.steps {
		if st.Status == StatusError {
			return false
		}
	}
	return true
}

// IsComplete returns true when every step has succeeded
func (f *Flow) IsComplete() bool {
	return f.steps[len(f.steps)-1].Status == StatusSuccess
}

// State returns the state of one step
func (f *Flow) State(step Step) (StepState, bool) {
	idx := step.Index()
	if idx < 0 {
		return StepState{}, false
	}
	return f.steps[idx], true
}

// States returns a copy of all step states in pipeline order
func (f *Flow) States() []StepState {
	out := make([]StepState, len(f.steps))
	copy(out, f.steps[:])
	return out
}

// Clone returns an independent copy of the flow
func (f *Flow) Clone() *Flow {
	c := *f
	return &c
}
