// Package bulk plans bounded bulk operations over objective ids. Planning
// is pure: it maps a requested operation onto the concrete field updates to
// apply, or rejects the request. Tenant scoping of the eventual write is
// the caller's responsibility.
package bulk

import (
	"fmt"

	"github.com/brandpulse/okrops/internal/model"
)

// MaxSelectionSize caps every bulk operation regardless of type.
const MaxSelectionSize = 50

// Operation is the closed set of bulk actions.
type Operation string

const (
	OpArchive        Operation = "archive"
	OpActivate       Operation = "activate"
	OpPause          Operation = "pause"
	OpDelete         Operation = "delete"
	OpUpdatePriority Operation = "update_priority"
)

func (op Operation) Valid() bool {
	switch op {
	case OpArchive, OpActivate, OpPause, OpDelete, OpUpdatePriority:
		return true
	}
	return false
}

// Updates holds optional extra field changes submitted with the operation.
type Updates struct {
	Priority *int
	Category *string
	Status   *string
}

// Plan is the concrete mutation to apply to every targeted id.
type Plan struct {
	IDs      []string `json:"ids"`
	Status   *string  `json:"status,omitempty"`
	Priority *int     `json:"priority,omitempty"`
	Category *string  `json:"category,omitempty"`
}

type SizeExceededError struct {
	Requested int
	Max       int
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("bulk selection of %d objectives exceeds the maximum of %d", e.Requested, e.Max)
}

type EmptySelectionError struct{}

func (e *EmptySelectionError) Error() string {
	return "bulk selection is empty"
}

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("bulk operation requires field %q", e.Field)
}

type UnknownOperationError struct {
	Operation Operation
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown bulk operation %q", e.Operation)
}

// PlanOperation validates the selection and expands the operation into the
// update payload. Ids are deduplicated first; the dedup result is what the
// size cap applies to. Extra updates are merged in, with the mapped status
// mutation winning over a conflicting status in the extras.
func PlanOperation(ids []string, op Operation, extra Updates) (Plan, error) {
	unique := dedupe(ids)

	if len(unique) == 0 {
		return Plan{}, &EmptySelectionError{}
	}
	if len(unique) > MaxSelectionSize {
		return Plan{}, &SizeExceededError{Requested: len(unique), Max: MaxSelectionSize}
	}

	plan := Plan{
		IDs:      unique,
		Priority: extra.Priority,
		Category: extra.Category,
		Status:   extra.Status,
	}

	switch op {
	case OpArchive, OpDelete:
		// Delete is a soft archive, never a physical removal.
		plan.Status = ptr(model.ObjectiveStatusArchived)
	case OpActivate:
		plan.Status = ptr(model.ObjectiveStatusActive)
	case OpPause:
		plan.Status = ptr(model.ObjectiveStatusPaused)
	case OpUpdatePriority:
		if extra.Priority == nil {
			return Plan{}, &MissingFieldError{Field: "priority"}
		}
	default:
		return Plan{}, &UnknownOperationError{Operation: op}
	}

	return plan, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return unique
}

func ptr[T any](v T) *T {
	return &v
}
