// internal/errors/errors.go
package appErrors

import (
	"fmt"
	"strings"
)

// ErrCampaignNotFound is returned when a campaign_id is not in the store
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ValidationError rejects malformed or insufficient input. The store is
// left unchanged when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NewMissingFields reports several blank required fields at once.
func NewMissingFields(fields []string) error {
	return &ValidationError{Reason: "missing required fields: " + strings.Join(fields, ", ")}
}

type UnknownTemplateError struct {
	Kind  string
	Known []string
}

func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("unknown message template %q (known: %s)", e.Kind, strings.Join(e.Known, ", "))
}

// StoreCorruptionError means the persisted file could not be parsed. The
// store recovers by preserving the bad file under PreservedAs and starting
// from an empty schema-valid file.
type StoreCorruptionError struct {
	Path        string
	PreservedAs string
	Err         error
}

func (e *StoreCorruptionError) Error() string {
	return fmt.Sprintf("campaign store %s is corrupt (preserved as %s): %v", e.Path, e.PreservedAs, e.Err)
}

func (e *StoreCorruptionError) Unwrap() error { return e.Err }

// IOError wraps a failed filesystem operation on the store or its backups.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func NewIO(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}
