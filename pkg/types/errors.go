package types

import (
	"errors"
	"fmt"
)

var (
	ErrParse             = errors.New("parse error")
	ErrMissingLevel      = errors.New("missing inheritance level")
	ErrMigrationConflict = errors.New("migration conflict")
	ErrBackupFailure     = errors.New("backup failure")
	ErrLocked            = errors.New("project is locked by another rebalance")
	ErrStaleSession      = errors.New("session marker changed since last read")
	ErrNoBuildstate      = errors.New("no buildstate documents found")
)

// ParseError reports a malformed document or configuration level. It is
// non-fatal for read-only components, which skip the source and warn.
type ParseError struct {
	Source string // file path or level name
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: %s", ErrParse.Error(), e.Source)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// MissingLevelError reports an inheritance level that was requested but not
// found. The level is treated as empty.
type MissingLevelError struct {
	Level string
	Path  string
}

func (e *MissingLevelError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrMissingLevel.Error(), e.Level)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrMissingLevel.Error(), e.Level, e.Path)
}

func (e *MissingLevelError) Unwrap() error { return ErrMissingLevel }

// MigrationConflictError means the target document already holds a
// different value under the item's name. It is never resolved automatically.
type MigrationConflictError struct {
	Item     string
	Target   Origin
	Location string
	Existing string
	Incoming string
}

func (e *MigrationConflictError) Error() string {
	return fmt.Sprintf("%s: %q already exists in the %s document at %q with different content",
		ErrMigrationConflict.Error(), e.Item, e.Target, e.Location)
}

func (e *MigrationConflictError) Unwrap() error { return ErrMigrationConflict }

// BackupFailureError aborts a migration step before any document is touched.
type BackupFailureError struct {
	Item string
	Path string
	Err  error
}

func (e *BackupFailureError) Error() string {
	return fmt.Sprintf("%s: item %q: %s: %v", ErrBackupFailure.Error(), e.Item, e.Path, e.Err)
}

func (e *BackupFailureError) Unwrap() []error { return []error{ErrBackupFailure, e.Err} }
