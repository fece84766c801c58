// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"time"
)

// User is an account that owns schedule entries. The core only ever reads
// its ID; registration and authentication live in the identity package.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreateTime   time.Time
}

// Entry represents a single time-bound schedule entry.
type Entry struct {
	ID          int64
	Title       string
	OwnerID     int64
	EndTime     time.Time
	AlertTime   time.Time
	IsConfirmed bool
	Note        string
	CreateTime  time.Time
}

// Validate checks the write-time invariants of an entry.
func (e *Entry) Validate() error {
	if e.OwnerID == 0 {
		return &ValidationError{Field: "owner_id", Reason: "owner is required"}
	}
	if e.EndTime.IsZero() {
		return &ValidationError{Field: "end_time", Reason: "end time is required"}
	}
	if e.AlertTime.IsZero() {
		return &ValidationError{Field: "alert_time", Reason: "alert time is required"}
	}
	if e.AlertTime.After(e.EndTime) {
		return &ValidationError{Field: "alert_time", Reason: "alert time cannot be after end time"}
	}
	return nil
}

// TimeRange is an inclusive [From, To] interval over entry end times.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls within the range, bounds included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// ValidationError reports a rejected create or update. Nothing is persisted
// when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
