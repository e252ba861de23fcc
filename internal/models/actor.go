package models

import "github.com/google/uuid"

// Actor is the authenticated identity a trail entry is attributed to.
// Role and department are snapshotted at write time so history survives
// later changes to the user record.
type Actor struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department string    `json:"department,omitempty"`
}

// Attributable reports whether the actor carries enough identity to be
// written into the audit trail. Entries without both id and email are
// skipped, never defaulted.
func (a Actor) Attributable() bool {
	return a.UserID != uuid.Nil && a.Email != ""
}
