package model

import (
	"time"

	"github.com/google/uuid"
)

// Usuario is the credential record backing the local identity provider.
// DisplayName and PhotoURL are the mutable profile attributes exposed to the
// app; everything auxiliar (DNI, dirección, etc.) lives in the local
// preference store, never here.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	DisplayName  string
	PhotoURL     string
	// Single-use password reset token, cleared on redemption
	ResetToken     *string `gorm:"index"`
	ResetExpiresAt *time.Time
	LastLoginAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
