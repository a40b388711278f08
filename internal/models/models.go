package models

import (
	"time"
)

const (
	RoleCommunity = "community"
	RoleGov       = "gov"
)

// Credential is owned by exactly one Community or GovUser through the owner's
// unique CredentialID. It is only ever created together with its owner.
type Credential struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	HashedPassword string    `gorm:"not null"                 json:"-"`
	CreatedAt      time.Time `gorm:"not null"                 json:"created_at"`
}

type Community struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	CredentialID uint      `gorm:"uniqueIndex;not null"     json:"-"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	MemberCount  uint      `gorm:"not null;default:0"       json:"member_count"`
	CreatedAt    time.Time `gorm:"not null"                 json:"created_at"`
}

type GovUser struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	CredentialID uint      `gorm:"uniqueIndex;not null"     json:"-"`
	Email        string    `json:"email,omitempty"`
	FullName     string    `json:"full_name,omitempty"`
	IsActive     bool      `gorm:"not null"                 json:"is_active"`
	CreatedAt    time.Time `gorm:"not null"                 json:"created_at"`
}

// RevokedToken stores the SHA-256 hex of a revoked access token until its own expiry.
type RevokedToken struct {
	ID        uint      `gorm:"primaryKey"              json:"id"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"token_hash"`
	RevokedAt time.Time `gorm:"not null"                json:"revoked_at"`
	ExpiresAt int64     `gorm:"index;not null"          json:"expires_at"`
}

func All() []any {
	return []any{&Credential{}, &Community{}, &GovUser{}, &RevokedToken{}}
}
