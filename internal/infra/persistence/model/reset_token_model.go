package model

import (
	"time"

	"github.com/google/uuid"
)

// ResetTokenModel mirrors the 'reset_tokens' table. The token column carries the
// uniqueness constraint that backstops secret generation collisions.
type ResetTokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"type:varchar(255);unique;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Consumed  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (ResetTokenModel) TableName() string {
	return "reset_tokens"
}
