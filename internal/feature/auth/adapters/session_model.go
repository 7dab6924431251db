package adapters

import "time"

// SessionModel is the GORM model for the sessions table.
type SessionModel struct {
	Token     string    `gorm:"primaryKey;size:64"`
	Email     string    `gorm:"index;size:255;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}
