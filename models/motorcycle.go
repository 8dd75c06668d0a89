// File: /models/motorcycle.go
package models

import (
	"time"
)

// Motorcycle is the catalog entry a ride is recorded on. The catalog service owns
// this table; the telemetry service only reads it.
type Motorcycle struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	UserID    string    `json:"user_id" gorm:"not null;size:191;index"`
	Brand     string    `json:"brand" gorm:"not null;size:100"`
	Model     string    `json:"model" gorm:"not null;size:100"`
	Year      string    `json:"year" gorm:"not null;size:4"`
	Class     string    `json:"class" gorm:"size:50"` // sport, touring, naked, scooter...
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the brand and model as shown to riders.
func (m Motorcycle) DisplayName() string {
	return m.Brand + " " + m.Model
}
