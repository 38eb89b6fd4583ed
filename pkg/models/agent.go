package models

import (
	"time"

	"github.com/google/uuid"
)

// Agent is a real-estate agent tracked by a user. Name is unique per user.
type Agent struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	UserID    uuid.UUID `db:"user_id"    json:"user_id"`
	Name      string    `db:"name"       json:"name"`
	Location  string    `db:"location"   json:"location"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
