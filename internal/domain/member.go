package domain

import (
	"time"
)

// DefaultImageURL is used when a member signs up or edits without an image.
const DefaultImageURL = "/static/images/default-pic.png"

// Member represents a registered user of the application.
type Member struct {
	ID           string    `bson:"_id" db:"id" json:"id"`
	Username     string    `bson:"username" db:"username" json:"username"` // Unique
	FirstName    string    `bson:"firstName" db:"first_name" json:"firstName"`
	LastName     string    `bson:"lastName" db:"last_name" json:"lastName"`
	Email        string    `bson:"email" db:"email" json:"email"` // Unique
	ImageURL     string    `bson:"imageUrl" db:"image_url" json:"imageUrl"`
	Bio          *string   `bson:"bio,omitempty" db:"bio" json:"bio,omitempty"`
	Location     *string   `bson:"location,omitempty" db:"location" json:"location,omitempty"`
	PasswordHash string    `bson:"passwordHash" db:"password_hash" json:"-"` // Never expose this via JSON
	CreatedAt    time.Time `bson:"createdAt" db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" db:"updated_at" json:"updatedAt"`
}

// FullName joins first and last name.
func (m *Member) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}
