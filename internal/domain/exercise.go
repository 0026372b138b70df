package domain

import (
	"time"
)

// Exercise is a catalog entry cached locally. Rows are unique by Name and never change once stored.
type Exercise struct {
	ID           string    `bson:"_id" db:"id" json:"id"`
	Name         string    `bson:"name" db:"name" json:"name"`
	Type         string    `bson:"type" db:"type" json:"type"`
	Muscle       string    `bson:"muscle" db:"muscle" json:"muscle"`
	Equipment    string    `bson:"equipment" db:"equipment" json:"equipment"`
	Difficulty   string    `bson:"difficulty" db:"difficulty" json:"difficulty"`
	Instructions string    `bson:"instructions" db:"instructions" json:"instructions"`
	CreatedAt    time.Time `bson:"createdAt" db:"created_at" json:"createdAt"`
}

// RawExercise is a record as returned by the remote catalog.
// It is comparable, so exact duplicates inside one response can be detected with ==.
type RawExercise struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Muscle       string `json:"muscle"`
	Equipment    string `json:"equipment"`
	Difficulty   string `json:"difficulty"`
	Instructions string `json:"instructions"`
}

// ToExercise copies the catalog fields into an unsaved Exercise.
func (r RawExercise) ToExercise() *Exercise {
	return &Exercise{
		Name:         r.Name,
		Type:         r.Type,
		Muscle:       r.Muscle,
		Equipment:    r.Equipment,
		Difficulty:   r.Difficulty,
		Instructions: r.Instructions,
	}
}
