package domain

import (
	"time"
)

// DateLayout is the day-granularity format of WorkoutDate.
const DateLayout = "2006-01-02"

// Workout is one member's workout for one calendar day. (MemberID, WorkoutDate) is unique.
type Workout struct {
	ID          string    `bson:"_id" db:"id" json:"id"`
	MemberID    string    `bson:"memberId" db:"member_id" json:"memberId"`
	WorkoutDate string    `bson:"workoutDate" db:"workout_date" json:"workoutDate"`
	CreatedAt   time.Time `bson:"createdAt" db:"created_at" json:"createdAt"`
}

// WorkoutExercise associates an Exercise with a Workout.
// WorkoutDate is a snapshot of the workout's date taken when the row is written.
type WorkoutExercise struct {
	WorkoutID   string    `bson:"workoutId" db:"workout_id" json:"workoutId"`
	ExerciseID  string    `bson:"exerciseId" db:"exercise_id" json:"exerciseId"`
	WorkoutDate string    `bson:"workoutDate" db:"workout_date" json:"workoutDate"`
	AddedAt     time.Time `bson:"addedAt" db:"added_at" json:"addedAt"`
}

// WorkoutDetail is a workout together with its exercises in association order.
type WorkoutDetail struct {
	Workout
	Exercises []Exercise `json:"exercises"`
}

// DayOf formats t as a WorkoutDate in loc.
func DayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}
