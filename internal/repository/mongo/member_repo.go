package mongo

import (
	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const memberCollectionName = "members"

// mongoMemberRepository implements the repository.MemberRepository interface using MongoDB.
type mongoMemberRepository struct {
	members          *mongo.Collection
	workouts         *mongo.Collection
	workoutExercises *mongo.Collection
}

// NewMongoMemberRepository creates a new instance of mongoMemberRepository.
// It needs the workout collections too because deleting a member cascades to them.
func NewMongoMemberRepository(db *mongo.Database) repository.MemberRepository {
	return &mongoMemberRepository{
		members:          db.Collection(memberCollectionName),
		workouts:         db.Collection(workoutCollectionName),
		workoutExercises: db.Collection(workoutExerciseCollectionName),
	}
}

// Create inserts a new member into the database.
func (r *mongoMemberRepository) Create(ctx context.Context, member *domain.Member) error {
	if member.Username == "" || member.Email == "" || member.PasswordHash == "" {
		return errors.New("member username, email, and password hash are required")
	}
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now

	if _, err := r.members.InsertOne(ctx, member); err != nil {
		// Unique indexes on username and email reject duplicates at insert time
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %w", repository.ErrDuplicate, err)
		}
		return err
	}
	return nil
}

// GetByID retrieves a member by id.
func (r *mongoMemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByUsername retrieves a member by exact username.
func (r *mongoMemberRepository) GetByUsername(ctx context.Context, username string) (*domain.Member, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *mongoMemberRepository) findOne(ctx context.Context, filter bson.M) (*domain.Member, error) {
	var member domain.Member
	err := r.members.FindOne(ctx, filter).Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

// Update overwrites the mutable fields of an existing member.
func (r *mongoMemberRepository) Update(ctx context.Context, member *domain.Member) error {
	if member.ID == "" {
		return errors.New("member ID is required for update")
	}
	member.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"username":     member.Username,
		"firstName":    member.FirstName,
		"lastName":     member.LastName,
		"email":        member.Email,
		"imageUrl":     member.ImageURL,
		"passwordHash": member.PasswordHash,
		"updatedAt":    member.UpdatedAt,
	}
	unset := bson.M{}
	if member.Bio != nil {
		set["bio"] = *member.Bio
	} else {
		unset["bio"] = ""
	}
	if member.Location != nil {
		set["location"] = *member.Location
	} else {
		unset["location"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.members.UpdateOne(ctx, bson.M{"_id": member.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %w", repository.ErrDuplicate, err)
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the member with their workouts and workout links. Children go
// first: a partial failure leaves the member in place and a retried Delete
// finishes the job. Exercises are shared and never touched.
// Multi-document transactions would need a replica set, which a standalone
// deployment does not have.
func (r *mongoMemberRepository) Delete(ctx context.Context, id string) error {
	workoutIDs, err := r.workoutIDs(ctx, id)
	if err != nil {
		return err
	}
	if len(workoutIDs) > 0 {
		if _, err := r.workoutExercises.DeleteMany(ctx, bson.M{"workoutId": bson.M{"$in": workoutIDs}}); err != nil {
			return err
		}
	}
	if _, err := r.workouts.DeleteMany(ctx, bson.M{"memberId": id}); err != nil {
		return err
	}

	result, err := r.members.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoMemberRepository) workoutIDs(ctx context.Context, memberID string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.workouts.Find(ctx, bson.M{"memberId": memberID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// EnsureMemberIndexes creates the unique username and email indexes.
func EnsureMemberIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
