package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/raffleerr"
	"github.com/meue/rewards-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RaffleRepository implements the repositories.RaffleRepository interface
type RaffleRepository struct {
	collection *mongo.Collection
}

// NewRaffleRepository creates a new RaffleRepository
func NewRaffleRepository(db *mongo.Database) repositories.RaffleRepository {
	return &RaffleRepository{
		collection: db.Collection("raffles"),
	}
}

// Create creates a new raffle
func (r *RaffleRepository) Create(ctx context.Context, raffle *models.Raffle) error {
	raffle.CreatedAt = time.Now()
	raffle.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, raffle)
	if err != nil {
		return err
	}
	raffle.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a raffle by ID
func (r *RaffleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	var raffle models.Raffle
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&raffle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, raffleerr.ErrNotFound
		}
		return nil, err
	}
	return &raffle, nil
}

// FindAll finds all raffles, newest schedule first
func (r *RaffleRepository) FindAll(ctx context.Context) ([]*models.Raffle, error) {
	opts := options.Find().SetSort(bson.M{"scheduledAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var raffles []*models.Raffle
	if err := cursor.All(ctx, &raffles); err != nil {
		return nil, err
	}
	if raffles == nil {
		raffles = []*models.Raffle{}
	}
	return raffles, nil
}

// Update replaces a raffle document
func (r *RaffleRepository) Update(ctx context.Context, raffle *models.Raffle) error {
	raffle.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": raffle.ID}, raffle)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return raffleerr.ErrNotFound
	}
	return nil
}

// Delete deletes a raffle by ID. Deleting a missing id is a no-op.
func (r *RaffleRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// SetVisibility sets the isVisible projection flag
func (r *RaffleRepository) SetVisibility(ctx context.Context, id primitive.ObjectID, visible bool) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"isVisible": visible, "updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return raffleerr.ErrNotFound
	}
	return nil
}

// SetStatus sets the lifecycle status
func (r *RaffleRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status models.RaffleStatus) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": status, "updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return raffleerr.ErrNotFound
	}
	return nil
}

// AppendWinner appends a winner entry for a prize in a single conditional
// update: the filter only matches when no winner exists for that prizeRef,
// so concurrent draws for the same prize serialize here and the loser gets
// raffleerr.ErrAlreadyDrawn.
func (r *RaffleRepository) AppendWinner(ctx context.Context, id primitive.ObjectID, winner models.WinnerEntry) (*models.Raffle, error) {
	filter := bson.M{
		"_id":              id,
		"winners.prizeRef": bson.M{"$ne": winner.PrizeRef},
	}
	update := bson.M{
		"$push": bson.M{"winners": winner},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Raffle
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to append winner: %w", err)
	}

	// No match: either the raffle is gone or the prize already has a winner.
	count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if countErr != nil {
		return nil, countErr
	}
	if count == 0 {
		return nil, raffleerr.ErrNotFound
	}
	return nil, raffleerr.ErrAlreadyDrawn
}

// AddParticipant appends a participant entry
func (r *RaffleRepository) AddParticipant(ctx context.Context, id primitive.ObjectID, participant models.Participant) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"participants": participant},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return raffleerr.ErrNotFound
	}
	return nil
}
