package mongodb

import (
	"context"

	"github.com/meue/rewards-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WheelRepository implements the repositories.WheelRepository interface
type WheelRepository struct {
	collection *mongo.Collection
}

// NewWheelRepository creates a new WheelRepository
func NewWheelRepository(db *mongo.Database) repositories.WheelRepository {
	return &WheelRepository{
		collection: db.Collection("wheels"),
	}
}

// RemoveRaffleRef pulls the raffle id out of every wheel referencing it
func (r *WheelRepository) RemoveRaffleRef(ctx context.Context, raffleID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{"raffleIds": raffleID}, bson.M{
		"$pull": bson.M{"raffleIds": raffleID},
	})
	return err
}
