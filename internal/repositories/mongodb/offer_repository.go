package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/raffleerr"
	"github.com/meue/rewards-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// OfferRepository implements the repositories.OfferRepository interface
type OfferRepository struct {
	collection *mongo.Collection
}

// NewOfferRepository creates a new OfferRepository
func NewOfferRepository(db *mongo.Database) repositories.OfferRepository {
	return &OfferRepository{
		collection: db.Collection("offers"),
	}
}

// Create creates a new offer
func (r *OfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, offer)
	if err != nil {
		return err
	}
	offer.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds an offer by ID
func (r *OfferRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error) {
	var offer models.Offer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&offer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, raffleerr.ErrNotFound
		}
		return nil, err
	}
	return &offer, nil
}
