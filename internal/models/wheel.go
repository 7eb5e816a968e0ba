package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Wheel is a spin-wheel configuration that may reference raffles by id.
// Deleting a raffle must remove it from every wheel that references it.
type Wheel struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string               `bson:"name" json:"name"`
	RaffleIDs []primitive.ObjectID `bson:"raffleIds" json:"raffleIds"`
}
