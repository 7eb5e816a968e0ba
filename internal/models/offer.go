package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OfferStatus represents the review status of a vendor offer.
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "PENDING"
	OfferStatusApproved OfferStatus = "APPROVED"
	OfferStatusRejected OfferStatus = "REJECTED"
)

// Offer is an approved vendor offer. A raffle derived from an offer copies
// Quantity and EndDate as the prize's exhaustion fields.
type Offer struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	VendorRef string             `bson:"vendorRef" json:"vendorRef"`
	Name      string             `bson:"name" json:"name"`
	Quantity  *int               `bson:"quantity,omitempty" json:"quantity,omitempty"`
	EndDate   *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Status    OfferStatus        `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
