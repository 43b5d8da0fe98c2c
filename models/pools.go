package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PoolOpen   = "open"
	PoolClosed = "closed"
)

// BulkPool aggregates demand for one crop type at a shared unit price.
type BulkPool struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title"         json:"title"`
	CropType      string             `bson:"cropType"      json:"cropType"`
	Unit          string             `bson:"unit"          json:"unit"`
	PricePerUnit  float64            `bson:"pricePerUnit"  json:"pricePerUnit"`
	TotalQuantity int                `bson:"totalQuantity" json:"totalQuantity"`
	CreatedBy     primitive.ObjectID `bson:"createdBy"     json:"createdBy"`
	Status        string             `bson:"status"        json:"status"`
	CreatedAt     time.Time          `bson:"createdAt"     json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"     json:"updatedAt"`
}

// PoolContribution records listing quantity a farmer committed to a pool.
type PoolContribution struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PoolID    primitive.ObjectID `bson:"poolId"        json:"poolId"`
	ListingID primitive.ObjectID `bson:"listingId"     json:"listingId"`
	Quantity  int                `bson:"quantity"      json:"quantity"`
	CreatedAt time.Time          `bson:"createdAt"     json:"createdAt"`
}
