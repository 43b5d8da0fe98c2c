package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ListingAvailable  = "available"
	ListingOutOfStock = "out_of_stock"

	MaxListingPhotos = 5
)

// Listing is a farmer's offer of a produce quantity at a unit price.
type Listing struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"           json:"id"`
	FarmerID      primitive.ObjectID `bson:"farmerId"                json:"farmerId"`
	Title         string             `bson:"title"                   json:"title"`
	Category      string             `bson:"category"                json:"category"`
	Quantity      int                `bson:"quantity"                json:"quantity"`
	Unit          string             `bson:"unit"                    json:"unit"`
	PricePerUnit  float64            `bson:"pricePerUnit"            json:"pricePerUnit"`
	HarvestDate   *time.Time         `bson:"harvestDate,omitempty"   json:"harvestDate,omitempty"`
	Pickup        GeoPoint           `bson:"pickup,omitempty"        json:"pickup,omitempty"`
	Photos        []string           `bson:"photos,omitempty"        json:"photos,omitempty"`
	CosmeticNotes string             `bson:"cosmeticNotes,omitempty" json:"cosmeticNotes,omitempty"`
	Status        string             `bson:"status"                  json:"status"`
	CreatedAt     time.Time          `bson:"createdAt"               json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"               json:"updatedAt"`
}

// Favorite bookmarks either a listing or a farmer, never both.
type Favorite struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"       json:"id"`
	UserID    primitive.ObjectID  `bson:"userId"              json:"userId"`
	ListingID *primitive.ObjectID `bson:"listingId,omitempty" json:"listingId,omitempty"`
	FarmerID  *primitive.ObjectID `bson:"farmerId,omitempty"  json:"farmerId,omitempty"`
	CreatedAt time.Time           `bson:"createdAt"           json:"createdAt"`
}
