package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

// Order is a buyer's commitment to purchase a quantity from a listing
// (or from a bulk pool) at the unit price locked in at placement.
type Order struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"        json:"id"`
	BuyerID      primitive.ObjectID  `bson:"buyerId"              json:"buyerId"`
	FarmerID     primitive.ObjectID  `bson:"farmerId,omitempty"   json:"farmerId,omitempty"`
	ListingID    *primitive.ObjectID `bson:"listingId,omitempty"  json:"listingId,omitempty"`
	PoolID       *primitive.ObjectID `bson:"poolId,omitempty"     json:"poolId,omitempty"`
	Quantity     int                 `bson:"quantity"             json:"quantity"`
	PricePerUnit float64             `bson:"pricePerUnit"         json:"pricePerUnit"`
	TotalPrice   float64             `bson:"totalPrice"           json:"totalPrice"`
	Delivery     GeoPoint            `bson:"delivery,omitempty"   json:"delivery,omitempty"`
	DistanceKm   float64             `bson:"distanceKm,omitempty" json:"distanceKm,omitempty"`
	PickupTime   *time.Time          `bson:"pickupTime,omitempty" json:"pickupTime,omitempty"`
	Status       string              `bson:"status"               json:"status"`
	CreatedAt    time.Time           `bson:"createdAt"            json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt"            json:"updatedAt"`
}

// Rating is one buyer review of a farmer, tied to a single completed order.
type Rating struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"    json:"id"`
	OrderID     primitive.ObjectID `bson:"orderId"          json:"orderId"`
	RaterID     primitive.ObjectID `bson:"raterId"          json:"raterId"`
	RatedUserID primitive.ObjectID `bson:"ratedUserId"      json:"ratedUserId"`
	Rating      int                `bson:"rating"           json:"rating"`
	Review      string             `bson:"review,omitempty" json:"review,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"        json:"createdAt"`
}

// Message is a free-text note on an order thread.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID   primitive.ObjectID `bson:"orderId"       json:"orderId"`
	SenderID  primitive.ObjectID `bson:"senderId"      json:"senderId"`
	Content   string             `bson:"content"       json:"content"`
	CreatedAt time.Time          `bson:"createdAt"     json:"createdAt"`
}
