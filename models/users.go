package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the identity record every authenticated account owns.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"       json:"id"`
	Email        string             `bson:"email"               json:"email"`
	PasswordHash string             `bson:"passwordHash"        json:"-"`
	Role         string             `bson:"role"                json:"role"`
	FullName     string             `bson:"fullName"            json:"fullName"`
	Phone        string             `bson:"phone,omitempty"     json:"phone,omitempty"`
	AvatarURL    string             `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"           json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"           json:"updatedAt"`
}

type GeoPoint struct {
	Address string  `bson:"address,omitempty" json:"address,omitempty"`
	Lat     float64 `bson:"lat,omitempty"     json:"lat,omitempty"`
	Lng     float64 `bson:"lng,omitempty"     json:"lng,omitempty"`
}

// HasCoords reports whether the point carries usable coordinates.
func (g GeoPoint) HasCoords() bool {
	return g.Lat != 0 || g.Lng != 0
}

// Farmer extends a user with the seller-side profile.
type Farmer struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"           json:"id"`
	UserID        primitive.ObjectID `bson:"userId"                  json:"userId"`
	FarmName      string             `bson:"farmName"                json:"farmName"`
	Bio           string             `bson:"bio,omitempty"           json:"bio,omitempty"`
	Verified      bool               `bson:"verified"                json:"verified"`
	Location      GeoPoint           `bson:"location,omitempty"      json:"location,omitempty"`
	CooperativeID string             `bson:"cooperativeId,omitempty" json:"cooperativeId,omitempty"`
	AvgRating     float64            `bson:"avgRating,omitempty"     json:"avgRating,omitempty"`
	RatingCount   int64              `bson:"ratingCount,omitempty"   json:"ratingCount,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"               json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"               json:"updatedAt"`
}

// Buyer extends a user with the business-buyer profile.
type Buyer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"          json:"id"`
	UserID       primitive.ObjectID `bson:"userId"                 json:"userId"`
	BusinessName string             `bson:"businessName"           json:"businessName"`
	BusinessType string             `bson:"businessType,omitempty" json:"businessType,omitempty"`
	Location     GeoPoint           `bson:"location,omitempty"     json:"location,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"              json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"              json:"updatedAt"`
}
