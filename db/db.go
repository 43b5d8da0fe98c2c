package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection          *mongo.Collection
	FarmersCollection       *mongo.Collection
	BuyersCollection        *mongo.Collection
	ListingsCollection      *mongo.Collection
	OrdersCollection        *mongo.Collection
	RatingsCollection       *mongo.Collection
	FavoritesCollection     *mongo.Collection
	MessagesCollection      *mongo.Collection
	PoolsCollection         *mongo.Collection
	ContributionsCollection *mongo.Collection

	Client *mongo.Client
)

// Connect dials MongoDB and binds every collection handle the handlers use.
func Connect(ctx context.Context, uri string) error {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return err
	}
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return err
	}

	Client = client
	hdb := client.Database("harvestdb")

	BuyersCollection = hdb.Collection("buyers")
	ContributionsCollection = hdb.Collection("poolContributions")
	FarmersCollection = hdb.Collection("farmers")
	FavoritesCollection = hdb.Collection("favorites")
	ListingsCollection = hdb.Collection("listings")
	MessagesCollection = hdb.Collection("messages")
	OrdersCollection = hdb.Collection("orders")
	PoolsCollection = hdb.Collection("pools")
	RatingsCollection = hdb.Collection("ratings")
	UserCollection = hdb.Collection("users")

	return EnsureIndexes(ctx)
}

// EnsureIndexes creates the unique indexes the handlers rely on:
// one account per email, one rating per order.
func EnsureIndexes(ctx context.Context) error {
	_, err := UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = RatingsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"orderId": 1},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func Disconnect(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}

func OptionsFindLatest(limit int64) *options.FindOptions {
	opts := options.Find()
	opts.SetSort(map[string]interface{}{"createdAt": -1})
	opts.SetLimit(limit)
	return opts
}

// Ctx returns a timeout context for a single DB round trip.
func Ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
