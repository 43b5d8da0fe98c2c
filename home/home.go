package home

import (
	"context"
	"net/http"
	"strings"

	"harvestlink/db"
	"harvestlink/models"
	"harvestlink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetHomeContent serves the dashboard sections under /home/:section.
func GetHomeContent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	section := strings.ToLower(ps.ByName("section"))

	ctx, cancel := db.Ctx()
	defer cancel()

	var (
		data interface{}
		err  error
	)

	switch section {
	case "featured":
		data, err = getFeaturedListings(ctx)
	case "farmers":
		data, err = getTopFarmers(ctx)
	case "categories":
		data, err = getCategories(ctx)
	default:
		http.Error(w, "Invalid section", http.StatusNotFound)
		return
	}

	if err != nil {
		http.Error(w, "Failed to fetch data: "+err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "data": data})
}

// getFeaturedListings returns the newest available listings.
func getFeaturedListings(ctx context.Context) ([]models.Listing, error) {
	cursor, err := db.ListingsCollection.Find(ctx,
		bson.M{"status": models.ListingAvailable}, db.OptionsFindLatest(12))
	if err != nil {
		return nil, err
	}
	var listings []models.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	return listings, nil
}

// getTopFarmers returns the best-rated farmers on the platform.
func getTopFarmers(ctx context.Context) ([]models.Farmer, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "avgRating", Value: -1}, {Key: "ratingCount", Value: -1}}).
		SetLimit(10)

	cursor, err := db.FarmersCollection.Find(ctx, bson.M{"ratingCount": bson.M{"$gt": 0}}, opts)
	if err != nil {
		return nil, err
	}
	var farmers []models.Farmer
	if err := cursor.All(ctx, &farmers); err != nil {
		return nil, err
	}
	if farmers == nil {
		farmers = []models.Farmer{}
	}
	return farmers, nil
}

// getCategories returns the distinct produce categories currently listed.
func getCategories(ctx context.Context) ([]interface{}, error) {
	categories, err := db.ListingsCollection.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []interface{}{}
	}
	return categories, nil
}
