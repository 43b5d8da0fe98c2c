package listings

import (
	"context"
	"net/http"
	"time"

	"harvestlink/db"
	"harvestlink/models"
	"harvestlink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// farmerForUser resolves the farmer profile owned by the authenticated user.
func farmerForUser(ctx context.Context, r *http.Request) (*models.Farmer, bool) {
	userID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		return nil, false
	}
	var farmer models.Farmer
	if err := db.FarmersCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&farmer); err != nil {
		return nil, false
	}
	return &farmer, true
}

func parseListingForm(r *http.Request) models.Listing {
	listing := models.Listing{
		ID:            primitive.NewObjectID(),
		Title:         r.FormValue("title"),
		Category:      r.FormValue("category"),
		Quantity:      utils.ParseInt(r.FormValue("quantity")),
		Unit:          r.FormValue("unit"),
		PricePerUnit:  utils.ParseFloat(r.FormValue("pricePerUnit")),
		CosmeticNotes: r.FormValue("cosmeticNotes"),
		Pickup: models.GeoPoint{
			Address: r.FormValue("pickupAddress"),
			Lat:     utils.ParseFloat(r.FormValue("pickupLat")),
			Lng:     utils.ParseFloat(r.FormValue("pickupLng")),
		},
		Status:    models.ListingAvailable,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if d := utils.ParseDate(r.FormValue("harvestDate")); d != nil {
		listing.HarvestDate = d
	}
	return listing
}

// CreateListing inserts a new produce offer for the calling farmer.
func CreateListing(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(25 << 20); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid form"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	farmer, ok := farmerForUser(ctx, r)
	if !ok {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only farmers can create listings"})
		return
	}

	listing := parseListingForm(r)
	listing.FarmerID = farmer.ID

	if listing.Title == "" || listing.Category == "" || listing.Unit == "" {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Title, category and unit are required"})
		return
	}
	if listing.Quantity <= 0 || listing.PricePerUnit <= 0 {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Quantity and price must be positive"})
		return
	}

	// Listings without their own pickup point inherit the farm location so
	// the delivery distance check always has an origin to work with.
	if !listing.Pickup.HasCoords() {
		listing.Pickup = farmer.Location
	}

	photos, err := utils.SaveFormImages(r, "photos", "listings", models.MaxListingPhotos)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": err.Error()})
		return
	}
	listing.Photos = photos

	if _, err := db.ListingsCollection.InsertOne(ctx, listing); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Insert failed"})
		return
	}

	InvalidateCatalogueCache()
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "listing": listing})
}

// EditListing updates a listing the caller owns.
func EditListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid listing ID"})
		return
	}

	if err := r.ParseMultipartForm(25 << 20); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid form"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	farmer, ok := farmerForUser(ctx, r)
	if !ok {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only farmers can edit listings"})
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	for field, value := range map[string]string{
		"title":         r.FormValue("title"),
		"category":      r.FormValue("category"),
		"unit":          r.FormValue("unit"),
		"cosmeticNotes": r.FormValue("cosmeticNotes"),
	} {
		if value != "" {
			update[field] = value
		}
	}
	if v := r.FormValue("quantity"); v != "" {
		update["quantity"] = utils.ParseInt(v)
	}
	if v := r.FormValue("pricePerUnit"); v != "" {
		update["pricePerUnit"] = utils.ParseFloat(v)
	}
	if d := utils.ParseDate(r.FormValue("harvestDate")); d != nil {
		update["harvestDate"] = d
	}
	if r.FormValue("pickupAddress") != "" || r.FormValue("pickupLat") != "" {
		update["pickup"] = models.GeoPoint{
			Address: r.FormValue("pickupAddress"),
			Lat:     utils.ParseFloat(r.FormValue("pickupLat")),
			Lng:     utils.ParseFloat(r.FormValue("pickupLng")),
		}
	}

	if photos, err := utils.SaveFormImages(r, "photos", "listings", models.MaxListingPhotos); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": err.Error()})
		return
	} else if len(photos) > 0 {
		update["photos"] = photos
	}

	res, err := db.ListingsCollection.UpdateOne(ctx,
		bson.M{"_id": listingID, "farmerId": farmer.ID}, bson.M{"$set": update})
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Listing not found"})
		return
	}

	InvalidateCatalogueCache()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

// nextStockStatus flips between available and out_of_stock.
func nextStockStatus(status string) string {
	if status == models.ListingAvailable {
		return models.ListingOutOfStock
	}
	return models.ListingAvailable
}

// ToggleStock flips a listing between available and out_of_stock without
// touching the quantity.
func ToggleStock(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid listing ID"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	farmer, ok := farmerForUser(ctx, r)
	if !ok {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only farmers can update listings"})
		return
	}

	var listing models.Listing
	if err := db.ListingsCollection.FindOne(ctx, bson.M{"_id": listingID, "farmerId": farmer.ID}).Decode(&listing); err != nil {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Listing not found"})
		return
	}

	next := nextStockStatus(listing.Status)

	_, err = db.ListingsCollection.UpdateOne(ctx, bson.M{"_id": listingID},
		bson.M{"$set": bson.M{"status": next, "updatedAt": time.Now()}})
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "status": next})
}

// DeleteListing hard-deletes a listing the caller owns.
func DeleteListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid listing ID"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	farmer, ok := farmerForUser(ctx, r)
	if !ok {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only farmers can delete listings"})
		return
	}

	res, err := db.ListingsCollection.DeleteOne(ctx, bson.M{"_id": listingID, "farmerId": farmer.ID})
	if err != nil || res.DeletedCount == 0 {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Failed to delete listing"})
		return
	}

	InvalidateCatalogueCache()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

// GetListing fetches a single listing with its farmer attached.
func GetListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid listing ID"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	var listing models.Listing
	if err := db.ListingsCollection.FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing); err != nil {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Listing not found"})
		return
	}

	var farmer models.Farmer
	_ = db.FarmersCollection.FindOne(ctx, bson.M{"_id": listing.FarmerID}).Decode(&farmer)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "listing": listing, "farmer": farmer})
}

// GetFilteredListings is the buyer-side browse: text, category, price and
// stock filters with pagination.
func GetFilteredListings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := db.Ctx()
	defer cancel()

	params := r.URL.Query()
	query := bson.M{}

	if category := params.Get("category"); category != "" {
		query["category"] = category
	}
	if search := params.Get("search"); search != "" {
		query["title"] = bson.M{"$regex": primitive.Regex{Pattern: search, Options: "i"}}
	}
	if params.Get("inStock") == "true" {
		query["status"] = models.ListingAvailable
		query["quantity"] = bson.M{"$gt": 0}
	}

	price := bson.M{}
	if min := utils.ParseFloat(params.Get("minPrice")); min > 0 {
		price["$gte"] = min
	}
	if max := utils.ParseFloat(params.Get("maxPrice")); max > 0 {
		price["$lte"] = max
	}
	if len(price) > 0 {
		query["pricePerUnit"] = price
	}

	limit := int64(20)
	if l := utils.ParseInt(params.Get("limit")); l > 0 && l <= 100 {
		limit = int64(l)
	}
	offset := int64(utils.ParseInt(params.Get("offset")))

	findOptions := options.Find().
		SetLimit(limit).
		SetSkip(offset).
		SetSort(bson.M{"createdAt": -1})

	cursor, err := db.ListingsCollection.Find(ctx, query, findOptions)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	defer cursor.Close(ctx)

	var results []models.Listing
	if err := cursor.All(ctx, &results); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	if results == nil {
		results = []models.Listing{}
	}

	total, err := db.ListingsCollection.CountDocuments(ctx, query)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "listings": results, "total": total})
}

// GetMyListings returns every listing owned by the calling farmer.
func GetMyListings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := db.Ctx()
	defer cancel()

	farmer, ok := farmerForUser(ctx, r)
	if !ok {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only farmers have listings"})
		return
	}

	cursor, err := db.ListingsCollection.Find(ctx, bson.M{"farmerId": farmer.ID}, db.OptionsFindLatest(200))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}

	var results []models.Listing
	if err := cursor.All(ctx, &results); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	if results == nil {
		results = []models.Listing{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "listings": results})
}
