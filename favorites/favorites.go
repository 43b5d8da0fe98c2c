package favorites

import (
	"net/http"
	"time"

	"harvestlink/db"
	"harvestlink/models"
	"harvestlink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToggleListingFavorite adds the bookmark when absent and removes it when
// present, so two toggles in a row are a no-op.
func ToggleListingFavorite(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	toggle(w, r, ps.ByName("id"), "listingId")
}

// ToggleFarmerFavorite bookmarks a farmer the same way.
func ToggleFarmerFavorite(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	toggle(w, r, ps.ByName("id"), "farmerId")
}

func toggle(w http.ResponseWriter, r *http.Request, idHex, field string) {
	targetID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid ID"})
		return
	}

	userID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	filter := bson.M{"userId": userID, field: targetID}

	res, err := db.FavoritesCollection.DeleteOne(ctx, filter)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	if res.DeletedCount > 0 {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "favorited": false})
		return
	}

	favorite := models.Favorite{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	// A row bookmarks a listing or a farmer, never both.
	if field == "listingId" {
		favorite.ListingID = &targetID
	} else {
		favorite.FarmerID = &targetID
	}

	if _, err := db.FavoritesCollection.InsertOne(ctx, favorite); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "favorited": true})
}

// GetFavorites returns the caller's bookmarks split by kind, with the
// bookmarked documents resolved.
func GetFavorites(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	cursor, err := db.FavoritesCollection.Find(ctx, bson.M{"userId": userID}, db.OptionsFindLatest(200))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}

	var favorites []models.Favorite
	if err := cursor.All(ctx, &favorites); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}

	var listingIDs, farmerIDs []primitive.ObjectID
	for _, f := range favorites {
		if f.ListingID != nil {
			listingIDs = append(listingIDs, *f.ListingID)
		}
		if f.FarmerID != nil {
			farmerIDs = append(farmerIDs, *f.FarmerID)
		}
	}

	favListings := []models.Listing{}
	if len(listingIDs) > 0 {
		if cur, err := db.ListingsCollection.Find(ctx, bson.M{"_id": bson.M{"$in": listingIDs}}); err == nil {
			_ = cur.All(ctx, &favListings)
		}
	}

	favFarmers := []models.Farmer{}
	if len(farmerIDs) > 0 {
		if cur, err := db.FarmersCollection.Find(ctx, bson.M{"_id": bson.M{"$in": farmerIDs}}); err == nil {
			_ = cur.All(ctx, &favFarmers)
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":  true,
		"listings": favListings,
		"farmers":  favFarmers,
	})
}

// IsFavorited reports whether the caller bookmarked the given listing.
func IsFavorited(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid listing ID"})
		return
	}

	userID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	count, err := db.FavoritesCollection.CountDocuments(ctx, bson.M{"userId": userID, "listingId": listingID})
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "favorited": count > 0})
}
