package profile

import (
	"encoding/json"
	"net/http"
	"time"

	"harvestlink/db"
	"harvestlink/globals"
	"harvestlink/models"
	"harvestlink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetProfile returns the caller's identity record plus the role profile.
func GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	var user models.User
	if err := db.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Profile not found"})
		return
	}

	resp := utils.M{"success": true, "user": user}
	switch user.Role {
	case globals.RoleFarmer:
		var farmer models.Farmer
		if err := db.FarmersCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&farmer); err == nil {
			resp["farmer"] = farmer
		}
	case globals.RoleBuyer:
		var buyer models.Buyer
		if err := db.BuyersCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&buyer); err == nil {
			resp["buyer"] = buyer
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

type editRequest struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`

	FarmName string `json:"farmName"`
	Bio      string `json:"bio"`

	BusinessName string `json:"businessName"`
	BusinessType string `json:"businessType"`

	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// EditProfile updates the identity fields and the caller's role profile.
func EditProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid request body"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	now := time.Now()
	userSet := bson.M{"updatedAt": now}
	if req.FullName != "" {
		userSet["fullName"] = req.FullName
	}
	if req.Phone != "" {
		userSet["phone"] = req.Phone
	}
	if _, err := db.UserCollection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": userSet}); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Update failed"})
		return
	}

	role := utils.GetUserRoleFromContext(r.Context())
	roleSet := bson.M{"updatedAt": now}
	if req.Address != "" || req.Lat != 0 || req.Lng != 0 {
		roleSet["location"] = models.GeoPoint{Address: req.Address, Lat: req.Lat, Lng: req.Lng}
	}
	switch role {
	case globals.RoleFarmer:
		if req.FarmName != "" {
			roleSet["farmName"] = req.FarmName
		}
		if req.Bio != "" {
			roleSet["bio"] = req.Bio
		}
		_, err = db.FarmersCollection.UpdateOne(ctx, bson.M{"userId": userID}, bson.M{"$set": roleSet})
	case globals.RoleBuyer:
		if req.BusinessName != "" {
			roleSet["businessName"] = req.BusinessName
		}
		if req.BusinessType != "" {
			roleSet["businessType"] = req.BusinessType
		}
		_, err = db.BuyersCollection.UpdateOne(ctx, bson.M{"userId": userID}, bson.M{"$set": roleSet})
	}
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Update failed"})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

// EditProfilePic replaces the caller's avatar with an uploaded image.
func EditProfilePic(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid form"})
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Avatar file is required"})
		return
	}
	defer file.Close()

	url, err := utils.SaveUploadedImage(file, header, "avatars")
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": err.Error()})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	_, err = db.UserCollection.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$set": bson.M{"avatarUrl": url, "updatedAt": time.Now()}})
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Update failed"})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "avatarUrl": url})
}

// GetFarmerProfile is the public view of a farmer: profile, rating summary
// and available listings.
func GetFarmerProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	farmerID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid farmer ID"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	var farmer models.Farmer
	if err := db.FarmersCollection.FindOne(ctx, bson.M{"_id": farmerID}).Decode(&farmer); err != nil {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Farmer not found"})
		return
	}

	var user models.User
	_ = db.UserCollection.FindOne(ctx, bson.M{"_id": farmer.UserID}).Decode(&user)

	var listings []models.Listing
	cursor, err := db.ListingsCollection.Find(ctx,
		bson.M{"farmerId": farmerID, "status": models.ListingAvailable}, db.OptionsFindLatest(50))
	if err == nil {
		_ = cursor.All(ctx, &listings)
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":  true,
		"farmer":   farmer,
		"user":     user,
		"listings": listings,
	})
}
