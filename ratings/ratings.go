package ratings

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"harvestlink/db"
	"harvestlink/models"
	"harvestlink/orders"
	"harvestlink/rdx"
	"harvestlink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type addRequest struct {
	OrderID string `json:"orderId"`
	Rating  int    `json:"rating"`
	Review  string `json:"review"`
}

// AddRating files the buyer's one review of a completed order's farmer.
func AddRating(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid request body"})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Rating must be between 1 and 5"})
		return
	}

	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid order ID"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	var buyer models.Buyer
	if err := db.BuyersCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&buyer); err != nil {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only buyers can rate orders"})
		return
	}

	var order models.Order
	if err := db.OrdersCollection.FindOne(ctx, bson.M{"_id": orderID, "buyerId": buyer.ID}).Decode(&order); err != nil {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Order not found"})
		return
	}
	if order.Status != models.OrderCompleted {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Only completed orders can be rated"})
		return
	}

	var farmer models.Farmer
	if err := db.FarmersCollection.FindOne(ctx, bson.M{"_id": order.FarmerID}).Decode(&farmer); err != nil {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Farmer not found"})
		return
	}

	rating := models.Rating{
		ID:          primitive.NewObjectID(),
		OrderID:     orderID,
		RaterID:     userID,
		RatedUserID: farmer.UserID,
		Rating:      req.Rating,
		Review:      req.Review,
		CreatedAt:   time.Now(),
	}

	// The unique index on orderId turns a second review into a duplicate-key
	// error regardless of request interleaving.
	if _, err := db.RatingsCollection.InsertOne(ctx, rating); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "message": "This order has already been rated"})
			return
		}
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to save rating"})
		return
	}

	refreshFarmerSummary(ctx, farmer.ID, farmer.UserID)

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "rating": rating})
}

// refreshFarmerSummary recomputes the farmer's average and count, stores them
// on the farmer document and refreshes the cached copy.
func refreshFarmerSummary(ctx context.Context, farmerID, farmerUserID primitive.ObjectID) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"ratedUserId": farmerUserID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"avg":   bson.M{"$avg": "$rating"},
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := db.RatingsCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return
	}
	var rows []struct {
		Avg   float64 `bson:"avg"`
		Count int64   `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil || len(rows) == 0 {
		return
	}

	_, _ = db.FarmersCollection.UpdateOne(ctx, bson.M{"_id": farmerID},
		bson.M{"$set": bson.M{"avgRating": rows[0].Avg, "ratingCount": rows[0].Count}})

	if rdx.Conn != nil {
		payload, _ := json.Marshal(utils.M{"avgRating": rows[0].Avg, "ratingCount": rows[0].Count})
		_ = rdx.Conn.Set(ctx, "farmer_rating:"+farmerID.Hex(), payload, 2*time.Hour).Err()
	}
}

// GetFarmerRatings returns the reviews filed against a farmer, newest first,
// with the cached summary when available.
func GetFarmerRatings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	resp := utils.M{"success": true, "avgRating": farmer.AvgRating, "ratingCount": farmer.RatingCount}

	if rdx.Conn != nil {
		if val, err := rdx.Conn.Get(ctx, "farmer_rating:"+farmerID.Hex()).Result(); err == nil && val != "" {
			var summary utils.M
			if json.Unmarshal([]byte(val), &summary) == nil {
				resp["avgRating"] = summary["avgRating"]
				resp["ratingCount"] = summary["ratingCount"]
			}
		}
	}

	cursor, err := db.RatingsCollection.Find(ctx, bson.M{"ratedUserId": farmer.UserID}, db.OptionsFindLatest(100))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	var results []models.Rating
	if err := cursor.All(ctx, &results); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	if results == nil {
		results = []models.Rating{}
	}
	resp["ratings"] = results

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GetOrderRating tells an order's buyer or farmer whether the order already
// carries a review.
func GetOrderRating(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid order ID"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	var order models.Order
	if err := db.OrdersCollection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Order not found"})
		return
	}
	if !orders.PartyOnOrder(ctx, r, &order) {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Not your order"})
		return
	}

	var rating models.Rating
	err = db.RatingsCollection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&rating)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "rated": false})
		return
	}
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "rated": true, "rating": rating})
}
