package pools

import (
	"encoding/json"
	"net/http"
	"time"

	"harvestlink/db"
	"harvestlink/models"
	"harvestlink/orders"
	"harvestlink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bulk pools aggregate produce of one crop type from several farmers so
// buyers can order larger quantities than any single listing holds. Pool
// orders skip the distance gate: a pool has no single origin point.

type createRequest struct {
	Title        string  `json:"title"`
	CropType     string  `json:"cropType"`
	Unit         string  `json:"unit"`
	PricePerUnit float64 `json:"pricePerUnit"`
}

// CreatePool opens an empty pool; quantity accumulates from contributions.
// Only farmers open pools, and the creator is recorded so only they can
// close it again.
func CreatePool(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid request body"})
		return
	}
	if req.Title == "" || req.CropType == "" || req.Unit == "" || req.PricePerUnit <= 0 {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Title, crop type, unit and a positive price are required"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}
	var farmer models.Farmer
	if err := db.FarmersCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&farmer); err != nil {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only farmers can open pools"})
		return
	}

	now := time.Now()
	pool := models.BulkPool{
		ID:           primitive.NewObjectID(),
		Title:        req.Title,
		CropType:     req.CropType,
		Unit:         req.Unit,
		PricePerUnit: req.PricePerUnit,
		CreatedBy:    userID,
		Status:       models.PoolOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := db.PoolsCollection.InsertOne(ctx, pool); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Insert failed"})
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "pool": pool})
}

// GetPools lists pools, optionally restricted to open ones.
func GetPools(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := db.Ctx()
	defer cancel()

	query := bson.M{}
	if r.URL.Query().Get("open") == "true" {
		query["status"] = models.PoolOpen
	}

	cursor, err := db.PoolsCollection.Find(ctx, query, db.OptionsFindLatest(100))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}

	var results []models.BulkPool
	if err := cursor.All(ctx, &results); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	if results == nil {
		results = []models.BulkPool{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "pools": results})
}

// ClosePool stops further contributions and orders. Only the creator can
// close a pool.
func ClosePool(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	poolID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid pool ID"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	res, err := db.PoolsCollection.UpdateOne(ctx,
		bson.M{"_id": poolID, "status": models.PoolOpen, "createdBy": userID},
		bson.M{"$set": bson.M{"status": models.PoolClosed, "updatedAt": time.Now()}})
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	if res.ModifiedCount == 0 {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "message": "Pool is not open or was opened by someone else"})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}

type contributeRequest struct {
	ListingID string `json:"listingId"`
	Quantity  int    `json:"quantity"`
}

// Contribute moves quantity from a farmer's listing into an open pool.
// The listing decrement is guarded the same way as order placement, so the
// same stock can never be promised twice.
func Contribute(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	poolID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid pool ID"})
		return
	}

	var req contributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid request body"})
		return
	}
	listingID, err := primitive.ObjectIDFromHex(req.ListingID)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid listing ID"})
		return
	}
	if req.Quantity < 1 {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Quantity must be positive"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}
	var farmer models.Farmer
	if err := db.FarmersCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&farmer); err != nil {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only farmers can contribute"})
		return
	}

	var pool models.BulkPool
	if err := db.PoolsCollection.FindOne(ctx, bson.M{"_id": poolID, "status": models.PoolOpen}).Decode(&pool); err != nil {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Open pool not found"})
		return
	}

	reserve, err := db.ListingsCollection.UpdateOne(ctx,
		bson.M{
			"_id":      listingID,
			"farmerId": farmer.ID,
			"quantity": bson.M{"$gte": req.Quantity},
		},
		bson.M{"$inc": bson.M{"quantity": -req.Quantity}, "$set": bson.M{"updatedAt": time.Now()}})
	if err != nil || reserve.ModifiedCount == 0 {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "message": "Listing does not have that quantity"})
		return
	}

	// Out of stock once the contribution drained the quantity.
	_, _ = db.ListingsCollection.UpdateOne(ctx,
		bson.M{"_id": listingID, "quantity": 0},
		bson.M{"$set": bson.M{"status": models.ListingOutOfStock}})

	contribution := models.PoolContribution{
		ID:        primitive.NewObjectID(),
		PoolID:    poolID,
		ListingID: listingID,
		Quantity:  req.Quantity,
		CreatedAt: time.Now(),
	}
	if _, err := db.ContributionsCollection.InsertOne(ctx, contribution); err != nil {
		orders.RestoreListingStock(ctx, listingID, req.Quantity)
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to record contribution"})
		return
	}

	_, _ = db.PoolsCollection.UpdateOne(ctx, bson.M{"_id": poolID},
		bson.M{"$inc": bson.M{"totalQuantity": req.Quantity}, "$set": bson.M{"updatedAt": time.Now()}})

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "contribution": contribution})
}

type poolOrderRequest struct {
	Quantity int    `json:"quantity"`
	Address  string `json:"address"`
}

// PlacePoolOrder lets a buyer order from a pool's accumulated quantity.
func PlacePoolOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	poolID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid pool ID"})
		return
	}

	var req poolOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid request body"})
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
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only buyers can place orders"})
		return
	}

	var pool models.BulkPool
	if err := db.PoolsCollection.FindOne(ctx, bson.M{"_id": poolID, "status": models.PoolOpen}).Decode(&pool); err != nil {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Open pool not found"})
		return
	}
	if err := orders.ValidateQuantity(req.Quantity, pool.TotalQuantity); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": err.Error()})
		return
	}

	reserve, err := db.PoolsCollection.UpdateOne(ctx,
		bson.M{"_id": poolID, "status": models.PoolOpen, "totalQuantity": bson.M{"$gte": req.Quantity}},
		bson.M{"$inc": bson.M{"totalQuantity": -req.Quantity}, "$set": bson.M{"updatedAt": time.Now()}})
	if err != nil || reserve.ModifiedCount == 0 {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "message": "Requested quantity is no longer available"})
		return
	}

	now := time.Now()
	order := models.Order{
		ID:           primitive.NewObjectID(),
		BuyerID:      buyer.ID,
		PoolID:       &poolID,
		Quantity:     req.Quantity,
		PricePerUnit: pool.PricePerUnit,
		TotalPrice:   orders.TotalPrice(req.Quantity, pool.PricePerUnit),
		Delivery:     models.GeoPoint{Address: req.Address},
		Status:       models.OrderPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := db.OrdersCollection.InsertOne(ctx, order); err != nil {
		_, _ = db.PoolsCollection.UpdateOne(ctx, bson.M{"_id": poolID},
			bson.M{"$inc": bson.M{"totalQuantity": req.Quantity}})
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to place order"})
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "order": order})
}
