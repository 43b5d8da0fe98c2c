package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"harvestlink/db"
	"harvestlink/geo"
	"harvestlink/models"
	"harvestlink/notify"
	"harvestlink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func buyerForUser(ctx context.Context, r *http.Request) (*models.Buyer, bool) {
	userID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		return nil, false
	}
	var buyer models.Buyer
	if err := db.BuyersCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&buyer); err != nil {
		return nil, false
	}
	return &buyer, true
}

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

// notifyParties pushes a status event to the order's buyer and farmer.
func notifyParties(ctx context.Context, order *models.Order) {
	var pickup time.Time
	if order.PickupTime != nil {
		pickup = *order.PickupTime
	}

	ids := make([]string, 0, 2)
	var buyer models.Buyer
	if err := db.BuyersCollection.FindOne(ctx, bson.M{"_id": order.BuyerID}).Decode(&buyer); err == nil {
		ids = append(ids, buyer.UserID.Hex())
	}
	var farmer models.Farmer
	if err := db.FarmersCollection.FindOne(ctx, bson.M{"_id": order.FarmerID}).Decode(&farmer); err == nil {
		ids = append(ids, farmer.UserID.Hex())
	}
	notify.OrderEvent(order.ID.Hex(), order.Status, pickup, ids...)
}

type placeRequest struct {
	ListingID string  `json:"listingId"`
	Quantity  int     `json:"quantity"`
	Address   string  `json:"address"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// PlaceOrder runs the order-placement flow: quantity and address validation,
// the haversine distance gate, the travel estimate, then the write sequence.
// The writes form a small saga: the listing quantity is reserved first with a
// guarded decrement, and restored if any later step fails.
func PlaceOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid request body"})
		return
	}

	listingID, err := primitive.ObjectIDFromHex(req.ListingID)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid listing ID"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	buyer, ok := buyerForUser(ctx, r)
	if !ok {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only buyers can place orders"})
		return
	}

	if req.Address == "" || req.Lat == 0 || req.Lng == 0 {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": ErrMissingAddress.Error()})
		return
	}

	var listing models.Listing
	if err := db.ListingsCollection.FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing); err != nil {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Listing not found"})
		return
	}

	if listing.Status != models.ListingAvailable {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": ErrListingInactive.Error()})
		return
	}
	if err := ValidateQuantity(req.Quantity, listing.Quantity); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": err.Error()})
		return
	}
	if !listing.Pickup.HasCoords() {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": ErrNoOrigin.Error()})
		return
	}

	distance := geo.DistanceKm(listing.Pickup.Lat, listing.Pickup.Lng, req.Lat, req.Lng)
	if !geo.WithinDeliveryRange(distance) {
		rangeErr := &OutOfRangeError{DistanceKm: distance, MaxKm: geo.MaxDeliveryKm}
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{
			"success":    false,
			"message":    rangeErr.Error(),
			"distanceKm": distance,
		})
		return
	}

	now := time.Now()
	pickupTime := geo.EstimatePickupTime(now, distance)

	// Reserve stock. The filter rejects oversell atomically.
	reserve, err := db.ListingsCollection.UpdateOne(ctx,
		bson.M{
			"_id":      listingID,
			"status":   models.ListingAvailable,
			"quantity": bson.M{"$gte": req.Quantity},
		},
		bson.M{
			"$inc": bson.M{"quantity": -req.Quantity},
			"$set": bson.M{"updatedAt": now},
		})
	if err != nil || reserve.ModifiedCount == 0 {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "message": "Requested quantity is no longer available"})
		return
	}

	releaseStock := func() {
		_, _ = db.ListingsCollection.UpdateOne(ctx, bson.M{"_id": listingID},
			bson.M{"$inc": bson.M{"quantity": req.Quantity}})
	}

	order := models.Order{
		ID:           primitive.NewObjectID(),
		BuyerID:      buyer.ID,
		FarmerID:     listing.FarmerID,
		ListingID:    &listingID,
		Quantity:     req.Quantity,
		PricePerUnit: listing.PricePerUnit,
		TotalPrice:   TotalPrice(req.Quantity, listing.PricePerUnit),
		Delivery:     models.GeoPoint{Address: req.Address, Lat: req.Lat, Lng: req.Lng},
		DistanceKm:   distance,
		PickupTime:   &pickupTime,
		Status:       models.OrderPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := db.OrdersCollection.InsertOne(ctx, order); err != nil {
		releaseStock()
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to place order"})
		return
	}

	// Remember the delivery point on the buyer profile. Compensate fully on
	// failure so the three writes behave as one.
	_, err = db.BuyersCollection.UpdateOne(ctx, bson.M{"_id": buyer.ID},
		bson.M{"$set": bson.M{"location": order.Delivery, "updatedAt": now}})
	if err != nil {
		_, _ = db.OrdersCollection.DeleteOne(ctx, bson.M{"_id": order.ID})
		releaseStock()
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to place order"})
		return
	}

	// Out of stock once the reservation drained the quantity.
	_, _ = db.ListingsCollection.UpdateOne(ctx,
		bson.M{"_id": listingID, "quantity": 0},
		bson.M{"$set": bson.M{"status": models.ListingOutOfStock}})

	notifyParties(ctx, &order)

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success":          true,
		"order":            order,
		"distanceKm":       distance,
		"estimatedMinutes": geo.EstimateMinutes(distance),
	})
}

// ApproveOrder moves a pending order to confirmed. The distance-based pickup
// estimate from placement is kept; a flat 30 minute estimate is only used
// when the order somehow has none.
func ApproveOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	transitionByFarmer(w, r, ps, models.OrderConfirmed, func(order *models.Order, now time.Time) bson.M {
		set := bson.M{"status": models.OrderConfirmed, "updatedAt": now}
		if order.PickupTime == nil {
			fallback := now.Add(30 * time.Minute)
			set["pickupTime"] = fallback
			order.PickupTime = &fallback
		}
		return set
	})
}

// DeliverOrder is the farmer's manual completion: pickup time becomes now.
func DeliverOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	transitionByFarmer(w, r, ps, models.OrderCompleted, func(order *models.Order, now time.Time) bson.M {
		order.PickupTime = &now
		return bson.M{"status": models.OrderCompleted, "pickupTime": now, "updatedAt": now}
	})
}

// RejectOrder cancels a pending order and returns the reserved quantity to
// the listing.
func RejectOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	transitionByFarmer(w, r, ps, models.OrderCancelled, func(order *models.Order, now time.Time) bson.M {
		return bson.M{"status": models.OrderCancelled, "updatedAt": now}
	})
}

func transitionByFarmer(w http.ResponseWriter, r *http.Request, ps httprouter.Params, target string, buildSet func(*models.Order, time.Time) bson.M) {
	orderID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid order ID"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	farmer, ok := farmerForUser(ctx, r)
	if !ok {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only the farmer can update this order"})
		return
	}

	var order models.Order
	if err := db.OrdersCollection.FindOne(ctx, bson.M{"_id": orderID, "farmerId": farmer.ID}).Decode(&order); err != nil {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Order not found"})
		return
	}

	if !CanTransition(order.Status, target) {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "message": ErrBadTransition.Error()})
		return
	}

	now := time.Now()
	set := buildSet(&order, now)

	// The status filter makes the write a no-op if a concurrent transition
	// (including the auto-completion sweep) got there first.
	res, err := db.OrdersCollection.UpdateOne(ctx,
		bson.M{"_id": orderID, "status": order.Status}, bson.M{"$set": set})
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	if res.ModifiedCount == 0 {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "message": ErrBadTransition.Error()})
		return
	}

	if target == models.OrderCancelled && order.ListingID != nil {
		RestoreListingStock(ctx, *order.ListingID, order.Quantity)
	}

	order.Status = target
	order.UpdatedAt = now
	notifyParties(ctx, &order)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "order": order})
}

// RestoreListingStock returns a reserved quantity to a listing. When the
// reservation had drained the listing to zero and flipped it out of stock,
// the quantity coming back flips it available again.
func RestoreListingStock(ctx context.Context, listingID primitive.ObjectID, quantity int) {
	_, _ = db.ListingsCollection.UpdateOne(ctx, bson.M{"_id": listingID},
		bson.M{"$inc": bson.M{"quantity": quantity}})
	_, _ = db.ListingsCollection.UpdateOne(ctx,
		bson.M{"_id": listingID, "status": models.ListingOutOfStock, "quantity": bson.M{"$gt": 0}},
		bson.M{"$set": bson.M{"status": models.ListingAvailable}})
}

// CancelOrder lets the buyer withdraw an order that is still pending. The
// reserved quantity goes back to the listing or, for pool orders, to the
// pool's accumulated total.
func CancelOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid order ID"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	buyer, ok := buyerForUser(ctx, r)
	if !ok {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only the buyer can cancel an order"})
		return
	}

	var order models.Order
	if err := db.OrdersCollection.FindOne(ctx, bson.M{"_id": orderID, "buyerId": buyer.ID}).Decode(&order); err != nil {
		utils.RespondWithJSON(w, http.StatusNotFound, utils.M{"success": false, "message": "Order not found"})
		return
	}

	if !CanTransition(order.Status, models.OrderCancelled) {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "message": ErrBadTransition.Error()})
		return
	}

	now := time.Now()
	res, err := db.OrdersCollection.UpdateOne(ctx,
		bson.M{"_id": orderID, "status": order.Status},
		bson.M{"$set": bson.M{"status": models.OrderCancelled, "updatedAt": now}})
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	if res.ModifiedCount == 0 {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "message": ErrBadTransition.Error()})
		return
	}

	if order.ListingID != nil {
		RestoreListingStock(ctx, *order.ListingID, order.Quantity)
	}
	if order.PoolID != nil {
		_, _ = db.PoolsCollection.UpdateOne(ctx, bson.M{"_id": order.PoolID},
			bson.M{"$inc": bson.M{"totalQuantity": order.Quantity}, "$set": bson.M{"updatedAt": now}})
	}

	order.Status = models.OrderCancelled
	order.UpdatedAt = now
	notifyParties(ctx, &order)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "order": order})
}

// GetMyOrders lists the calling buyer's orders, newest first.
func GetMyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := db.Ctx()
	defer cancel()

	buyer, ok := buyerForUser(ctx, r)
	if !ok {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only buyers have orders"})
		return
	}

	listOrders(ctx, w, bson.M{"buyerId": buyer.ID})
}

// GetIncomingOrders lists orders placed against the calling farmer's listings.
func GetIncomingOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := db.Ctx()
	defer cancel()

	farmer, ok := farmerForUser(ctx, r)
	if !ok {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Only farmers receive orders"})
		return
	}

	listOrders(ctx, w, bson.M{"farmerId": farmer.ID})
}

func listOrders(ctx context.Context, w http.ResponseWriter, filter bson.M) {
	cursor, err := db.OrdersCollection.Find(ctx, filter, db.OptionsFindLatest(200))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}

	var results []models.Order
	if err := cursor.All(ctx, &results); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	if results == nil {
		results = []models.Order{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "orders": results})
}

// GetOrder fetches one order, restricted to its buyer or farmer.
func GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	if !PartyOnOrder(ctx, r, &order) {
		utils.RespondWithJSON(w, http.StatusForbidden, utils.M{"success": false, "message": "Not your order"})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "order": order})
}

// PartyOnOrder reports whether the authenticated caller is the order's buyer
// or farmer.
func PartyOnOrder(ctx context.Context, r *http.Request, order *models.Order) bool {
	if buyer, ok := buyerForUser(ctx, r); ok && buyer.ID == order.BuyerID {
		return true
	}
	if farmer, ok := farmerForUser(ctx, r); ok && farmer.ID == order.FarmerID {
		return true
	}
	return false
}
