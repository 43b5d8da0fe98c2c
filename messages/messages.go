package messages

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"harvestlink/db"
	"harvestlink/models"
	"harvestlink/orders"
	"harvestlink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SendMessage posts a note to an order thread. Only the order's buyer and
// farmer may write.
func SendMessage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid order ID"})
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Message content is required"})
		return
	}

	senderID, err := primitive.ObjectIDFromHex(utils.GetUserIDFromContext(r.Context()))
	if err != nil {
		http.Error(w, "Invalid user", http.StatusBadRequest)
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

	message := models.Message{
		ID:        primitive.NewObjectID(),
		OrderID:   orderID,
		SenderID:  senderID,
		Content:   strings.TrimSpace(req.Content),
		CreatedAt: time.Now(),
	}

	if _, err := db.MessagesCollection.InsertOne(ctx, message); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to send message"})
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "message": message})
}

// GetMessages returns an order thread in chronological order.
func GetMessages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	cursor, err := db.MessagesCollection.Find(ctx, bson.M{"orderId": orderID})
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}

	var thread []models.Message
	if err := cursor.All(ctx, &thread); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false})
		return
	}
	if thread == nil {
		thread = []models.Message{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "messages": thread})
}
