package ratings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"harvestlink/db"
	"harvestlink/globals"
	"harvestlink/models"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func authedRequest(method, target string, body io.Reader, userID primitive.ObjectID) *http.Request {
	r := httptest.NewRequest(method, target, body)
	return r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, userID.Hex()))
}

func TestAddRatingOncePerOrder(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("second review of the same order conflicts", func(mt *mtest.T) {
		db.BuyersCollection = mt.Coll
		db.OrdersCollection = mt.Coll
		db.FarmersCollection = mt.Coll
		db.RatingsCollection = mt.Coll

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		userID := primitive.NewObjectID()
		buyerID := primitive.NewObjectID()
		farmerID := primitive.NewObjectID()
		farmerUserID := primitive.NewObjectID()
		orderID := primitive.NewObjectID()

		buyerDoc := bson.D{{Key: "_id", Value: buyerID}, {Key: "userId", Value: userID}}
		orderDoc := bson.D{
			{Key: "_id", Value: orderID},
			{Key: "buyerId", Value: buyerID},
			{Key: "farmerId", Value: farmerID},
			{Key: "status", Value: models.OrderCompleted},
		}
		farmerDoc := bson.D{{Key: "_id", Value: farmerID}, {Key: "userId", Value: farmerUserID}}
		body := fmt.Sprintf(`{"orderId":%q,"rating":4,"review":"fresh and on time"}`, orderID.Hex())

		// First review lands; the farmer summary refresh follows.
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, buyerDoc),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, orderDoc),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, farmerDoc),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "avg", Value: 4.0}, {Key: "count", Value: 1}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)
		w := httptest.NewRecorder()
		AddRating(w, authedRequest(http.MethodPost, "/api/v1/ratings", strings.NewReader(body), userID), nil)
		assert.Equal(mt, http.StatusCreated, w.Code)

		// The unique orderId index turns the repeat into a duplicate key.
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, buyerDoc),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, orderDoc),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, farmerDoc),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}),
		)
		w = httptest.NewRecorder()
		AddRating(w, authedRequest(http.MethodPost, "/api/v1/ratings", strings.NewReader(body), userID), nil)
		assert.Equal(mt, http.StatusConflict, w.Code)

		var resp struct {
			Message string `json:"message"`
		}
		assert.NoError(mt, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(mt, resp.Message, "already been rated")
	})
}

func TestGetOrderRatingHiddenFromOutsiders(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("a third party cannot probe an order's rating", func(mt *mtest.T) {
		db.BuyersCollection = mt.Coll
		db.OrdersCollection = mt.Coll
		db.FarmersCollection = mt.Coll
		db.RatingsCollection = mt.Coll

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		orderID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: orderID},
				{Key: "buyerId", Value: primitive.NewObjectID()},
				{Key: "farmerId", Value: primitive.NewObjectID()},
				{Key: "status", Value: models.OrderCompleted},
			}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		w := httptest.NewRecorder()
		ps := httprouter.Params{{Key: "id", Value: orderID.Hex()}}
		GetOrderRating(w, authedRequest(http.MethodGet, "/api/v1/ratings/order/"+orderID.Hex(), nil, primitive.NewObjectID()), ps)
		assert.Equal(mt, http.StatusForbidden, w.Code)
	})
}
