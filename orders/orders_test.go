package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
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

func authedRequest(method, target string, userID primitive.ObjectID) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	return r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, userID.Hex()))
}

func TestRejectOrderRestoresListingAvailability(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reject returns quantity and clears out_of_stock", func(mt *mtest.T) {
		db.FarmersCollection = mt.Coll
		db.BuyersCollection = mt.Coll
		db.OrdersCollection = mt.Coll
		db.ListingsCollection = mt.Coll

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		userID := primitive.NewObjectID()
		farmerID := primitive.NewObjectID()
		orderID := primitive.NewObjectID()
		listingID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: farmerID}, {Key: "userId", Value: userID},
			}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: orderID},
				{Key: "buyerId", Value: primitive.NewObjectID()},
				{Key: "farmerId", Value: farmerID},
				{Key: "listingId", Value: listingID},
				{Key: "quantity", Value: 3},
				{Key: "status", Value: models.OrderPending},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		w := httptest.NewRecorder()
		ps := httprouter.Params{{Key: "id", Value: orderID.Hex()}}
		RejectOrder(w, authedRequest(http.MethodPost, "/api/v1/orders/order/"+orderID.Hex()+"/reject", userID), ps)
		assert.Equal(mt, http.StatusOK, w.Code)

		// A listing the reservation drained must be flipped back available,
		// so one of the issued updates targets the out_of_stock status.
		restored := false
		for _, ev := range mt.GetAllStartedEvents() {
			if ev.CommandName != "update" {
				continue
			}
			updates, ok := ev.Command.Lookup("updates").ArrayOK()
			if !ok {
				continue
			}
			vals, _ := updates.Values()
			for _, v := range vals {
				stmt, ok := v.DocumentOK()
				if !ok {
					continue
				}
				q, ok := stmt.Lookup("q").DocumentOK()
				if !ok {
					continue
				}
				if s, ok := q.Lookup("status").StringValueOK(); ok && s == models.ListingOutOfStock {
					restored = true
				}
			}
		}
		assert.True(mt, restored, "no update clearing the out_of_stock status was issued")
	})
}

func TestCancelOrderReturnsPoolQuantity(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("buyer cancel restores the pool total", func(mt *mtest.T) {
		db.FarmersCollection = mt.Coll
		db.BuyersCollection = mt.Coll
		db.OrdersCollection = mt.Coll
		db.ListingsCollection = mt.Coll
		db.PoolsCollection = mt.Coll

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		userID := primitive.NewObjectID()
		buyerID := primitive.NewObjectID()
		orderID := primitive.NewObjectID()
		poolID := primitive.NewObjectID()

		buyerDoc := bson.D{{Key: "_id", Value: buyerID}, {Key: "userId", Value: userID}}

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, buyerDoc),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: orderID},
				{Key: "buyerId", Value: buyerID},
				{Key: "poolId", Value: poolID},
				{Key: "quantity", Value: 4},
				{Key: "status", Value: models.OrderPending},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, buyerDoc),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		w := httptest.NewRecorder()
		ps := httprouter.Params{{Key: "id", Value: orderID.Hex()}}
		CancelOrder(w, authedRequest(http.MethodPost, "/api/v1/orders/order/"+orderID.Hex()+"/cancel", userID), ps)
		assert.Equal(mt, http.StatusOK, w.Code)

		returned := false
		for _, ev := range mt.GetAllStartedEvents() {
			if ev.CommandName != "update" {
				continue
			}
			updates, ok := ev.Command.Lookup("updates").ArrayOK()
			if !ok {
				continue
			}
			vals, _ := updates.Values()
			for _, v := range vals {
				stmt, ok := v.DocumentOK()
				if !ok {
					continue
				}
				u, ok := stmt.Lookup("u").DocumentOK()
				if !ok {
					continue
				}
				inc, ok := u.Lookup("$inc").DocumentOK()
				if !ok {
					continue
				}
				if n, ok := inc.Lookup("totalQuantity").AsInt64OK(); ok && n == 4 {
					returned = true
				}
			}
		}
		assert.True(mt, returned, "no update returning the quantity to the pool was issued")
	})
}
