package pools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"harvestlink/db"
	"harvestlink/globals"

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

func TestCreatePoolRequiresFarmer(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	body := `{"title":"Roma tomatoes","cropType":"tomato","unit":"kg","pricePerUnit":2.5}`

	mt.Run("buyers cannot open pools", func(mt *mtest.T) {
		db.FarmersCollection = mt.Coll
		db.PoolsCollection = mt.Coll

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		w := httptest.NewRecorder()
		CreatePool(w, authedRequest(http.MethodPost, "/api/v1/pools", strings.NewReader(body), primitive.NewObjectID()), nil)
		assert.Equal(mt, http.StatusForbidden, w.Code)
	})

	mt.Run("the creator is recorded on the pool", func(mt *mtest.T) {
		db.FarmersCollection = mt.Coll
		db.PoolsCollection = mt.Coll

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		userID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: primitive.NewObjectID()}, {Key: "userId", Value: userID},
			}),
			mtest.CreateSuccessResponse(),
		)

		w := httptest.NewRecorder()
		CreatePool(w, authedRequest(http.MethodPost, "/api/v1/pools", strings.NewReader(body), userID), nil)
		assert.Equal(mt, http.StatusCreated, w.Code)

		var resp struct {
			Pool struct {
				CreatedBy string `json:"createdBy"`
			} `json:"pool"`
		}
		assert.NoError(mt, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(mt, userID.Hex(), resp.Pool.CreatedBy)
	})
}

func TestClosePoolOnlyCreator(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("a non-creator close is refused", func(mt *mtest.T) {
		db.PoolsCollection = mt.Coll

		poolID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		w := httptest.NewRecorder()
		ps := httprouter.Params{{Key: "id", Value: poolID.Hex()}}
		ClosePool(w, authedRequest(http.MethodPost, "/api/v1/pools/"+poolID.Hex()+"/close", nil, primitive.NewObjectID()), ps)
		assert.Equal(mt, http.StatusConflict, w.Code)
	})
}
