package favorites

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"harvestlink/db"
	"harvestlink/globals"

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

func favorited(w *httptest.ResponseRecorder) bool {
	var resp struct {
		Favorited bool `json:"favorited"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.Favorited
}

func TestToggleListingFavoriteRoundTrip(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("two toggles land back where they started", func(mt *mtest.T) {
		db.FavoritesCollection = mt.Coll

		userID := primitive.NewObjectID()
		listingID := primitive.NewObjectID()
		target := "/api/v1/favorites/listing/" + listingID.Hex()
		ps := httprouter.Params{{Key: "id", Value: listingID.Hex()}}

		// Nothing to delete yet, so the first toggle inserts the bookmark.
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateSuccessResponse(),
		)
		w := httptest.NewRecorder()
		ToggleListingFavorite(w, authedRequest(http.MethodPut, target, userID), ps)
		assert.Equal(mt, http.StatusOK, w.Code)
		assert.True(mt, favorited(w))

		// The second toggle finds and deletes it again.
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		w = httptest.NewRecorder()
		ToggleListingFavorite(w, authedRequest(http.MethodPut, target, userID), ps)
		assert.Equal(mt, http.StatusOK, w.Code)
		assert.False(mt, favorited(w))
	})
}
