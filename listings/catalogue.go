package listings

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"harvestlink/db"
	"harvestlink/rdx"
	"harvestlink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const catalogueCacheKey = "listing_catalogue"

// GetCatalogue returns per-category availability: listing count, price range
// and in-stock count. Served from redis when warm, recomputed from Mongo
// otherwise.
func GetCatalogue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var catalogue []bson.M
	if rdx.Conn != nil {
		if val, err := rdx.Conn.Get(ctx, catalogueCacheKey).Result(); err == nil && val != "" {
			if err := json.Unmarshal([]byte(val), &catalogue); err == nil {
				utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "catalogue": catalogue})
				return
			}
		}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":      "$category",
			"minPrice": bson.M{"$min": "$pricePerUnit"},
			"maxPrice": bson.M{"$max": "$pricePerUnit"},
			"listings": bson.M{"$sum": 1},
			"availableCount": bson.M{
				"$sum": bson.M{
					"$cond": []interface{}{
						bson.M{"$gt": []interface{}{"$quantity", 0}}, 1, 0,
					},
				},
			},
		}}},
		{{Key: "$project", Value: bson.M{
			"category":       "$_id",
			"minPrice":       1,
			"maxPrice":       1,
			"listings":       1,
			"availableCount": 1,
			"_id":            0,
		}}},
		{{Key: "$sort", Value: bson.M{"category": 1}}},
	}

	cursor, err := db.ListingsCollection.Aggregate(ctx, pipeline)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to fetch catalogue"})
		return
	}
	if err := cursor.All(ctx, &catalogue); err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to decode catalogue"})
		return
	}
	if catalogue == nil {
		catalogue = []bson.M{}
	}

	if rdx.Conn != nil {
		if jsonBytes, err := json.Marshal(catalogue); err == nil {
			_ = rdx.Conn.Set(ctx, catalogueCacheKey, jsonBytes, 2*time.Hour).Err()
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "catalogue": catalogue})
}

// InvalidateCatalogueCache drops the cached catalogue after a listing write.
func InvalidateCatalogueCache() {
	if rdx.Conn == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = rdx.Conn.Del(ctx, catalogueCacheKey).Err()
}
