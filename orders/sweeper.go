package orders

import (
	"context"
	"log"
	"time"

	"harvestlink/db"
	"harvestlink/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Sweeper auto-completes confirmed orders whose pickup estimate has passed.
// It runs one sweep immediately and then on a fixed interval, the server-side
// stand-in for the per-view timer the web client used to run.
type Sweeper struct {
	Interval time.Duration
}

func NewSweeper() *Sweeper {
	return &Sweeper{Interval: time.Minute}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now()
	filter := bson.M{
		"status":     models.OrderConfirmed,
		"pickupTime": bson.M{"$lte": now},
	}

	cursor, err := db.OrdersCollection.Find(sweepCtx, filter)
	if err != nil {
		log.Printf("order sweep: query failed: %v", err)
		return
	}

	var due []models.Order
	if err := cursor.All(sweepCtx, &due); err != nil {
		log.Printf("order sweep: decode failed: %v", err)
		return
	}

	for i := range due {
		order := &due[i]
		if !DueForAutoComplete(order.Status, order.PickupTime, now) {
			continue
		}
		// The status filter keeps the write idempotent: if the farmer marked
		// the order delivered between the query and here, nothing changes.
		res, err := db.OrdersCollection.UpdateOne(sweepCtx,
			bson.M{"_id": order.ID, "status": models.OrderConfirmed},
			bson.M{"$set": bson.M{"status": models.OrderCompleted, "updatedAt": now}})
		if err != nil {
			log.Printf("order sweep: update %s failed: %v", order.ID.Hex(), err)
			continue
		}
		if res.ModifiedCount == 0 {
			continue
		}

		order.Status = models.OrderCompleted
		order.UpdatedAt = now
		notifyParties(sweepCtx, order)
		log.Printf("order sweep: %s auto-completed", order.ID.Hex())
	}
}
