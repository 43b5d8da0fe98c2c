package listings

import (
	"testing"

	"harvestlink/models"

	"github.com/stretchr/testify/assert"
)

func TestNextStockStatus(t *testing.T) {
	assert.Equal(t, models.ListingOutOfStock, nextStockStatus(models.ListingAvailable))
	assert.Equal(t, models.ListingAvailable, nextStockStatus(models.ListingOutOfStock))

	// Two toggles land back on the starting status.
	assert.Equal(t, models.ListingAvailable, nextStockStatus(nextStockStatus(models.ListingAvailable)))
	assert.Equal(t, models.ListingOutOfStock, nextStockStatus(nextStockStatus(models.ListingOutOfStock)))
}
