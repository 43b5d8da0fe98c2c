package orders

import (
	"testing"
	"time"

	"harvestlink/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuantity(t *testing.T) {
	cases := []struct {
		name      string
		requested int
		available int
		wantErr   bool
	}{
		{"zero rejected", 0, 10, true},
		{"negative rejected", -3, 10, true},
		{"over available rejected", 11, 10, true},
		{"exactly available accepted", 10, 10, false},
		{"one accepted", 1, 10, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateQuantity(c.requested, c.available)
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTotalPrice(t *testing.T) {
	assert.Equal(t, 13.50, TotalPrice(3, 4.50))
	assert.Equal(t, 0.30, TotalPrice(3, 0.1))
	assert.Equal(t, 100.00, TotalPrice(4, 25))
	assert.Equal(t, 2.50, TotalPrice(1, 2.499999999))
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{models.OrderPending, models.OrderConfirmed},
		{models.OrderPending, models.OrderCancelled},
		{models.OrderConfirmed, models.OrderCompleted},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	forbidden := [][2]string{
		{models.OrderPending, models.OrderCompleted},
		{models.OrderConfirmed, models.OrderPending},
		{models.OrderConfirmed, models.OrderCancelled},
		{models.OrderCompleted, models.OrderConfirmed},
		{models.OrderCompleted, models.OrderCompleted},
		{models.OrderCancelled, models.OrderConfirmed},
	}
	for _, tr := range forbidden {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestDueForAutoComplete(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, DueForAutoComplete(models.OrderConfirmed, &past, now))
	assert.True(t, DueForAutoComplete(models.OrderConfirmed, &now, now), "exactly at the estimate counts as due")
	assert.False(t, DueForAutoComplete(models.OrderConfirmed, &future, now))
	assert.False(t, DueForAutoComplete(models.OrderConfirmed, nil, now))

	// Only confirmed orders auto-complete; a completed one stays untouched
	// no matter how often it is checked.
	assert.False(t, DueForAutoComplete(models.OrderPending, &past, now))
	assert.False(t, DueForAutoComplete(models.OrderCompleted, &past, now))
	assert.False(t, DueForAutoComplete(models.OrderCancelled, &past, now))
}
