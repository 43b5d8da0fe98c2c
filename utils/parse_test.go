package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 4.5, ParseFloat("4.5"))
	assert.Equal(t, 0.0, ParseFloat(""))
	assert.Equal(t, 0.0, ParseFloat("not a number"))
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 12, ParseInt("12"))
	assert.Equal(t, 0, ParseInt(""))
	assert.Equal(t, 0, ParseInt("3.5"))
}

func TestParseDate(t *testing.T) {
	d := ParseDate("2025-06-01")
	if assert.NotNil(t, d) {
		assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), *d)
	}

	rfc := ParseDate("2025-06-01T10:30:00Z")
	if assert.NotNil(t, rfc) {
		assert.Equal(t, 10, rfc.Hour())
	}

	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("yesterday"))
}
