package store

import (
	"testing"

	"victoria-kids-api/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCalcTotals(t *testing.T) {
	items := []models.OrderItem{
		{ProductID: 1, Quantity: 2, Price: 19.99},
		{ProductID: 2, Quantity: 1, Price: 299.99},
	}

	subtotal, total := CalcTotals(items, 27.20, 9.99)

	assert.Equal(t, 339.97, subtotal)
	assert.Equal(t, 377.16, total)
}

func TestCalcTotalsNoExtras(t *testing.T) {
	items := []models.OrderItem{
		{ProductID: 1, Quantity: 3, Price: 24.99},
	}

	subtotal, total := CalcTotals(items, 0, 0)

	assert.Equal(t, 74.97, subtotal)
	assert.Equal(t, subtotal, total)
}

func TestCalcTotalsEmpty(t *testing.T) {
	subtotal, total := CalcTotals(nil, 5, 10)

	assert.Equal(t, 0.0, subtotal)
	assert.Equal(t, 15.0, total)
}

// Binary floats drop cents on naive accumulation; CalcTotals must not.
func TestCalcTotalsRounding(t *testing.T) {
	items := []models.OrderItem{
		{ProductID: 1, Quantity: 3, Price: 0.10},
	}

	subtotal, total := CalcTotals(items, 0.01, 0)

	assert.Equal(t, 0.30, subtotal)
	assert.Equal(t, 0.31, total)
}
