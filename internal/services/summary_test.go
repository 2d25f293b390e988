package services

import (
	"testing"
	"time"

	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}

func batchesOf(lines ...[2]string) []models.ImportBatch {
	batches := make([]models.ImportBatch, len(lines))
	for i, l := range lines {
		qty := dec(l[0]).IntPart()
		batches[i] = models.ImportBatch{
			ID:         uuid.New(),
			ImportDate: time.Date(2026, 1, i+1, 0, 0, 0, 0, time.UTC),
			Quantity:   int(qty),
			CostPrice:  dec(l[1]),
		}
	}
	return batches
}

// ===========================================
// Summarize Tests
// ===========================================

func TestSummarize_WeightedAverage(t *testing.T) {
	batches := batchesOf([2]string{"10", "5"}, [2]string{"20", "7"})

	summary := Summarize(uuid.New(), dec("10"), batches, models.CostMethodWeighted)

	assert.Equal(t, 2, summary.BatchCount)
	assert.Equal(t, int64(30), summary.TotalQuantity)
	assertDecimal(t, "190", summary.TotalInventoryValue)
	assertDecimal(t, "6.33", summary.AverageCostPrice)
	require.NotNil(t, summary.ProfitMargin)
	assertDecimal(t, "0.3667", *summary.ProfitMargin)
	assert.Equal(t, "36.67%", summary.ProfitMarginDisplay)
	assert.Equal(t, models.CostMethodWeighted, summary.CostMethod)
}

func TestSummarize_BatchMean(t *testing.T) {
	batches := batchesOf([2]string{"10", "5"}, [2]string{"20", "7"})

	summary := Summarize(uuid.New(), dec("10"), batches, models.CostMethodBatchMean)

	assert.Equal(t, int64(30), summary.TotalQuantity)
	assertDecimal(t, "190", summary.TotalInventoryValue)
	assertDecimal(t, "6.00", summary.AverageCostPrice)
	require.NotNil(t, summary.ProfitMargin)
	assertDecimal(t, "0.4", *summary.ProfitMargin)
	assert.Equal(t, "40.00%", summary.ProfitMarginDisplay)
	assert.Equal(t, models.CostMethodBatchMean, summary.CostMethod)
}

func TestSummarize_UnknownMethodUsesWeighted(t *testing.T) {
	batches := batchesOf([2]string{"1", "10"}, [2]string{"3", "2"})

	summary := Summarize(uuid.New(), dec("8"), batches, "fifo")

	assertDecimal(t, "4", summary.AverageCostPrice)
	assert.Equal(t, models.CostMethodWeighted, summary.CostMethod)
}

func TestSummarize_NoBatches(t *testing.T) {
	summary := Summarize(uuid.New(), dec("99.99"), nil, models.CostMethodWeighted)

	assert.Equal(t, 0, summary.BatchCount)
	assert.Equal(t, int64(0), summary.TotalQuantity)
	assert.True(t, summary.AverageCostPrice.IsZero())
	assert.True(t, summary.TotalInventoryValue.IsZero())
	assert.Nil(t, summary.ProfitMargin)
	assert.Equal(t, "-", summary.ProfitMarginDisplay)
}

func TestSummarize_ZeroSellPrice(t *testing.T) {
	batches := batchesOf([2]string{"4", "12.50"})

	summary := Summarize(uuid.New(), decimal.Zero, batches, models.CostMethodWeighted)

	assertDecimal(t, "12.50", summary.AverageCostPrice)
	assertDecimal(t, "50", summary.TotalInventoryValue)
	assert.Nil(t, summary.ProfitMargin)
	assert.Equal(t, "-", summary.ProfitMarginDisplay)
}

func TestSummarize_NegativeMargin(t *testing.T) {
	batches := batchesOf([2]string{"2", "150"})

	summary := Summarize(uuid.New(), dec("100"), batches, models.CostMethodWeighted)

	require.NotNil(t, summary.ProfitMargin)
	assertDecimal(t, "-0.5", *summary.ProfitMargin)
	assert.Equal(t, "-50.00%", summary.ProfitMarginDisplay)
}

func TestSummarize_OrderIndependent(t *testing.T) {
	forward := batchesOf([2]string{"3", "1.10"}, [2]string{"7", "2.35"}, [2]string{"11", "0.95"})
	reversed := []models.ImportBatch{forward[2], forward[1], forward[0]}

	for _, method := range []string{models.CostMethodWeighted, models.CostMethodBatchMean} {
		a := Summarize(uuid.Nil, dec("5"), forward, method)
		b := Summarize(uuid.Nil, dec("5"), reversed, method)
		assert.True(t, a.AverageCostPrice.Equal(b.AverageCostPrice), method)
		assert.True(t, a.TotalInventoryValue.Equal(b.TotalInventoryValue), method)
		assert.Equal(t, a.ProfitMarginDisplay, b.ProfitMarginDisplay, method)
	}
}

func TestValidCostMethod(t *testing.T) {
	assert.True(t, ValidCostMethod(models.CostMethodWeighted))
	assert.True(t, ValidCostMethod(models.CostMethodBatchMean))
	assert.False(t, ValidCostMethod(""))
	assert.False(t, ValidCostMethod("average"))
}
