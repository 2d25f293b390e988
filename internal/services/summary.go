package services

import (
	"catalog-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Summarize derives the inventory aggregates of a variant from its batches.
//
// weighted:   averageCostPrice = Σ(quantity × costPrice) / Σquantity
// batch_mean: averageCostPrice = ΣcostPrice / batchCount
//
// The profit margin is computed from the unrounded average and is nil when
// either the sell price or the reported average cost is zero.
func Summarize(variantID uuid.UUID, sellPrice decimal.Decimal, batches []models.ImportBatch, costMethod string) *models.InventorySummary {
	var totalQuantity int64
	totalValue := decimal.Zero
	sumCost := decimal.Zero

	for _, b := range batches {
		qty := decimal.NewFromInt(int64(b.Quantity))
		totalQuantity += int64(b.Quantity)
		totalValue = totalValue.Add(b.CostPrice.Mul(qty))
		sumCost = sumCost.Add(b.CostPrice)
	}

	average := decimal.Zero
	switch costMethod {
	case models.CostMethodBatchMean:
		if len(batches) > 0 {
			average = sumCost.Div(decimal.NewFromInt(int64(len(batches))))
		}
	default:
		costMethod = models.CostMethodWeighted
		if totalQuantity > 0 {
			average = totalValue.Div(decimal.NewFromInt(totalQuantity))
		}
	}

	reported := average.Round(2)
	summary := &models.InventorySummary{
		VariantID:           variantID,
		BatchCount:          len(batches),
		TotalQuantity:       totalQuantity,
		AverageCostPrice:    reported,
		TotalInventoryValue: totalValue.Round(2),
		SellPrice:           sellPrice,
		ProfitMarginDisplay: "-",
		CostMethod:          costMethod,
	}

	if !sellPrice.IsZero() && !reported.IsZero() {
		margin := sellPrice.Sub(average).Div(sellPrice).Round(4)
		summary.ProfitMargin = &margin
		summary.ProfitMarginDisplay = margin.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
	}
	return summary
}

// ValidCostMethod reports whether method is a supported average cost method
func ValidCostMethod(method string) bool {
	return method == models.CostMethodWeighted || method == models.CostMethodBatchMean
}
