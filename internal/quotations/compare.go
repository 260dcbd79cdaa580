package quotations

import (
	"github.com/shopspring/decimal"

	"github.com/partsbridge/marketplace/pkg/db/models"
	"github.com/partsbridge/marketplace/pkg/enums"
)

const averagePlaces = 2

// compare builds the comparison over responses. Withdrawn responses are left
// out; accepted and rejected ones stay so a closed request still compares.
func compare(request models.QuotationRequest, responses []models.QuotationResponse) Comparison {
	result := Comparison{
		RequestID:        request.ID,
		Items:            make([]RequestItemDTO, 0, len(request.Items)),
		Responses:        make([]ResponseSummary, 0, len(responses)),
		BestPrice:        decimal.Zero,
		WorstPrice:       decimal.Zero,
		AveragePrice:     decimal.Zero,
		BestDeliveryDays: decimal.Zero,
	}
	for _, item := range request.Items {
		result.Items = append(result.Items, toRequestItemDTO(item))
	}

	sum := decimal.Zero
	for _, resp := range responses {
		if resp.Status == enums.QuotationResponseStatusCancelled {
			continue
		}
		summary := ResponseSummary{
			ResponseID:          resp.ID,
			DistributorID:       resp.DistributorID,
			Status:              resp.Status,
			TotalPrice:          resp.TotalPrice,
			AverageDeliveryDays: averageDeliveryDays(resp.Items),
		}
		if resp.Distributor != nil {
			summary.DistributorName = resp.Distributor.CompanyName
		}

		if result.ResponseCount == 0 {
			result.BestPrice = summary.TotalPrice
			result.WorstPrice = summary.TotalPrice
			result.BestDeliveryDays = summary.AverageDeliveryDays
		} else {
			if summary.TotalPrice.LessThan(result.BestPrice) {
				result.BestPrice = summary.TotalPrice
			}
			if summary.TotalPrice.GreaterThan(result.WorstPrice) {
				result.WorstPrice = summary.TotalPrice
			}
			if summary.AverageDeliveryDays.LessThan(result.BestDeliveryDays) {
				result.BestDeliveryDays = summary.AverageDeliveryDays
			}
		}
		sum = sum.Add(summary.TotalPrice)
		result.ResponseCount++
		result.Responses = append(result.Responses, summary)
	}
	if result.ResponseCount == 0 {
		return result
	}

	result.AveragePrice = sum.DivRound(decimal.NewFromInt(int64(result.ResponseCount)), averagePlaces)
	for i := range result.Responses {
		result.Responses[i].IsBestPrice = result.Responses[i].TotalPrice.Equal(result.BestPrice)
		result.Responses[i].IsFastest = result.Responses[i].AverageDeliveryDays.Equal(result.BestDeliveryDays)
	}
	return result
}

// averageDeliveryDays is the mean lead time across the response lines.
func averageDeliveryDays(items []models.QuotationResponseItem) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}
	total := 0
	for _, item := range items {
		total += item.DeliveryDays
	}
	return decimal.NewFromInt(int64(total)).DivRound(decimal.NewFromInt(int64(len(items))), averagePlaces)
}

// estimatedDeliveryDays rounds the average lead time to whole days for the
// order produced on acceptance.
func estimatedDeliveryDays(items []models.QuotationResponseItem) *int {
	if len(items) == 0 {
		return nil
	}
	days := int(averageDeliveryDays(items).Round(0).IntPart())
	return &days
}
