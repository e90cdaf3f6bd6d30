package service

import (
	"context"
	"sort"

	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
)

// SourceBuckets classifies a SKU's batches by origin
type SourceBuckets struct {
	NewArrivals int `json:"new_arrivals"`
	FromReturns int `json:"from_returns"`
}

// SKUSummary is the per-SKU rollup
type SKUSummary struct {
	SKU                string              `json:"sku"`
	ProductName        string              `json:"product_name"`
	TotalAvailable     int                 `json:"total_available"`
	TotalItems         int                 `json:"total_items"`
	ItemsWithSerial    int                 `json:"items_with_serial"`
	ItemsWithoutSerial int                 `json:"items_without_serial"`
	Sources            SourceBuckets       `json:"sources"`
	Batches            []*repository.Batch `json:"batches"`
}

// Stats is the global inventory rollup
type Stats struct {
	TotalBatches               int64   `json:"total_batches"`
	TotalItems                 int64   `json:"total_items"`
	TotalAvailableItems        int64   `json:"total_available_items"`
	TotalReservedItems         int64   `json:"total_reserved_items"`
	TotalDeliveredItems        int64   `json:"total_delivered_items"`
	TotalReturnedItems         int64   `json:"total_returned_items"`
	UniqueSKUs                 int     `json:"unique_skus"`
	ItemsWithSerialNumbers     int64   `json:"items_with_serial_numbers"`
	ItemsWithoutSerialNumbers  int64   `json:"items_without_serial_numbers"`
	SerialNumberAssignmentRate float64 `json:"serial_number_assignment_rate"`
}

// SummaryBySKU rolls up all batches by SKU. Read-only; runs against a
// snapshot and may trail in-flight transactions.
func (s *InventoryService) SummaryBySKU(ctx context.Context) ([]*SKUSummary, error) {
	batches, err := s.batches.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	bySKU := make(map[string]*SKUSummary)
	for _, batch := range batches {
		summary, ok := bySKU[batch.SKU]
		if !ok {
			summary = &SKUSummary{
				SKU:         batch.SKU,
				ProductName: batch.ProductName,
				Batches:     []*repository.Batch{},
			}
			bySKU[batch.SKU] = summary
		}

		summary.TotalAvailable += batch.AvailableQuantity
		summary.TotalItems += batch.TotalQuantity
		summary.ItemsWithSerial += batch.SerialsAssigned
		summary.ItemsWithoutSerial += batch.SerialsUnassigned
		switch batch.Source {
		case repository.BatchSourceNewArrival:
			summary.Sources.NewArrivals++
		case repository.BatchSourceFromReturn:
			summary.Sources.FromReturns++
		}
		summary.Batches = append(summary.Batches, batch)
	}

	summaries := make([]*SKUSummary, 0, len(bySKU))
	for _, summary := range bySKU {
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SKU < summaries[j].SKU
	})
	return summaries, nil
}

// GetStats computes the global inventory stats
func (s *InventoryService) GetStats(ctx context.Context) (*Stats, error) {
	batches, err := s.batches.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.items.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	withSerial, withoutSerial, err := s.items.CountSerials(ctx)
	if err != nil {
		return nil, err
	}

	skus := make(map[string]struct{}, len(batches))
	for _, batch := range batches {
		skus[batch.SKU] = struct{}{}
	}

	stats := &Stats{
		TotalBatches:              int64(len(batches)),
		TotalAvailableItems:       statusCounts[repository.ItemStatusAvailable],
		TotalReservedItems:        statusCounts[repository.ItemStatusReserved],
		TotalDeliveredItems:       statusCounts[repository.ItemStatusDelivered],
		TotalReturnedItems:        statusCounts[repository.ItemStatusReturned],
		UniqueSKUs:                len(skus),
		ItemsWithSerialNumbers:    withSerial,
		ItemsWithoutSerialNumbers: withoutSerial,
	}
	stats.TotalItems = withSerial + withoutSerial
	if stats.TotalItems > 0 {
		stats.SerialNumberAssignmentRate = float64(withSerial) / float64(stats.TotalItems) * 100
	}
	return stats, nil
}
