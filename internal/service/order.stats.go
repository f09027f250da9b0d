package service

import (
	"sort"

	"order-console/internal/domain"
)

// Stats summarizes orders for the staff dashboard. TimezoneStats holds pending
// account totals, largest first.
func Stats(orders []domain.Order) domain.OrderStats {
	stats := domain.OrderStats{Total: len(orders), TimezoneStats: []domain.TimezoneStat{}}
	pendingByTZ := map[string]int{}

	for _, o := range orders {
		switch o.Status {
		case domain.OrderPending:
			stats.Pending++
			pendingByTZ[o.Timezone] += o.AccountCount
		case domain.OrderProcessing:
			stats.Processing++
		case domain.OrderCompleted:
			stats.Completed++
			stats.TotalAccountsProvided += o.AccountCount
		case domain.OrderCancelled:
			stats.Cancelled++
		}
	}

	for tz, total := range pendingByTZ {
		stats.TimezoneStats = append(stats.TimezoneStats, domain.TimezoneStat{Timezone: tz, Total: total})
	}
	sort.Slice(stats.TimezoneStats, func(i, j int) bool {
		a, b := stats.TimezoneStats[i], stats.TimezoneStats[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Timezone < b.Timezone
	})
	return stats
}
