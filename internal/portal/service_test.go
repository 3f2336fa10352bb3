package portal

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taller-erp/taller-erp/internal/repairorders"
	"github.com/taller-erp/taller-erp/internal/sales"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeStats(t *testing.T) {
	orders := []repairorders.RepairOrder{
		{Status: repairorders.StatusReceived},
		{Status: repairorders.StatusDiagnosing},
		{Status: repairorders.StatusRepairing},
		{Status: repairorders.StatusRepaired},
		{Status: repairorders.StatusDelivered, TotalCost: dec("150")},
		{Status: repairorders.StatusCancelled, TotalCost: dec("999")},
	}
	saleList := []sales.Sale{
		{Total: dec("80")},
		{Total: dec("20")},
	}

	stats := computeStats(orders, saleList)

	assert.Equal(t, 2, stats.PendingRepairs)
	assert.Equal(t, 2, stats.ActiveRepairs)
	// Delivered repairs and finalized sales count; cancelled work does not.
	assert.True(t, stats.TotalSpent.Equal(dec("250")), "got %s", stats.TotalSpent)
}

func TestCacheWithoutClientCallsLoader(t *testing.T) {
	var cache *Cache

	var out Stats
	calls := 0
	err := cache.FetchJSON(context.Background(), "portal:view:CL-TEST", &out, func(context.Context) (interface{}, error) {
		calls++
		return Stats{PendingRepairs: 3, TotalSpent: dec("10")}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, out.PendingRepairs)

	loaderErr := errors.New("boom")
	err = cache.FetchJSON(context.Background(), "portal:view:CL-TEST", &out, func(context.Context) (interface{}, error) {
		return nil, loaderErr
	})
	assert.ErrorIs(t, err, loaderErr)
}
