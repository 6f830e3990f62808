package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kotpos/api/internal/database"
)

// DashboardStore is satisfied by *database.Queries.
type DashboardStore interface {
	GetDashboardStats(ctx context.Context, since time.Time) (database.GetDashboardStatsRow, error)
}

type DashboardHandler struct {
	store DashboardStore
	now   func() time.Time
}

func NewDashboardHandler(store DashboardStore) *DashboardHandler {
	return &DashboardHandler{store: store, now: time.Now}
}

// RegisterRoutes registers dashboard endpoints, mounted at /dashboard.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.Stats)
}

type dashboardStatsResponse struct {
	TotalUsers            int64  `json:"totalUsers"`
	TodayOrders           int64  `json:"todayOrders"`
	TodayRevenue          string `json:"todayRevenue"`
	StockItems            int64  `json:"stockItems"`
	LowStockItems         int64  `json:"lowStockItems"`
	PendingStockAdditions int64  `json:"pendingStockAdditions"`
	PendingReversals      int64  `json:"pendingReversals"`
}

// Stats handles GET /dashboard/stats. "Today" starts at local midnight.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stats, err := h.store.GetDashboardStats(r.Context(), midnight)
	if err != nil {
		writeInternal(w, "get dashboard stats", err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardStatsResponse{
		TotalUsers:            stats.TotalUsers,
		TodayOrders:           stats.TodayOrders,
		TodayRevenue:          moneyString(stats.TodayRevenue),
		StockItems:            stats.StockItems,
		LowStockItems:         stats.LowStockItems,
		PendingStockAdditions: stats.PendingStockAdditions,
		PendingReversals:      stats.PendingReversals,
	})
}
