package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const getDashboardStats = `-- name: GetDashboardStats :one
SELECT
    (SELECT count(*) FROM users WHERE is_active = true)                                  AS total_users,
    (SELECT count(*) FROM kots WHERE created_at >= $1)                                   AS today_orders,
    (SELECT count(*) FROM ingredients)                                                   AS stock_items,
    (SELECT count(*) FROM ingredients WHERE current_stock <= minimum_threshold)          AS low_stock_items,
    (SELECT count(*) FROM stock_additions WHERE status = 'pending')                      AS pending_stock_additions,
    (SELECT count(*) FROM order_reversals WHERE status = 'pending')                      AS pending_reversals,
    (SELECT COALESCE(sum(final_amount), 0) FROM bills WHERE created_at >= $1)::numeric   AS today_revenue
`

type GetDashboardStatsRow struct {
	TotalUsers            int64          `json:"total_users"`
	TodayOrders           int64          `json:"today_orders"`
	StockItems            int64          `json:"stock_items"`
	LowStockItems         int64          `json:"low_stock_items"`
	PendingStockAdditions int64          `json:"pending_stock_additions"`
	PendingReversals      int64          `json:"pending_reversals"`
	TodayRevenue          pgtype.Numeric `json:"today_revenue"`
}

func (q *Queries) GetDashboardStats(ctx context.Context, since time.Time) (GetDashboardStatsRow, error) {
	row := q.db.QueryRow(ctx, getDashboardStats, since)
	var i GetDashboardStatsRow
	err := row.Scan(
		&i.TotalUsers,
		&i.TodayOrders,
		&i.StockItems,
		&i.LowStockItems,
		&i.PendingStockAdditions,
		&i.PendingReversals,
		&i.TodayRevenue,
	)
	return i, err
}
