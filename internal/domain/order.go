package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	Username   string          `json:"username,omitempty"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
	Lines      []OrderItem     `json:"lines,omitempty"`
}

// OrderItem records the quantity bought of one item. The price is not
// snapshotted; the order total is fixed at creation time.
type OrderItem struct {
	ID       int64  `json:"id"`
	OrderID  int64  `json:"orderId"`
	ItemID   int64  `json:"itemId"`
	ItemName string `json:"itemName,omitempty"`
	Quantity int    `json:"quantity"`
}

// TopItem is an item ranked by the total quantity sold.
type TopItem struct {
	ItemID   int64  `json:"itemId"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// DashboardSummary aggregates all persisted orders for staff.
type DashboardSummary struct {
	TotalOrders  int64           `json:"totalOrders"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	RecentOrders []Order         `json:"recentOrders"`
	TopItems     []TopItem       `json:"topItems"`
}
