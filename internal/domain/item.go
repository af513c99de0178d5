package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a purchasable menu entry.
type Item struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Available bool            `json:"available"`
	Image     string          `json:"image,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ItemFilter narrows a menu listing. Zero values mean "no filter".
type ItemFilter struct {
	Search        string
	Category      string
	AvailableOnly bool
}
