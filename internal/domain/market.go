package domain

import "time"

type MarketID string

type MarketStatus string

const (
	MarketOpen     MarketStatus = "open"
	MarketClosed   MarketStatus = "closed"
	MarketResolved MarketStatus = "resolved"
)

// Market is a read-only browse snapshot; all market business rules live
// server-side.
type Market struct {
	ID         MarketID
	Question   string
	Status     MarketStatus
	YesPercent float64
	Pool       int64
	ClosesAt   time.Time
}

type Forecast struct {
	MarketID MarketID
	Outcome  string
	Stake    int64
}
