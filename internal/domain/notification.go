package domain

import (
	"fmt"
	"time"
)

type NotificationID string

type NotificationKind string

const (
	KindMarketResolved NotificationKind = "market_resolved"
	KindForecastWon    NotificationKind = "forecast_won"
	KindForecastLost   NotificationKind = "forecast_lost"
	KindChipsGranted   NotificationKind = "chips_granted"
	KindSystem         NotificationKind = "system"
)

type Notification struct {
	ID        NotificationID
	Kind      NotificationKind
	Message   string
	Read      bool
	CreatedAt time.Time
	Meta      map[string]string
}

var kindLabels = map[NotificationKind]string{
	KindMarketResolved: "market resolved",
	KindForecastWon:    "forecast won",
	KindForecastLost:   "forecast lost",
	KindChipsGranted:   "chips granted",
	KindSystem:         "system",
}

// Label returns the display label for a kind. Unknown kinds map to the
// system label so a newer server cannot break rendering.
func (k NotificationKind) Label() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return kindLabels[KindSystem]
}

func (k NotificationKind) Known() bool {
	_, ok := kindLabels[k]
	return ok
}

func (n Notification) String() string {
	return fmt.Sprintf("[%s] %s", n.Kind.Label(), n.Message)
}
