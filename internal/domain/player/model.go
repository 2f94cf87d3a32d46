package player

import (
	"fmt"
	"time"
)

// Player is a rostered athlete keyed by the analytics feed identifier.
// Stats carries the season batting line as loosely-typed numeric columns;
// cells the feed could not express numerically are simply absent.
type Player struct {
	ExternalID     string
	Name           string
	TeamExternalID string
	SeasonYear     int
	Stats          map[string]float64
	SyncedAt       time.Time
}

func (p Player) Validate() error {
	if p.ExternalID == "" {
		return fmt.Errorf("player external id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if p.SeasonYear <= 0 {
		return fmt.Errorf("player season year must be greater than zero")
	}

	return nil
}
