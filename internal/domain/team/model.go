package team

import (
	"fmt"
	"time"
)

// Team is a college program as identified by the analytics feed.
type Team struct {
	ExternalID string
	Name       string
	Abbrev     string
	SyncedAt   time.Time
}

func (t Team) Validate() error {
	if t.ExternalID == "" {
		return fmt.Errorf("team external id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
