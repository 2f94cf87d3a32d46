package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	UpsertBatch(ctx context.Context, items []Player) error
	List(ctx context.Context) ([]Player, error)
	ListByTeam(ctx context.Context, teamExternalID string) ([]Player, error)
	GetByExternalID(ctx context.Context, externalID string) (Player, bool, error)
}
