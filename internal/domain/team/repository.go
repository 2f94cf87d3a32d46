package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	UpsertBatch(ctx context.Context, items []Team) error
	List(ctx context.Context) ([]Team, error)
	GetByExternalID(ctx context.Context, externalID string) (Team, bool, error)
}
