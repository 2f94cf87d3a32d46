// Package cache decorates the postgres repositories with a TTL read cache.
// Sync writes invalidate every key for the written entity so dashboard reads
// never serve a roster older than the invalidation window after a sync.
package cache

import (
	"context"

	"github.com/justin-graham/AFBaseball/internal/domain/player"
	"github.com/justin-graham/AFBaseball/internal/domain/team"
	basecache "github.com/justin-graham/AFBaseball/internal/platform/cache"
)

const (
	teamKeyPrefix   = "team:"
	playerKeyPrefix = "player:"
)

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) UpsertBatch(ctx context.Context, items []team.Team) error {
	if err := r.next.UpsertBatch(ctx, items); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, teamKeyPrefix)
	return nil
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	v, err := r.cache.GetOrLoad(ctx, "team:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]team.Team)
	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) GetByExternalID(ctx context.Context, externalID string) (team.Team, bool, error) {
	key := "team:id:" + externalID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByExternalID(ctx, externalID)
		if err != nil {
			return nil, err
		}
		return cachedTeamByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeamByID)
	return cached.value, cached.exists, nil
}

type cachedTeamByID struct {
	value  team.Team
	exists bool
}

type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) UpsertBatch(ctx context.Context, items []player.Player) error {
	if err := r.next.UpsertBatch(ctx, items); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, playerKeyPrefix)
	return nil
}

func (r *PlayerRepository) List(ctx context.Context) ([]player.Player, error) {
	v, err := r.cache.GetOrLoad(ctx, "player:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]player.Player, 0, len(items))
		for _, item := range items {
			out = append(out, clonePlayer(item))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]player.Player)
	out := make([]player.Player, 0, len(items))
	for _, item := range items {
		out = append(out, clonePlayer(item))
	}
	return out, nil
}

func (r *PlayerRepository) ListByTeam(ctx context.Context, teamExternalID string) ([]player.Player, error) {
	key := "player:list:team:" + teamExternalID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByTeam(ctx, teamExternalID)
		if err != nil {
			return nil, err
		}
		out := make([]player.Player, 0, len(items))
		for _, item := range items {
			out = append(out, clonePlayer(item))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]player.Player)
	out := make([]player.Player, 0, len(items))
	for _, item := range items {
		out = append(out, clonePlayer(item))
	}
	return out, nil
}

func (r *PlayerRepository) GetByExternalID(ctx context.Context, externalID string) (player.Player, bool, error) {
	key := "player:id:" + externalID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByExternalID(ctx, externalID)
		if err != nil {
			return nil, err
		}
		return cachedPlayerByID{value: clonePlayer(item), exists: exists}, nil
	})
	if err != nil {
		return player.Player{}, false, err
	}

	cached, _ := v.(cachedPlayerByID)
	return clonePlayer(cached.value), cached.exists, nil
}

type cachedPlayerByID struct {
	value  player.Player
	exists bool
}

// clonePlayer copies the stats map so cached entries stay immutable.
func clonePlayer(item player.Player) player.Player {
	out := item
	if item.Stats != nil {
		out.Stats = make(map[string]float64, len(item.Stats))
		for key, value := range item.Stats {
			out.Stats[key] = value
		}
	}
	return out
}
