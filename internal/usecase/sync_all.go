package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	syncStatusSuccess = "success"
	syncStatusFailed  = "failed"
)

type SyncAllResult struct {
	TaskCount    int              `json:"task_count"`
	SuccessCount int              `json:"success_count"`
	FailedCount  int              `json:"failed_count"`
	WorkerCount  int              `json:"worker_count"`
	Tasks        []SyncTaskResult `json:"tasks"`
}

type SyncTaskResult struct {
	Table      string `json:"table"`
	Status     string `json:"status"`
	Fetched    int    `json:"fetched"`
	Dropped    int    `json:"dropped"`
	Upserted   int    `json:"upserted"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

type syncTask struct {
	table string
	run   func(context.Context) (SyncResult, error)
}

// SyncAll refreshes every roster table through a worker pool. Tasks fail
// independently: a broken players fetch does not block the teams sync.
func (s *RosterSyncService) SyncAll(ctx context.Context) (SyncAllResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterSyncService.SyncAll")
	defer span.End()

	if err := s.ready(); err != nil {
		return SyncAllResult{}, err
	}

	tasks := []syncTask{
		{table: tableNameTeams, run: s.SyncTeams},
		{table: tableNamePlayers, run: s.SyncPlayers},
	}

	workerCount := s.cfg.MaxWorkers
	if workerCount <= 0 || workerCount > len(tasks) {
		workerCount = len(tasks)
	}

	result := SyncAllResult{
		TaskCount:   len(tasks),
		WorkerCount: workerCount,
		Tasks:       make([]SyncTaskResult, 0, len(tasks)),
	}

	results := make(chan SyncTaskResult, len(tasks))

	var successCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return SyncAllResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, task := range tasks {
		task := task
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := SyncTaskResult{Table: task.table}

			taskResult, taskErr := task.run(ctx)
			row.Fetched = taskResult.Fetched
			row.Dropped = taskResult.Dropped
			row.Upserted = taskResult.Upserted
			row.DurationMs = time.Since(start).Milliseconds()

			if taskErr != nil {
				row.Status = syncStatusFailed
				row.Message = taskErr.Error()
				failedCount.Add(1)
			} else {
				row.Status = syncStatusSuccess
				successCount.Add(1)
			}

			results <- row
		}); err != nil {
			workers.Done()
			return SyncAllResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].Table < result.Tasks[j].Table
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	return result, nil
}
