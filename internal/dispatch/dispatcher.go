// Package dispatch executes report-generation jobs through interchangeable
// backends: a local subprocess runner and a remote HTTP service. Which
// backend a dispatcher uses is decided once at construction, never from
// ambient process state.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justin-graham/AFBaseball/internal/platform/id"
	"github.com/justin-graham/AFBaseball/internal/platform/logging"
	"github.com/justin-graham/AFBaseball/internal/usecase"
)

// DefaultTimeout bounds a single report job. Report generation renders
// multi-page PDFs and can legitimately run minutes.
const DefaultTimeout = 300 * time.Second

// Backend runs one job to completion. Implementations must honor ctx
// cancellation for local waiting; remote work may still finish on the other
// side after the caller stops waiting.
type Backend interface {
	Run(ctx context.Context, job usecase.ReportJob) (usecase.ReportOutcome, error)
}

type DispatcherConfig struct {
	Backend Backend
	Timeout time.Duration
	IDs     id.Generator
	Logger  *logging.Logger
}

type Dispatcher struct {
	backend Backend
	timeout time.Duration
	ids     id.Generator
	logger  *logging.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ids := cfg.IDs
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		backend: cfg.Backend,
		timeout: timeout,
		ids:     ids,
		logger:  logger,
	}
}

// Dispatch runs job through the configured backend under the dispatcher
// timeout. On timeout the dispatcher stops waiting; a remote backend may
// still complete the job on its side.
func (d *Dispatcher) Dispatch(ctx context.Context, job usecase.ReportJob) (usecase.ReportOutcome, error) {
	if job.ID == "" {
		generated, err := d.ids.NewID()
		if err != nil {
			return usecase.ReportOutcome{Status: usecase.ReportStatusFailed}, fmt.Errorf("generate job id: %w", err)
		}
		job.ID = generated
	}

	outcome := usecase.ReportOutcome{JobID: job.ID, Status: usecase.ReportStatusPending}

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	outcome.Status = usecase.ReportStatusRunning
	d.logger.InfoContext(ctx, "dispatching report job",
		"job_id", job.ID,
		"kind", string(job.Kind),
		"timeout", d.timeout.String(),
	)

	started := time.Now()
	result, err := d.backend.Run(runCtx, job)
	elapsed := time.Since(started)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || runCtx.Err() == context.DeadlineExceeded {
			outcome.Status = usecase.ReportStatusTimedOut
			d.logger.WarnContext(ctx, "report job timed out", "job_id", job.ID, "elapsed", elapsed.String())
			return outcome, fmt.Errorf("%w: job %s exceeded %s", usecase.ErrReportTimeout, job.ID, d.timeout)
		}
		outcome.Status = usecase.ReportStatusFailed
		d.logger.WarnContext(ctx, "report job failed", "job_id", job.ID, "elapsed", elapsed.String(), "error", err)
		return outcome, fmt.Errorf("run report job %s: %w", job.ID, err)
	}

	result.JobID = job.ID
	if result.Success {
		result.Status = usecase.ReportStatusSucceeded
	} else {
		result.Status = usecase.ReportStatusFailed
	}
	d.logger.InfoContext(ctx, "report job finished",
		"job_id", job.ID,
		"status", string(result.Status),
		"elapsed", elapsed.String(),
	)
	return result, nil
}
