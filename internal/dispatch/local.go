package dispatch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/justin-graham/AFBaseball/internal/platform/logging"
	"github.com/justin-graham/AFBaseball/internal/usecase"
)

const (
	// Result frame markers emitted by the report generators. Everything
	// outside the frame is diagnostic logging and is ignored.
	resultFrameStart = "__RESULT_JSON__:"
	resultFrameEnd   = ":__END_RESULT__"

	// DefaultMaxOutputBytes caps combined subprocess output. A runaway
	// generator that logs past this is killed-by-proxy: the run is failed
	// rather than buffering without bound.
	DefaultMaxOutputBytes = 10 << 20

	defaultRunner = "python3"
)

var scriptByKind = map[usecase.ReportKind]string{
	usecase.ReportKindPitching: "pitching_report.py",
	usecase.ReportKindScouting: "scouting_report.py",
	usecase.ReportKindUmpire:   "umpire_report.py",
}

type LocalBackendConfig struct {
	Runner         string
	ScriptDir      string
	OutputDir      string
	MaxOutputBytes int
	Logger         *logging.Logger
}

// LocalBackend runs report generators as subprocesses on this host.
type LocalBackend struct {
	runner         string
	scriptDir      string
	outputDir      string
	maxOutputBytes int
	logger         *logging.Logger
}

func NewLocalBackend(cfg LocalBackendConfig) *LocalBackend {
	runner := strings.TrimSpace(cfg.Runner)
	if runner == "" {
		runner = defaultRunner
	}
	maxOutput := cfg.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &LocalBackend{
		runner:         runner,
		scriptDir:      strings.TrimSpace(cfg.ScriptDir),
		outputDir:      strings.TrimSpace(cfg.OutputDir),
		maxOutputBytes: maxOutput,
		logger:         logger,
	}
}

func (b *LocalBackend) Run(ctx context.Context, job usecase.ReportJob) (usecase.ReportOutcome, error) {
	args, err := b.argsFor(job)
	if err != nil {
		return usecase.ReportOutcome{}, err
	}

	cmd := exec.CommandContext(ctx, b.runner, args...)
	cmd.Dir = b.scriptDir
	cmd.Env = os.Environ()

	sink := newCappedBuffer(b.maxOutputBytes)
	defer sink.release()
	cmd.Stdout = sink
	cmd.Stderr = sink

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return usecase.ReportOutcome{}, context.DeadlineExceeded
	}

	if sink.overflowed {
		return usecase.ReportOutcome{}, fmt.Errorf("%w: job %s output exceeded %d bytes", usecase.ErrExecution, job.ID, b.maxOutputBytes)
	}

	output := sink.String()
	frame, found := extractResultFrame(output)
	if !found {
		// The generator ran but produced no machine-readable result. This
		// holds regardless of exit code: a clean exit with no frame is as
		// unusable as a crash.
		if runErr != nil {
			b.logger.WarnContext(ctx, "report process exited without result frame",
				"job_id", job.ID, "error", runErr, "output_tail", tailOf(output, 512))
		}
		return usecase.ReportOutcome{}, fmt.Errorf("%w: job %s produced no result frame", usecase.ErrProtocol, job.ID)
	}

	var payload resultPayload
	if err := sonic.Unmarshal([]byte(frame), &payload); err != nil {
		return usecase.ReportOutcome{}, fmt.Errorf("%w: job %s result frame is not valid JSON: %v", usecase.ErrProtocol, job.ID, err)
	}

	if !payload.Success {
		message := strings.TrimSpace(payload.Error)
		if message == "" {
			message = "report generator reported failure"
		}
		return usecase.ReportOutcome{}, fmt.Errorf("%w: job %s: %s", usecase.ErrExecution, job.ID, message)
	}

	return usecase.ReportOutcome{
		Success:      true,
		ArtifactPath: payload.PDFPath,
		Count:        payload.PitcherCount,
	}, nil
}

type resultPayload struct {
	Success      bool   `json:"success"`
	PDFPath      string `json:"pdfPath"`
	PitcherCount int    `json:"pitcherCount"`
	Error        string `json:"error"`
}

func (b *LocalBackend) argsFor(job usecase.ReportJob) ([]string, error) {
	script, ok := scriptByKind[job.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown report kind %q", usecase.ErrInvalidInput, job.Kind)
	}

	outputDir := job.OutputDir
	if outputDir == "" {
		outputDir = b.outputDir
	}

	args := []string{script}
	switch job.Kind {
	case usecase.ReportKindPitching:
		args = append(args,
			"--player-name", job.PlayerName,
			"--player-id", job.PlayerID,
			"--season", strconv.Itoa(job.Season),
			"--start-date", job.StartDate,
			"--end-date", job.EndDate,
		)
	case usecase.ReportKindScouting:
		args = append(args,
			"--team-name", job.TeamName,
			"--team-id", job.TeamID,
		)
	case usecase.ReportKindUmpire:
		args = append(args,
			"--home-team", job.HomeTeam,
			"--home-team-id", job.HomeTeamID,
			"--away-team", job.AwayTeam,
			"--away-team-id", job.AwayTeamID,
			"--start-date", job.StartDate,
			"--end-date", job.EndDate,
			"--season", strconv.Itoa(job.Season),
		)
	}
	if outputDir != "" {
		args = append(args, "--output-dir", outputDir)
	}
	return args, nil
}

func extractResultFrame(output string) (string, bool) {
	start := strings.LastIndex(output, resultFrameStart)
	if start < 0 {
		return "", false
	}
	rest := output[start+len(resultFrameStart):]
	end := strings.Index(rest, resultFrameEnd)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

func tailOf(output string, limit int) string {
	output = strings.TrimSpace(output)
	if len(output) <= limit {
		return output
	}
	return "..." + output[len(output)-limit:]
}

// cappedBuffer accumulates subprocess output up to a byte ceiling; writes
// past the ceiling are discarded and flagged, never an error back to the
// writer so the process is not broken mid-run on a full pipe.
type cappedBuffer struct {
	buf        *bytebufferpool.ByteBuffer
	limit      int
	overflowed bool
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{buf: bytebufferpool.Get(), limit: limit}
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	remaining := c.limit - c.buf.Len()
	if remaining <= 0 {
		c.overflowed = true
		return len(p), nil
	}
	if len(p) > remaining {
		c.overflowed = true
		_, _ = c.buf.Write(p[:remaining])
		return len(p), nil
	}
	return c.buf.Write(p)
}

func (c *cappedBuffer) String() string { return c.buf.String() }

func (c *cappedBuffer) release() {
	bytebufferpool.Put(c.buf)
	c.buf = nil
}
