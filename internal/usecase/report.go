package usecase

import "context"

// ReportKind identifies which generator a report job runs.
type ReportKind string

const (
	ReportKindPitching ReportKind = "pitching"
	ReportKindScouting ReportKind = "scouting"
	ReportKindUmpire   ReportKind = "umpire"
)

func (k ReportKind) Valid() bool {
	switch k {
	case ReportKindPitching, ReportKindScouting, ReportKindUmpire:
		return true
	default:
		return false
	}
}

// ReportStatus is the lifecycle state of a dispatched job.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "PENDING"
	ReportStatusRunning   ReportStatus = "RUNNING"
	ReportStatusSucceeded ReportStatus = "SUCCEEDED"
	ReportStatusFailed    ReportStatus = "FAILED"
	ReportStatusTimedOut  ReportStatus = "TIMED_OUT"
)

// ReportJob carries every parameter any report kind needs; unused fields
// stay empty. Dates are 2006-01-02 strings.
type ReportJob struct {
	ID         string
	Kind       ReportKind
	PlayerID   string
	PlayerName string
	TeamID     string
	TeamName   string
	HomeTeamID string
	HomeTeam   string
	AwayTeamID string
	AwayTeam   string
	Season     int
	StartDate  string
	EndDate    string
	OutputDir  string
}

// ReportOutcome is the uniform result contract shared by every backend.
type ReportOutcome struct {
	JobID        string
	Status       ReportStatus
	Success      bool
	ArtifactPath string
	Count        int
}

// ReportDispatcher runs report jobs. Implementations decide where the work
// executes; callers only see the outcome.
type ReportDispatcher interface {
	Dispatch(ctx context.Context, job ReportJob) (ReportOutcome, error)
}
