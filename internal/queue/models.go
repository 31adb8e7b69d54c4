package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DaemonStopReason is the error message set when jobs are reset due to daemon shutdown.
const DaemonStopReason = "daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Kind identifies a job operation.
type Kind string

const (
	KindIngest        Kind = "ingest"
	KindConvert       Kind = "convert"
	KindSyncProxies   Kind = "sync-proxies"
	KindSyncEditables Kind = "sync-editables"
	KindFetchEDL      Kind = "fetch-edl"
	KindRender        Kind = "render"
	KindPublish       Kind = "publish"
	KindArchive       Kind = "archive"
	KindSlideshow     Kind = "slideshow"
)

var allKinds = []Kind{
	KindIngest,
	KindConvert,
	KindSyncProxies,
	KindSyncEditables,
	KindFetchEDL,
	KindRender,
	KindPublish,
	KindArchive,
	KindSlideshow,
}

// AllKinds returns the ordered list of known job kinds.
func AllKinds() []Kind {
	cp := make([]Kind, len(allKinds))
	copy(cp, allKinds)
	return cp
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, kind := range allKinds {
		if kind == normalized {
			return kind, true
		}
	}
	return "", false
}

// Lane partitions jobs by the resource they contend on. Jobs within a lane
// run sequentially; lanes run independently of one another.
type Lane string

const (
	LaneCPU      Lane = "cpu"
	LaneTransfer Lane = "transfer"
	LanePublish  Lane = "publish"
	LaneLocal    Lane = "local"
)

// AllLanes returns the ordered list of worker lanes.
func AllLanes() []Lane {
	return []Lane{LaneCPU, LaneTransfer, LanePublish, LaneLocal}
}

var laneByKind = map[Kind]Lane{
	KindIngest:        LaneTransfer,
	KindConvert:       LaneCPU,
	KindSyncProxies:   LaneTransfer,
	KindSyncEditables: LaneTransfer,
	KindFetchEDL:      LaneTransfer,
	KindRender:        LaneCPU,
	KindPublish:       LanePublish,
	KindArchive:       LanePublish,
	KindSlideshow:     LaneCPU,
}

// LaneForKind maps a job kind to its worker lane.
func LaneForKind(kind Kind) Lane {
	if lane, ok := laneByKind[kind]; ok {
		return lane
	}
	return LaneLocal
}

// Params carries the per-kind submission arguments. Fields irrelevant to a
// kind stay zero and are omitted from the stored JSON.
type Params struct {
	RemoteHost  string   `json:"remoteHost,omitempty"`
	Force       bool     `json:"force,omitempty"`
	Files       []string `json:"files,omitempty"`
	Factor      float64  `json:"factor,omitempty"`
	EDLFile     string   `json:"edlFile,omitempty"`
	OutputFile  string   `json:"outputFile,omitempty"`
	ProxyEDL    bool     `json:"proxyEdl,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    int      `json:"category,omitempty"`
	Keywords    string   `json:"keywords,omitempty"`
	Privacy     string   `json:"privacy,omitempty"`
	Skip        bool     `json:"skip,omitempty"`
	Inputs      bool     `json:"inputs,omitempty"`
	Delete      bool     `json:"delete,omitempty"`
	Accelerate  bool     `json:"accelerate,omitempty"`
	Duration    float64  `json:"duration,omitempty"`
}

// Job represents a queued operation persisted in SQLite.
type Job struct {
	ID           int64
	JobKey       string
	Project      string
	Kind         Kind
	Lane         Lane
	ParamsJSON   string
	Status       Status
	ErrorMessage string
	OutputBytes  int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// Params decodes the stored submission arguments.
func (j *Job) Params() (Params, error) {
	var params Params
	if strings.TrimSpace(j.ParamsJSON) == "" {
		return params, nil
	}
	if err := json.Unmarshal([]byte(j.ParamsJSON), &params); err != nil {
		return Params{}, fmt.Errorf("decode job params: %w", err)
	}
	return params, nil
}

// QueuedDuration reports how long the job waited before a worker picked it up.
func (j *Job) QueuedDuration(now time.Time) time.Duration {
	if j.StartedAt == nil {
		return now.Sub(j.CreatedAt)
	}
	return j.StartedAt.Sub(j.CreatedAt)
}

// ProcessDuration reports how long the job has been (or was) executing.
func (j *Job) ProcessDuration(now time.Time) time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	if j.FinishedAt == nil {
		return now.Sub(*j.StartedAt)
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}

// IsTerminal reports whether the job has finished, successfully or not.
func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
}
