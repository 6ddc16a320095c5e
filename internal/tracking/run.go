package tracking

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Run statuses, using the tracker's vocabulary.
const (
	StatusFinished = "FINISHED"
	StatusFailed   = "FAILED"
)

// Run is one tracked inference call.
type Run struct {
	ID         string
	Experiment string
	Name       string
	Params     map[string]string
	Metrics    map[string]float64
	// Artifacts maps file name to text content.
	Artifacts map[string]string
	Status    string
	Error     string
	StartTime time.Time
	EndTime   time.Time
}

// NewRun starts a run in experiment with a fresh id.
func NewRun(experiment, name string) Run {
	return Run{
		ID:         strings.ReplaceAll(uuid.NewString(), "-", ""),
		Experiment: experiment,
		Name:       name,
		Params:     map[string]string{},
		Metrics:    map[string]float64{},
		Artifacts:  map[string]string{},
		StartTime:  time.Now().UTC(),
	}
}

// Finish stamps the end time and status. A nil err means success.
func (r *Run) Finish(err error) {
	r.EndTime = time.Now().UTC()
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = StatusFinished
}

// Sink persists finished runs.
type Sink interface {
	LogRun(ctx context.Context, run Run) error
}

// NopSink discards runs. It is used when tracking is disabled.
type NopSink struct{}

func (NopSink) LogRun(context.Context, Run) error { return nil }

// NewSink picks a sink from a tracking URI: empty or "none" disables
// tracking, file: writes a local tree, http(s):// talks to an MLflow server.
func NewSink(uri string, httpClient *http.Client) (Sink, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "" || strings.EqualFold(uri, "none"):
		return NopSink{}, nil
	case strings.HasPrefix(uri, "file:"):
		root := strings.TrimPrefix(strings.TrimPrefix(uri, "file://"), "file:")
		if root == "" {
			return nil, fmt.Errorf("tracking uri %q has no path", uri)
		}
		return NewFileSink(root), nil
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return NewMLflowSink(uri, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported tracking uri %q", uri)
	}
}
