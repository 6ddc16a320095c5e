package tracking

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
)

// MLflowSink logs runs to an MLflow tracking server over its REST API.
type MLflowSink struct {
	client *resty.Client

	mu          sync.Mutex
	experiments map[string]string // name -> id
}

type mlflowError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (e *mlflowError) String() string {
	if e == nil || e.ErrorCode == "" {
		return ""
	}
	return e.ErrorCode + ": " + e.Message
}

type mlflowKV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type mlflowMetric struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
}

type mlflowRunInfo struct {
	RunID       string `json:"run_id"`
	ArtifactURI string `json:"artifact_uri"`
}

func NewMLflowSink(baseURL string, httpClient *http.Client) *MLflowSink {
	var client *resty.Client
	if httpClient != nil {
		client = resty.NewWithClient(httpClient)
	} else {
		client = resty.New()
	}
	client.SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &MLflowSink{client: client, experiments: map[string]string{}}
}

func (s *MLflowSink) LogRun(ctx context.Context, run Run) error {
	expID, err := s.experimentID(ctx, run.Experiment)
	if err != nil {
		return err
	}

	var created struct {
		Run struct {
			Info mlflowRunInfo `json:"info"`
		} `json:"run"`
	}
	if err := s.post(ctx, "/api/2.0/mlflow/runs/create", map[string]any{
		"experiment_id": expID,
		"run_name":      run.Name,
		"start_time":    run.StartTime.UnixMilli(),
		"tags":          []mlflowKV{{Key: "verso.run_id", Value: run.ID}},
	}, &created); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	info := created.Run.Info
	if info.RunID == "" {
		return fmt.Errorf("create run: empty run id")
	}

	params := make([]mlflowKV, 0, len(run.Params))
	for k, v := range run.Params {
		params = append(params, mlflowKV{Key: k, Value: v})
	}
	metrics := make([]mlflowMetric, 0, len(run.Metrics))
	for k, v := range run.Metrics {
		metrics = append(metrics, mlflowMetric{Key: k, Value: v, Timestamp: run.EndTime.UnixMilli()})
	}
	if err := s.post(ctx, "/api/2.0/mlflow/runs/log-batch", map[string]any{
		"run_id":  info.RunID,
		"params":  params,
		"metrics": metrics,
	}, nil); err != nil {
		return fmt.Errorf("log batch: %w", err)
	}

	if len(run.Artifacts) > 0 {
		prefix := artifactPrefix(info, expID)
		g, gctx := errgroup.WithContext(ctx)
		for name, content := range run.Artifacts {
			g.Go(func() error {
				return s.putArtifact(gctx, prefix+"/"+url.PathEscape(name), content)
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("upload artifacts: %w", err)
		}
	}

	status := run.Status
	if status == "" {
		status = StatusFinished
	}
	if err := s.post(ctx, "/api/2.0/mlflow/runs/update", map[string]any{
		"run_id":   info.RunID,
		"status":   status,
		"end_time": run.EndTime.UnixMilli(),
	}, nil); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func (s *MLflowSink) experimentID(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	id, ok := s.experiments[name]
	s.mu.Unlock()
	if ok {
		return id, nil
	}

	var found struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	var apiErr mlflowError
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("experiment_name", name).
		SetResult(&found).
		SetError(&apiErr).
		Get("/api/2.0/mlflow/experiments/get-by-name")
	if err != nil {
		return "", fmt.Errorf("get experiment: %w", err)
	}
	switch {
	case resp.IsSuccess():
		id = found.Experiment.ExperimentID
	case apiErr.ErrorCode == "RESOURCE_DOES_NOT_EXIST" || resp.StatusCode() == http.StatusNotFound:
		var createdExp struct {
			ExperimentID string `json:"experiment_id"`
		}
		if err := s.post(ctx, "/api/2.0/mlflow/experiments/create", map[string]any{"name": name}, &createdExp); err != nil {
			return "", fmt.Errorf("create experiment: %w", err)
		}
		id = createdExp.ExperimentID
	default:
		return "", fmt.Errorf("get experiment: status %d %s", resp.StatusCode(), apiErr.String())
	}
	if id == "" {
		return "", fmt.Errorf("experiment %q has no id", name)
	}

	s.mu.Lock()
	s.experiments[name] = id
	s.mu.Unlock()
	return id, nil
}

func (s *MLflowSink) post(ctx context.Context, path string, body any, result any) error {
	var apiErr mlflowError
	req := s.client.R().SetContext(ctx).SetBody(body).SetError(&apiErr)
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("status %d %s", resp.StatusCode(), apiErr.String())
	}
	return nil
}

func (s *MLflowSink) putArtifact(ctx context.Context, path, content string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain; charset=utf-8").
		SetBody([]byte(content)).
		Put(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("put %s: status %d", path, resp.StatusCode())
	}
	return nil
}

// artifactPrefix maps the run's artifact URI onto the proxied artifact
// endpoint. Servers without artifact proxying fall back to the default layout.
func artifactPrefix(info mlflowRunInfo, expID string) string {
	const scheme = "mlflow-artifacts:"
	const endpoint = "/api/2.0/mlflow-artifacts/artifacts"
	if rest, ok := strings.CutPrefix(info.ArtifactURI, scheme); ok {
		if u, err := url.Parse(info.ArtifactURI); err == nil && u.Host != "" {
			rest = u.Path
		}
		return endpoint + "/" + strings.TrimLeft(rest, "/")
	}
	return endpoint + "/" + expID + "/" + info.RunID + "/artifacts"
}
