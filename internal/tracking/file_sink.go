package tracking

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FileSink writes runs as a directory tree under root:
//
//	<root>/<experiment>/<run_id>/meta.yaml
//	<root>/<experiment>/<run_id>/params/<key>
//	<root>/<experiment>/<run_id>/metrics/<key>
//	<root>/<experiment>/<run_id>/artifacts/<name>
type FileSink struct {
	root string
}

type runMeta struct {
	RunID      string `yaml:"run_id"`
	RunName    string `yaml:"run_name,omitempty"`
	Experiment string `yaml:"experiment"`
	Status     string `yaml:"status"`
	Error      string `yaml:"error,omitempty"`
	StartTime  int64  `yaml:"start_time"`
	EndTime    int64  `yaml:"end_time"`
}

func NewFileSink(root string) *FileSink {
	return &FileSink{root: root}
}

// Root returns the directory runs are written under.
func (s *FileSink) Root() string {
	return s.root
}

func (s *FileSink) LogRun(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if run.ID == "" {
		return fmt.Errorf("run has no id")
	}
	dir := filepath.Join(s.root, safeName(run.Experiment), run.ID)
	for _, sub := range []string{"params", "metrics", "artifacts"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("create run dir: %w", err)
		}
	}

	meta, err := yaml.Marshal(runMeta{
		RunID:      run.ID,
		RunName:    run.Name,
		Experiment: run.Experiment,
		Status:     run.Status,
		Error:      run.Error,
		StartTime:  run.StartTime.UnixMilli(),
		EndTime:    run.EndTime.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode run meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.yaml"), meta, 0o644); err != nil {
		return fmt.Errorf("write run meta: %w", err)
	}

	for k, v := range run.Params {
		if err := os.WriteFile(filepath.Join(dir, "params", safeName(k)), []byte(v), 0o644); err != nil {
			return fmt.Errorf("write param %s: %w", k, err)
		}
	}
	ts := run.EndTime
	if ts.IsZero() {
		ts = time.Now()
	}
	for k, v := range run.Metrics {
		// timestamp value step
		line := strconv.FormatInt(ts.UnixMilli(), 10) + " " + strconv.FormatFloat(v, 'f', -1, 64) + " 0\n"
		if err := os.WriteFile(filepath.Join(dir, "metrics", safeName(k)), []byte(line), 0o644); err != nil {
			return fmt.Errorf("write metric %s: %w", k, err)
		}
	}
	for name, content := range run.Artifacts {
		if err := os.WriteFile(filepath.Join(dir, "artifacts", safeName(name)), []byte(content), 0o644); err != nil {
			return fmt.Errorf("write artifact %s: %w", name, err)
		}
	}
	return nil
}

// safeName keeps keys from escaping their directory.
func safeName(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == "" {
		return "_"
	}
	return name
}
