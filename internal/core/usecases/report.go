package usecases

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/pkg/fsutil"
)

// Period statuses in a BuildReport.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// BuildReport summarises one build of a theater.
type BuildReport struct {
	RunID      string           `yaml:"run_id" json:"run_id"`
	Theater    string           `yaml:"theater" json:"theater"`
	StartedAt  time.Time        `yaml:"started_at" json:"started_at"`
	Duration   time.Duration    `yaml:"duration" json:"duration"`
	DryRun     bool             `yaml:"dry_run" json:"dry_run"`
	Snapshots  []string         `yaml:"snapshots" json:"snapshots"`
	Warnings   []domain.Warning `yaml:"warnings,omitempty" json:"warnings,omitempty"`
	Periods    []PeriodReport   `yaml:"periods" json:"periods"`
	Succeeded  int              `yaml:"succeeded" json:"succeeded"`
	Failed     int              `yaml:"failed" json:"failed"`
	ReportPath string           `yaml:"-" json:"report_path,omitempty"`
}

// PeriodReport is the outcome of one output period.
type PeriodReport struct {
	Period      string        `yaml:"period" json:"period"`
	Date        string        `yaml:"date,omitempty" json:"date,omitempty"`
	Status      string        `yaml:"status" json:"status"`
	Method      domain.Method `yaml:"method,omitempty" json:"method,omitempty"`
	Fraction    float64       `yaml:"fraction,omitempty" json:"fraction,omitempty"`
	SourceDates []string      `yaml:"source_dates,omitempty" json:"source_dates,omitempty"`
	Points      int           `yaml:"points,omitempty" json:"points,omitempty"`
	Outputs     []string      `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	ErrorKind   string        `yaml:"error_kind,omitempty" json:"error_kind,omitempty"`
	Error       string        `yaml:"error,omitempty" json:"error,omitempty"`
}

func (p *PeriodReport) fail(err error) {
	p.Status = StatusFailed
	p.ErrorKind = domain.ErrorKind(err)
	p.Error = err.Error()
}

// Failures returns the failed periods.
func (r *BuildReport) Failures() []PeriodReport {
	var out []PeriodReport
	for _, p := range r.Periods {
		if p.Status == StatusFailed {
			out = append(out, p)
		}
	}
	return out
}

// WriteReport writes r as YAML to path.
func WriteReport(r *BuildReport, path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%s: %w: %w", path, domain.ErrIoFailure, err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(data []byte) (*BuildReport, error) {
	var r BuildReport
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
