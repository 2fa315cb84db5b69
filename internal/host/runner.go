package host

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/kmerqc/internal/report"
)

// Summary describes the outcome of running modules.
type Summary struct {
	Ran    []string
	NoData []string
	Failed []ModuleError
}

// ModuleError is a module failure.
type ModuleError struct {
	Module string
	Err    error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("%s: %v", e.Module, e.Err)
}

func (e ModuleError) Unwrap() error {
	return e.Err
}

// Err joins the module failures, or returns nil when none failed.
func (s Summary) Err() error {
	if len(s.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(s.Failed))
	for _, f := range s.Failed {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Runner runs modules against a host and assembles their report output.
type Runner struct {
	host   Host
	report *report.Report
	log    logrus.FieldLogger
}

// NewRunner returns a runner writing module headers into rep.
func NewRunner(h Host, rep *report.Report) *Runner {
	return &Runner{host: h, report: rep, log: h.Logger()}
}

// Run runs each module in order. A module that reports ErrNoData or fails
// is removed from the report; the remaining modules still run.
func (r *Runner) Run(modules ...Module) Summary {
	var summary Summary
	for _, m := range modules {
		info := m.Info()
		err := m.Run(r.host)
		switch {
		case errors.Is(err, ErrNoData):
			r.log.Debugf("No samples found: %s", info.Name)
			r.report.RemoveModule(info.Anchor)
			summary.NoData = append(summary.NoData, info.Anchor)
		case err != nil:
			r.log.Errorf("Module %s raised an error: %v", info.Name, err)
			r.report.RemoveModule(info.Anchor)
			summary.Failed = append(summary.Failed, ModuleError{Module: info.Anchor, Err: err})
		default:
			r.report.DescribeModule(info)
			summary.Ran = append(summary.Ran, info.Anchor)
		}
	}
	return summary
}
