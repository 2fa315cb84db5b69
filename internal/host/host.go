// Package host provides the capabilities analysis modules run against:
// file discovery, data source and section registration, and logging.
package host

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/kmerqc/internal/model"
)

// ErrNoData is returned by a module that found nothing to report. The
// runner omits the module's section instead of failing.
var ErrNoData = errors.New("no usable data found")

// FileFunc receives one discovered file. r is only valid during the call.
type FileFunc func(f model.LogFile, r io.Reader) error

// Host is what a module may call back into.
type Host interface {
	// FindLogFiles opens every file matching the search pattern for key,
	// one at a time, and closes it after fn returns. An error from fn stops
	// the walk and is returned.
	FindLogFiles(key string, fn FileFunc) error
	AddDataSource(module, section string, f model.LogFile)
	AddSection(module string, s model.Section)
	Logger() logrus.FieldLogger
}

// Module is an analysis module.
type Module interface {
	Info() model.ModuleInfo
	Run(h Host) error
}
