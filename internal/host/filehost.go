package host

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/verte-zerg/kmerqc/internal/discovery"
	"github.com/verte-zerg/kmerqc/internal/model"
	"github.com/verte-zerg/kmerqc/internal/report"
)

// FileHost serves modules from files on disk and collects their output
// into a report.
type FileHost struct {
	finder   *discovery.Finder
	report   *report.Report
	log      logrus.FieldLogger
	progress io.Writer
}

// FileHostOptions configures a FileHost.
type FileHostOptions struct {
	// Progress, when non-nil, receives a progress bar per search key.
	Progress io.Writer
}

// NewFileHost builds a host over finder that writes into rep.
func NewFileHost(finder *discovery.Finder, rep *report.Report, log logrus.FieldLogger, opts FileHostOptions) *FileHost {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FileHost{
		finder:   finder,
		report:   rep,
		log:      log,
		progress: opts.Progress,
	}
}

// FindLogFiles implements Host.
func (h *FileHost) FindLogFiles(key string, fn FileFunc) error {
	files, err := h.finder.Find(key)
	if err != nil {
		return err
	}
	h.log.Debugf("Found %d %s files", len(files), key)
	if len(files) == 0 {
		return nil
	}

	var bar *mpb.Bar
	if h.progress != nil {
		pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(h.progress))
		bar = pbs.AddBar(int64(len(files)),
			mpb.PrependDecorators(
				decor.Name(key+": ", decor.WC{W: len(key) + 2, C: decor.DindentRight}),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)
		defer pbs.Wait()
	}

	for _, f := range files {
		err := h.visit(f, fn)
		if bar != nil {
			bar.Increment()
		}
		if err != nil {
			if bar != nil {
				bar.Abort(false)
			}
			return err
		}
	}
	return nil
}

func (h *FileHost) visit(f model.LogFile, fn FileFunc) error {
	rc, err := discovery.Open(f.Path)
	if err != nil {
		h.log.Warnf("Skipping %s: %v", f.Path, err)
		return nil
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			h.log.Debugf("failed to close %s: %v", f.Path, cerr)
		}
	}()
	return fn(f, rc)
}

// AddDataSource implements Host.
func (h *FileHost) AddDataSource(module, section string, f model.LogFile) {
	h.report.AddDataSource(model.DataSource{
		Module:     module,
		Section:    section,
		SampleName: f.SampleName,
		Path:       f.Path,
	})
}

// AddSection implements Host.
func (h *FileHost) AddSection(module string, s model.Section) {
	h.report.AddSection(module, s)
}

// Logger implements Host.
func (h *FileHost) Logger() logrus.FieldLogger {
	return h.log
}

