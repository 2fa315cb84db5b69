package jellyfish

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/kmerqc/internal/model"
)

const (
	lowDepthMaxX = 100
	lowDepthXMax = 200
)

// Aggregator collects per-sample histograms and tracks the x-axis extent.
type Aggregator struct {
	log         logrus.FieldLogger
	correctXMax bool

	data       model.Dataset
	maxX       int
	lastMaxKey int
}

// NewAggregator returns an empty aggregator. With correctXMax the doubled
// x-axis bound is taken from the running maximum over all files instead of
// the max key of the last file parsed.
func NewAggregator(log logrus.FieldLogger, correctXMax bool) *Aggregator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Aggregator{
		log:         log,
		correctXMax: correctXMax,
		data:        model.Dataset{},
	}
}

// Add parses one histogram file for sample. It reports whether the sample
// was stored; empty histograms are dropped.
func (a *Aggregator) Add(sample string, r io.Reader) (bool, error) {
	h, err := ParseHistogram(r)
	if err != nil {
		return false, err
	}
	if key, ok := MaxKey(h); ok {
		a.lastMaxKey = key
		if key > a.maxX {
			a.maxX = key
		}
	}
	if h.Len() == 0 {
		return false, nil
	}
	if _, ok := a.data[sample]; ok {
		a.log.Debugf("Duplicate sample name found! Overwriting: %s", sample)
	}
	a.data[sample] = h
	return true, nil
}

// MaxX returns the running maximum of per-file max keys.
func (a *Aggregator) MaxX() int {
	return a.maxX
}

// Dataset returns the collected histograms.
func (a *Aggregator) Dataset() model.Dataset {
	return a.data
}

// FinalizeXMax returns the chart's x-axis upper bound.
func (a *Aggregator) FinalizeXMax() int {
	if a.maxX < lowDepthMaxX {
		return lowDepthXMax
	}
	if a.correctXMax {
		return 2 * a.maxX
	}
	return 2 * a.lastMaxKey
}
