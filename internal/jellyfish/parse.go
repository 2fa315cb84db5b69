package jellyfish

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/verte-zerg/kmerqc/internal/model"
)

// ErrEmptyHistogram is returned for input without any histogram rows.
var ErrEmptyHistogram = errors.New("histogram is empty")

// ParseHistogram reads "<occurrence> <count>" rows and returns a histogram
// of occurrence -> occurrence*count. The last row is jellyfish's overflow
// bucket (all k-mers seen at least that often) and is dropped.
func ParseHistogram(r io.Reader) (*model.Histogram, error) {
	h := model.NewHistogram()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	last := 0
	for scanner.Scan() {
		lineNo++
		occurrence, count, err := parseRow(scanner.Text())
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		value, ok := mulInt64(int64(occurrence), count)
		if !ok {
			return nil, errors.Errorf("line %d: %d*%d overflows int64", lineNo, occurrence, count)
		}
		h.Set(occurrence, value)
		last = occurrence
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read histogram")
	}
	if lineNo == 0 {
		return nil, ErrEmptyHistogram
	}
	h.Delete(last)
	return h, nil
}

func parseRow(line string) (int, int64, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, errors.Errorf("expected 2 fields, got %d", len(fields))
	}
	occurrence, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, errors.Wrap(err, "invalid occurrence")
	}
	count, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "invalid count")
	}
	return occurrence, count, nil
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	p := a * b
	return p, p/b == a
}

// MaxKey returns the key holding the largest value. Ties go to the key
// inserted first. ok is false for an empty histogram.
func MaxKey(h *model.Histogram) (key int, ok bool) {
	var best int64
	for _, k := range h.Keys() {
		v, _ := h.Get(k)
		if !ok || v > best {
			key, best, ok = k, v, true
		}
	}
	return key, ok
}
