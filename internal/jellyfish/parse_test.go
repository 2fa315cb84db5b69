package jellyfish

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParseHistogramDropsOverflowBucket(t *testing.T) {
	h, err := ParseHistogram(strings.NewReader("1 5\n2 3\n3 1\n"))
	if err != nil {
		t.Fatalf("ParseHistogram failed: %v", err)
	}
	if h.Len() != 2 {
		t.Fatalf("expected 2 keys, got %v", h.Keys())
	}
	if v, ok := h.Get(1); !ok || v != 5 {
		t.Fatalf("expected 1 -> 5, got %d (present=%v)", v, ok)
	}
	if v, ok := h.Get(2); !ok || v != 6 {
		t.Fatalf("expected 2 -> 6, got %d (present=%v)", v, ok)
	}
	if _, ok := h.Get(3); ok {
		t.Fatalf("expected overflow key 3 to be dropped")
	}
	key, ok := MaxKey(h)
	if !ok || key != 2 {
		t.Fatalf("expected max key 2, got %d (ok=%v)", key, ok)
	}
}

func TestParseHistogramSingleLine(t *testing.T) {
	h, err := ParseHistogram(strings.NewReader("7 100\n"))
	if err != nil {
		t.Fatalf("ParseHistogram failed: %v", err)
	}
	if h.Len() != 0 {
		t.Fatalf("expected empty histogram, got %v", h.Keys())
	}
	if _, ok := MaxKey(h); ok {
		t.Fatalf("expected no max key for empty histogram")
	}
}

func TestParseHistogramEmpty(t *testing.T) {
	_, err := ParseHistogram(strings.NewReader(""))
	if !errors.Is(err, ErrEmptyHistogram) {
		t.Fatalf("expected ErrEmptyHistogram, got %v", err)
	}
}

func TestParseHistogramMalformed(t *testing.T) {
	cases := map[string]string{
		"three fields": "1 5\n2 3 4\n",
		"one field":    "1 5\n2\n",
		"not a number": "1 5\nx 3\n",
		"bad count":    "1 5\n2 3.5\n",
		"blank line":   "1 5\n\n3 1\n",
	}
	for name, input := range cases {
		_, err := ParseHistogram(strings.NewReader(input))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Fatalf("%s: expected line number in error, got %v", name, err)
		}
	}
}

func TestParseHistogramRejectsOverflow(t *testing.T) {
	_, err := ParseHistogram(strings.NewReader("1 5\n3 4000000000000000000\n4 1\n"))
	if err == nil {
		t.Fatalf("expected overflow error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected error to name line 2, got %v", err)
	}

	h, err := ParseHistogram(strings.NewReader("2 4611686018427387903\n3 1\n"))
	if err != nil {
		t.Fatalf("ParseHistogram failed: %v", err)
	}
	if v, _ := h.Get(2); v != math.MaxInt64-1 {
		t.Fatalf("expected 2 -> %d, got %d", int64(math.MaxInt64-1), v)
	}
}

func TestParseHistogramAcceptsCRLF(t *testing.T) {
	h, err := ParseHistogram(strings.NewReader("1 5\r\n2 3\r\n3 1\r\n"))
	if err != nil {
		t.Fatalf("ParseHistogram failed: %v", err)
	}
	if h.Len() != 2 {
		t.Fatalf("expected 2 keys, got %v", h.Keys())
	}
}

func TestParseHistogramRepeatedLastKey(t *testing.T) {
	// The overflow key is removed even when it also appeared earlier.
	h, err := ParseHistogram(strings.NewReader("1 5\n2 3\n1 9\n"))
	if err != nil {
		t.Fatalf("ParseHistogram failed: %v", err)
	}
	keys := h.Keys()
	if len(keys) != 1 || keys[0] != 2 {
		t.Fatalf("expected only key 2, got %v", keys)
	}
}

func TestMaxKeyTieGoesToFirstInserted(t *testing.T) {
	// 4*1 == 2*2 == 1*4; key 4 is read first.
	h, err := ParseHistogram(strings.NewReader("4 1\n2 2\n1 4\n9 9\n"))
	if err != nil {
		t.Fatalf("ParseHistogram failed: %v", err)
	}
	key, ok := MaxKey(h)
	if !ok || key != 4 {
		t.Fatalf("expected tie to resolve to 4, got %d", key)
	}
}

func TestMaxKeyIsArgmaxByValue(t *testing.T) {
	h, err := ParseHistogram(strings.NewReader("1 1000\n20 10\n300 1\n301 5\n"))
	if err != nil {
		t.Fatalf("ParseHistogram failed: %v", err)
	}
	// values: 1 -> 1000, 20 -> 200, 300 -> 300
	key, _ := MaxKey(h)
	if key != 1 {
		t.Fatalf("expected max key 1, got %d", key)
	}
}
