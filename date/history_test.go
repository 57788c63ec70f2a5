package date

import "testing"

func TestHistoryAppendOverwrites(t *testing.T) {
	h := &History[float64]{}
	h.Append(MustParse("2025-08-01"), 100)
	h.Append(MustParse("2025-08-04"), 105)
	h.Append(MustParse("2025-08-01"), 101) // same day, later write wins

	if got, want := h.Len(), 2; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	v, ok := h.Get(MustParse("2025-08-01"))
	if !ok || v != 101 {
		t.Errorf("Get(2025-08-01) = %v, %v; want 101, true", v, ok)
	}
}

func TestHistoryStaysSorted(t *testing.T) {
	h := &History[float64]{}
	h.Append(MustParse("2025-08-04"), 2)
	h.Append(MustParse("2025-08-01"), 1)
	h.Append(MustParse("2025-08-06"), 3)

	var prev Date
	for on := range h.Values() {
		if !prev.IsZero() && !prev.Before(on) {
			t.Fatalf("history out of order: %v before %v", prev, on)
		}
		prev = on
	}
	first, v := h.First()
	if first != MustParse("2025-08-01") || v != 1 {
		t.Errorf("First() = %v, %v", first, v)
	}
	last, v := h.Latest()
	if last != MustParse("2025-08-06") || v != 3 {
		t.Errorf("Latest() = %v, %v", last, v)
	}
}

func TestHistoryValueAsOf(t *testing.T) {
	h := &History[float64]{}
	h.Append(MustParse("2025-08-01"), 1)
	h.Append(MustParse("2025-08-04"), 2)

	testCases := []struct {
		day    string
		want   float64
		wantOK bool
	}{
		{"2025-07-31", 0, false},
		{"2025-08-01", 1, true},
		{"2025-08-02", 1, true},
		{"2025-08-04", 2, true},
		{"2025-08-10", 2, true},
	}
	for _, tc := range testCases {
		got, ok := h.ValueAsOf(MustParse(tc.day))
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ValueAsOf(%s) = %v, %v; want %v, %v", tc.day, got, ok, tc.want, tc.wantOK)
		}
	}
}
