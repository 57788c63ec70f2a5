package microcap

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/petard/microcap/date"
)

// fakeSource answers from a fixed bar table and counts its calls.
type fakeSource struct {
	name  string
	bars  map[string]Bar
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Daily(_ context.Context, ticker string, on date.Date) (Bar, error) {
	f.calls++
	b, ok := f.bars[ticker]
	if !ok {
		return Bar{}, fmt.Errorf("unknown ticker %q", ticker)
	}
	return b, nil
}

func (f *fakeSource) Closes(_ context.Context, ticker string, r date.Range) (*date.History[float64], error) {
	f.calls++
	b, ok := f.bars[ticker]
	if !ok {
		return nil, fmt.Errorf("unknown ticker %q", ticker)
	}
	h := &date.History[float64]{}
	h.Append(r.From, b.Close)
	h.Append(r.To, b.Close)
	return h, nil
}

func silentResolver(sources ...Source) *Resolver {
	r := NewResolver(sources...)
	r.Logf = func(string, ...any) {}
	return r
}

func TestResolveFallsBack(t *testing.T) {
	primary := &fakeSource{name: "primary", bars: map[string]Bar{}}
	fallback := &fakeSource{name: "fallback", bars: map[string]Bar{
		"ABEO": {Open: 1.25, High: 1.40, Low: 1.20, Close: 1.35, Volume: 1000},
	}}
	r := silentResolver(primary, fallback)

	q, err := r.Resolve(context.Background(), "ABEO", date.MustParse("2025-08-01"))
	if err != nil {
		t.Fatal(err)
	}
	if q.Source != "fallback" {
		t.Errorf("Source = %s, want fallback", q.Source)
	}
	if !q.Close.Equal(M(1.35)) {
		t.Errorf("Close = %s, want $1.35", q.Close)
	}
}

func TestResolveRemembersAffinity(t *testing.T) {
	primary := &fakeSource{name: "primary", bars: map[string]Bar{}}
	fallback := &fakeSource{name: "fallback", bars: map[string]Bar{
		"ABEO": {Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	}}
	r := silentResolver(primary, fallback)

	if _, err := r.Resolve(context.Background(), "ABEO", date.MustParse("2025-08-01")); err != nil {
		t.Fatal(err)
	}
	primaryCallsAfterFirst := primary.calls
	if _, err := r.Resolve(context.Background(), "ABEO", date.MustParse("2025-08-04")); err != nil {
		t.Fatal(err)
	}
	if primary.calls != primaryCallsAfterFirst {
		t.Errorf("primary was tried again for a ticker it already missed: %d calls", primary.calls)
	}
}

func TestResolvePinnedSourceGoesFirst(t *testing.T) {
	bar := Bar{Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}
	primary := &fakeSource{name: "primary", bars: map[string]Bar{"ABEO": bar}}
	fallback := &fakeSource{name: "fallback", bars: map[string]Bar{"ABEO": bar}}
	r := silentResolver(primary, fallback)
	r.Pin("ABEO", "fallback")

	q, err := r.Resolve(context.Background(), "ABEO", date.MustParse("2025-08-01"))
	if err != nil {
		t.Fatal(err)
	}
	if q.Source != "fallback" {
		t.Errorf("Source = %s, want the pinned fallback", q.Source)
	}
	if primary.calls != 0 {
		t.Errorf("primary called %d times for a pinned ticker, want 0", primary.calls)
	}

	// Pinning an unknown source changes nothing.
	r.Pin("CADL", "no-such-source")
	q, err = r.Resolve(context.Background(), "CADL", date.MustParse("2025-08-01"))
	if err == nil {
		t.Fatalf("Resolve(CADL) = %v, want an error from both sources", q)
	}
}

func TestResolveCachesWithinRun(t *testing.T) {
	src := &fakeSource{name: "only", bars: map[string]Bar{
		"ABEO": {Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	}}
	r := silentResolver(src)
	on := date.MustParse("2025-08-01")
	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), "ABEO", on); err != nil {
			t.Fatal(err)
		}
	}
	if src.calls != 1 {
		t.Errorf("source called %d times for the same ticker and day, want 1", src.calls)
	}
}

func TestResolveAllFailsAtomically(t *testing.T) {
	src := &fakeSource{name: "only", bars: map[string]Bar{
		"ABEO": {Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	}}
	r := silentResolver(src)
	_, err := r.ResolveAll(context.Background(), []string{"ABEO", "CADL"}, date.MustParse("2025-08-01"))
	var unavailable DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("error = %v, want DataUnavailableError", err)
	}
	if unavailable.Ticker != "CADL" {
		t.Errorf("failed ticker = %s, want CADL", unavailable.Ticker)
	}
	if len(unavailable.Causes) != 1 {
		t.Errorf("causes = %v, want the single source failure", unavailable.Causes)
	}
}

func TestResolveRejectsBadBars(t *testing.T) {
	bad := &fakeSource{name: "bad", bars: map[string]Bar{
		"ABEO": {Open: 0, High: 1, Low: 1, Close: 1, Volume: 1},
	}}
	good := &fakeSource{name: "good", bars: map[string]Bar{
		"ABEO": {Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	}}
	r := silentResolver(bad, good)
	q, err := r.Resolve(context.Background(), "ABEO", date.MustParse("2025-08-01"))
	if err != nil {
		t.Fatal(err)
	}
	if q.Source != "good" {
		t.Errorf("Source = %s, want the zero-price bar skipped", q.Source)
	}
}
