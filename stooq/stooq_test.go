package stooq

import (
	"errors"
	"testing"

	"github.com/petard/microcap/date"
)

func TestSymbol(t *testing.T) {
	testCases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "ABEO", want: "abeo.us"},
		{in: "abeo", want: "abeo.us"},
		{in: "ABEO.US", want: "abeo.us"},
		{in: "^GSPC", want: "^spx"},
		{in: "^DJI", want: "^dji"},
		{in: "^VIX", want: "^vix"},
		{in: "^RUT", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Symbol(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Symbol(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if tc.wantErr {
				if !errors.Is(err, ErrUnsupported) {
					t.Errorf("error = %v, want ErrUnsupported", err)
				}
				return
			}
			if got != tc.want {
				t.Errorf("Symbol(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDecodeCSV(t *testing.T) {
	body := []byte(`Date,Open,High,Low,Close,Volume
2025-08-01,1.25,1.40,1.20,1.35,152300
2025-08-04,0.95,1.02,0.90,0.92,98100
`)
	bars, err := decodeCSV("ABEO", body)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 2 {
		t.Fatalf("decoded %d bars, want 2", len(bars))
	}
	b, ok := bars[date.MustParse("2025-08-04")]
	if !ok {
		t.Fatal("missing bar for 2025-08-04")
	}
	if b.Open != 0.95 || b.Low != 0.90 || b.Close != 0.92 || b.Volume != 98100 {
		t.Errorf("bar = %+v", b)
	}
}

func TestDecodeCSVNoData(t *testing.T) {
	if _, err := decodeCSV("ZZZZ", []byte("No data\n")); err == nil {
		t.Fatal("the 'No data' body must be an error")
	}
	if _, err := decodeCSV("ZZZZ", []byte("")); err == nil {
		t.Fatal("an empty body must be an error")
	}
	if _, err := decodeCSV("ZZZZ", []byte("Date,Open,High,Low,Close\n")); err == nil {
		t.Fatal("a header-only body must be an error")
	}
}

func TestDecodeCSVMissingColumn(t *testing.T) {
	body := []byte("Date,Open,High,Low\n2025-08-01,1,1,1\n")
	if _, err := decodeCSV("ABEO", body); err == nil {
		t.Fatal("a body without a Close column must be an error")
	}
}
