package yahoo

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/petard/microcap/date"
)

func chartDoc(t *testing.T, payload string) interface{} {
	t.Helper()
	var doc interface{}
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		t.Fatal(err)
	}
	return doc
}

func unix(t *testing.T, day string) int64 {
	t.Helper()
	d := date.MustParse(day)
	return time.Date(d.Year(), d.Month(), d.Day(), 13, 30, 0, 0, time.UTC).Unix()
}

func TestDecodeChart(t *testing.T) {
	doc := chartDoc(t, `{
	  "chart": {
	    "result": [{
	      "timestamp": [`+itoa(unix(t, "2025-08-01"))+`, `+itoa(unix(t, "2025-08-04"))+`],
	      "indicators": {"quote": [{
	        "open":   [1.25, 0.95],
	        "high":   [1.40, 1.02],
	        "low":    [1.20, 0.90],
	        "close":  [1.35, 0.92],
	        "volume": [152300, 98100]
	      }]}
	    }],
	    "error": null
	  }
	}`)
	bars, err := decodeChart("ABEO", doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 2 {
		t.Fatalf("decoded %d bars, want 2", len(bars))
	}
	b, ok := bars[date.MustParse("2025-08-01")]
	if !ok {
		t.Fatal("missing bar for 2025-08-01")
	}
	if b.Open != 1.25 || b.High != 1.40 || b.Low != 1.20 || b.Close != 1.35 {
		t.Errorf("bar = %+v", b)
	}
}

func TestDecodeChartSkipsNullRows(t *testing.T) {
	doc := chartDoc(t, `{
	  "chart": {
	    "result": [{
	      "timestamp": [`+itoa(unix(t, "2025-08-01"))+`, `+itoa(unix(t, "2025-08-04"))+`],
	      "indicators": {"quote": [{
	        "open":   [1.25, null],
	        "high":   [1.40, null],
	        "low":    [1.20, null],
	        "close":  [1.35, null],
	        "volume": [152300, null]
	      }]}
	    }],
	    "error": null
	  }
	}`)
	bars, err := decodeChart("ABEO", doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 1 {
		t.Fatalf("decoded %d bars, want the halted session skipped", len(bars))
	}
}

func TestDecodeChartReportsAPIError(t *testing.T) {
	doc := chartDoc(t, `{
	  "chart": {
	    "result": null,
	    "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}
	  }
	}`)
	if _, err := decodeChart("ZZZZ", doc); err == nil {
		t.Fatal("a chart error payload must be an error")
	}
}

func TestDecodeChartRejectsRaggedColumns(t *testing.T) {
	doc := chartDoc(t, `{
	  "chart": {
	    "result": [{
	      "timestamp": [`+itoa(unix(t, "2025-08-01"))+`, `+itoa(unix(t, "2025-08-04"))+`],
	      "indicators": {"quote": [{
	        "open":   [1.25],
	        "high":   [1.40, 1.02],
	        "low":    [1.20, 0.90],
	        "close":  [1.35, 0.92],
	        "volume": [152300, 98100]
	      }]}
	    }],
	    "error": null
	  }
	}`)
	if _, err := decodeChart("ABEO", doc); err == nil {
		t.Fatal("ragged columns must be an error")
	}
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
