package renderer

import (
	"fmt"

	"github.com/petard/microcap"
)

// ratio formats a statistic, or "n/a" with the reason when the sample could
// not support it.
func ratio(r microcap.Ratio) string {
	if !r.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", r.Value)
}

// ratioPercent formats a return statistic as a percentage.
func ratioPercent(r microcap.Ratio) string {
	if !r.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", 100*r.Value)
}
