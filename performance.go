package microcap

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/petard/microcap/date"
)

// AnalyzerConfig tunes the performance statistics. The zero value is not
// usable; start from DefaultAnalyzerConfig.
type AnalyzerConfig struct {
	// TradingDays is the annualization factor.
	TradingDays int
	// RiskFreeRate is the annual risk-free rate used for excess returns.
	RiskFreeRate float64
	// MinObservations is the sample size under which CAPM estimates are
	// flagged low confidence.
	MinObservations int
	// MinRSquared is the fit quality under which CAPM estimates are
	// flagged low confidence.
	MinRSquared float64
}

// DefaultAnalyzerConfig returns the standard settings: 252 trading days, a
// zero risk-free rate, and CAPM confidence thresholds of 30 observations
// and an R-squared of 0.20.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		TradingDays:     252,
		RiskFreeRate:    0,
		MinObservations: 30,
		MinRSquared:     0.20,
	}
}

// Ratio is a statistic that may be undefined on the given sample. Callers
// must check Defined before using Value; Reason says what was missing.
type Ratio struct {
	Value   float64
	Defined bool
	Reason  string
}

func definedRatio(v float64) Ratio { return Ratio{Value: v, Defined: true} }

func undefinedRatio(reason string) Ratio { return Ratio{Reason: reason} }

// Drawdown is the deepest peak-to-trough equity loss, as a fraction of the
// peak, with the day the trough was hit.
type Drawdown struct {
	Depth   float64 // negative or zero
	Trough  date.Date
	Defined bool
}

// CAPM holds the regression of portfolio excess returns on benchmark excess
// returns.
type CAPM struct {
	Benchmark     string
	Beta          float64
	Alpha         float64 // annualized
	RSquared      float64
	Observations  int
	LowConfidence bool
	Defined       bool
	Reason        string
}

// Metrics is the full statistics block of a performance report. Analyze
// never fails: statistics the sample cannot support come back undefined
// with a reason instead.
type Metrics struct {
	Start          date.Date
	End            date.Date
	Observations   int
	TotalReturn    Ratio
	MaxDrawdown    Drawdown
	SharpePeriod   Ratio
	SharpeAnnual   Ratio
	SortinoPeriod  Ratio
	SortinoAnnual  Ratio
	CAPM           CAPM
}

// Analyze computes performance statistics over an equity curve, optionally
// regressing it against a benchmark price history for CAPM estimates. Pass
// an empty benchmark name to skip CAPM.
func Analyze(cfg AnalyzerConfig, equity *date.History[float64], benchmark string, benchmarkPrices *date.History[float64]) Metrics {
	m := Metrics{}
	if equity == nil || equity.Len() == 0 {
		m.TotalReturn = undefinedRatio("no equity history")
		m.SharpePeriod = undefinedRatio("no equity history")
		m.SharpeAnnual = undefinedRatio("no equity history")
		m.SortinoPeriod = undefinedRatio("no equity history")
		m.SortinoAnnual = undefinedRatio("no equity history")
		m.CAPM = CAPM{Reason: "no equity history"}
		return m
	}

	m.Start, _ = equity.First()
	m.End, _ = equity.Latest()

	days, values := curve(equity)
	m.Observations = len(values)

	if first := values[0]; first > 0 {
		m.TotalReturn = definedRatio(values[len(values)-1]/first - 1)
	} else {
		m.TotalReturn = undefinedRatio("starting equity is not positive")
	}

	m.MaxDrawdown = maxDrawdown(days, values)

	returns := dailyReturns(values)
	rfDaily := dailyRate(cfg.RiskFreeRate, cfg.TradingDays)
	m.SharpePeriod, m.SharpeAnnual = sharpe(cfg, returns, rfDaily)
	m.SortinoPeriod, m.SortinoAnnual = sortino(cfg, returns, rfDaily)

	if benchmark != "" {
		m.CAPM = capm(cfg, benchmark, days, returns, benchmarkPrices, rfDaily)
	} else {
		m.CAPM = CAPM{Reason: "no benchmark configured"}
	}
	return m
}

func curve(h *date.History[float64]) ([]date.Date, []float64) {
	days := make([]date.Date, 0, h.Len())
	values := make([]float64, 0, h.Len())
	for on, v := range h.Values() {
		days = append(days, on)
		values = append(values, v)
	}
	return days, values
}

// dailyReturns computes simple returns between consecutive observations.
// A zero previous value cannot produce a return and truncates the series.
func dailyReturns(values []float64) []float64 {
	var returns []float64
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			return returns
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	return returns
}

// dailyRate converts an annual rate to its daily equivalent.
func dailyRate(annual float64, tradingDays int) float64 {
	if annual == 0 || tradingDays <= 0 {
		return 0
	}
	return math.Pow(1+annual, 1/float64(tradingDays)) - 1
}

func maxDrawdown(days []date.Date, values []float64) Drawdown {
	if len(values) < 2 {
		return Drawdown{}
	}
	peak := values[0]
	dd := Drawdown{}
	for i, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		depth := v/peak - 1
		if !dd.Defined || depth < dd.Depth {
			dd.Depth = depth
			dd.Trough = days[i]
			dd.Defined = true
		}
	}
	return dd
}

func sharpe(cfg AnalyzerConfig, returns []float64, rfDaily float64) (period, annual Ratio) {
	if len(returns) < 2 {
		r := undefinedRatio("need at least two daily returns")
		return r, r
	}
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - rfDaily
	}
	mean, std := stat.MeanStdDev(excess, nil)
	if std == 0 || math.IsNaN(std) {
		r := undefinedRatio("zero return variance")
		return r, r
	}
	n := float64(len(returns))
	periodReturn := 1.0
	for _, r := range returns {
		periodReturn *= 1 + r
	}
	periodReturn -= 1
	rfPeriod := math.Pow(1+rfDaily, n) - 1
	period = definedRatio((periodReturn - rfPeriod) / (std * math.Sqrt(n)))
	annual = definedRatio(mean / std * math.Sqrt(float64(cfg.TradingDays)))
	return period, annual
}

func sortino(cfg AnalyzerConfig, returns []float64, rfDaily float64) (period, annual Ratio) {
	if len(returns) < 2 {
		r := undefinedRatio("need at least two daily returns")
		return r, r
	}
	var sumSq, sumExcess float64
	for _, r := range returns {
		excess := r - rfDaily
		sumExcess += excess
		if excess < 0 {
			sumSq += excess * excess
		}
	}
	n := float64(len(returns))
	downside := math.Sqrt(sumSq / n)
	if downside == 0 {
		r := undefinedRatio("no downside deviation")
		return r, r
	}
	mean := sumExcess / n
	periodReturn := 1.0
	for _, r := range returns {
		periodReturn *= 1 + r
	}
	periodReturn -= 1
	rfPeriod := math.Pow(1+rfDaily, n) - 1
	period = definedRatio((periodReturn - rfPeriod) / (downside * math.Sqrt(n)))
	annual = definedRatio(mean / downside * math.Sqrt(float64(cfg.TradingDays)))
	return period, annual
}

// capm regresses portfolio excess returns on benchmark excess returns over
// the days both series cover.
func capm(cfg AnalyzerConfig, benchmark string, days []date.Date, portReturns []float64, prices *date.History[float64], rfDaily float64) CAPM {
	if prices == nil || prices.Len() < 2 {
		return CAPM{Benchmark: benchmark, Reason: "no benchmark history"}
	}

	// Align: portReturns[i] covers days[i] to days[i+1]; the benchmark
	// return for the same span needs prices on (or before) both days.
	var px, py []float64
	for i := 0; i < len(portReturns); i++ {
		b0, ok0 := prices.ValueAsOf(days[i])
		b1, ok1 := prices.ValueAsOf(days[i+1])
		if !ok0 || !ok1 || b0 == 0 {
			continue
		}
		px = append(px, b1/b0-1-rfDaily)
		py = append(py, portReturns[i]-rfDaily)
	}
	if len(px) < 2 {
		return CAPM{Benchmark: benchmark, Reason: "not enough overlapping observations"}
	}
	if v := stat.Variance(px, nil); v == 0 {
		return CAPM{Benchmark: benchmark, Observations: len(px), Reason: "benchmark returns have zero variance"}
	}

	alpha, beta := stat.LinearRegression(px, py, nil, false)
	r2 := stat.RSquared(px, py, nil, alpha, beta)
	c := CAPM{
		Benchmark:    benchmark,
		Beta:         beta,
		Alpha:        math.Pow(1+alpha, float64(cfg.TradingDays)) - 1,
		RSquared:     r2,
		Observations: len(px),
		Defined:      true,
	}
	if len(px) < cfg.MinObservations || r2 < cfg.MinRSquared {
		c.LowConfidence = true
	}
	return c
}
