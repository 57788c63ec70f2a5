// Package microcap provides the functions and types behind a daily
// micro-cap trading journal: a small cash account, a handful of positions
// with stop losses, one accounting run per trading day. It is designed to be
// local-first and auditable, every state change is recorded in
// human-readable JSONL files that diff cleanly under version control.
//
// The core functionalities include:
//   - Position Ledger: cash and open positions with weighted average cost,
//     mutated only through validated trades.
//   - Trade Processing: applying a day's orders against that day's quotes,
//     with automatic stop-loss sells swept before manual orders, limit and
//     market-on-open fill policies, and per-order rejections that never
//     abort the run.
//   - Price Resolution: daily bars fetched from redundant market data
//     endpoints with per-ticker affinity and a daily disk cache.
//   - Valuation: marking every position at its close to produce the day's
//     equity snapshot, all or nothing so the curve is never partial.
//   - Performance Analysis: total return, max drawdown, Sharpe and Sortino
//     ratios, and a CAPM regression against a benchmark index, degrading to
//     explicit "undefined" values instead of fabricating numbers.
//
// This package serves as the foundational logic for the mcj command-line
// tool, ensuring that all operations are consistent and based on a single
// source of truth.
package microcap
