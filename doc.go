// Package loans provides a deterministic, calendar-driven simulation engine
// for a portfolio of purchased student loans. It is designed to be pure and
// regenerate-on-demand: schedules are never persisted, they are recomputed
// from a loan's static terms and its lifecycle events.
//
// The core functionalities include:
//   - Loan Normalization: converting heterogeneous raw records into a
//     canonical Loan shape with documented defaults filled in.
//   - Amortization Scheduling: walking calendar months through grace,
//     repayment, deferral and default states, recomputing the monthly
//     payment from the current balance so capitalized interest still fully
//     amortizes by maturity.
//   - Ownership Tracking: fractional, lot-priced allocations per loan with
//     an explicit Market holder absorbing the unattributed remainder.
//   - Earnings and ROI Timelines: per-month earnings, ownership-scaled
//     return on investment, and invested-capital-weighted portfolio series.
//   - Portfolio Aggregation: expected-income projections, total portfolio
//     value timelines and weighted KPIs, all numerically consistent with
//     the schedule's ground truth.
//
// This package serves as the foundational logic for the `loandash` command
// line tool and the thin loan-store proxy server; it performs no I/O and
// the only external input affecting its output is the explicitly supplied
// "today" reference date.
package loans
