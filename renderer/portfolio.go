package renderer

import (
	"slices"

	loans "github.com/jeff-stratofied/loan-dashboard"
)

// roiRow is one month of the weighted ROI table, pre-formatted because the
// weighted series carries nil months.
type roiRow struct {
	Month    loans.Date
	Weighted string
}

// roiView is the data rendered by the ROI report.
type roiView struct {
	KPIs loans.KPIs
	Rows []roiRow
}

// ROIMarkdown renders the portfolio ROI timeline and KPIs to markdown.
func ROIMarkdown(tl *loans.Timeline, k loans.KPIs) string {
	view := &roiView{KPIs: k}
	for i, on := range tl.Months {
		cell := "-"
		if tl.Weighted[i] != nil {
			cell = loans.Percent(*tl.Weighted[i] * 100).SignedString()
		}
		view.Rows = append(view.Rows, roiRow{Month: on, Weighted: cell})
	}
	return renderTemplate("roi", "roi.md", view)
}

// tpvRow is one month of the Total-Portfolio-Value table.
type tpvRow struct {
	Month loans.Date
	Cells []string
	Total string
}

// portfolioView is the data rendered by the portfolio report.
type portfolioView struct {
	Totals  loans.PortfolioTotals
	Income  []loans.ExpectedIncomePoint
	TPVHead []string
	TPVRows []tpvRow
}

// PortfolioMarkdown renders the portfolio aggregation report to markdown.
func PortfolioMarkdown(totals loans.PortfolioTotals, income []loans.ExpectedIncomePoint, tpv *loans.TPVSeries) string {
	view := &portfolioView{Totals: totals, Income: income}

	ids := make([]string, 0, len(tpv.ByLoan))
	for id := range tpv.ByLoan {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	view.TPVHead = ids

	for i, on := range tpv.Months {
		row := tpvRow{Month: on}
		var total float64
		for _, id := range ids {
			v := tpv.ByLoan[id][i]
			total += v
			row.Cells = append(row.Cells, loans.USD(v).String())
		}
		row.Total = loans.USD(total).String()
		view.TPVRows = append(view.TPVRows, row)
	}
	return renderTemplate("portfolio", "portfolio.md", view)
}
