package loans

import (
	"math"
	"testing"
)

func TestBuildROI_FirstOwnedGraceMonth(t *testing.T) {
	loan := oneYearLoan()
	loan.GraceYears = 1
	loan.Ownership = nil
	Allocate(loan, NamedHolder("alice"), 50, 5000, on("2024-01-15"))

	schedule, err := BuildSchedule(loan)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}
	entries := BuildROI(loan, schedule)
	if len(entries) == 0 {
		t.Fatal("BuildROI() returned no entries")
	}

	// Nothing collected yet in the first grace month: the position is worth
	// its discounted balance share, at a loss against the invested capital.
	e := entries[0]
	if e.Realized != 0 {
		t.Errorf("entries[0].Realized = %v, want 0", e.Realized)
	}
	wantUnrealized := round2(schedule[0].Balance * LiquidationDiscount * 0.5)
	if e.Unrealized != wantUnrealized {
		t.Errorf("entries[0].Unrealized = %v, want %v", e.Unrealized, wantUnrealized)
	}
	if e.Invested != 5000 {
		t.Errorf("entries[0].Invested = %v, want 5000", e.Invested)
	}
	wantROI := (wantUnrealized - 5000) / 5000
	if math.Abs(e.ROI-wantROI) > 1e-9 {
		t.Errorf("entries[0].ROI = %v, want %v", e.ROI, wantROI)
	}
	if e.ROI >= 0 {
		t.Errorf("entries[0].ROI = %v, want < 0 before any collection", e.ROI)
	}
}

func TestBuildROI_SkipsUnownedAndTerminalRows(t *testing.T) {
	loan := oneYearLoan(Default{Date: on("2024-06-10"), Recovery: 2000})
	loan.PurchaseDate = on("2024-03-01")
	schedule, err := BuildSchedule(loan)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}

	entries := BuildROI(loan, schedule)
	// Schedule runs January through the June default; owned from March, and
	// the terminal default row carries no ROI entry.
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3 (March through May)", len(entries))
	}
	if entries[0].Date != on("2024-03-01") {
		t.Errorf("entries[0].Date = %v, want 2024-03-01", entries[0].Date)
	}
}

func TestBuildProjectedTimeline(t *testing.T) {
	a := oneYearLoan()
	b := oneYearLoan()
	b.ID = "L2"
	b.LoanStartDate = on("2024-04-10")
	b.PurchaseDate = on("2024-04-10")
	b.Principal = 5000
	b.PurchasePrice = 5000

	tl, err := BuildProjectedTimeline([]*Loan{a, b})
	if err != nil {
		t.Fatalf("BuildProjectedTimeline() error = %v", err)
	}

	// January 2024 through March 2025.
	if len(tl.Months) != 15 {
		t.Fatalf("len(Months) = %d, want 15", len(tl.Months))
	}
	if tl.Months[0] != on("2024-01-01") || tl.Months[14] != on("2025-03-01") {
		t.Errorf("Months span %v..%v, want 2024-01-01..2025-03-01", tl.Months[0], tl.Months[14])
	}

	// The later loan has no value before its purchase month.
	for i := 0; i < 3; i++ {
		if tl.ByLoan["L2"][i] != nil {
			t.Errorf("ByLoan[L2][%d] = %v, want nil before purchase", i, *tl.ByLoan["L2"][i])
		}
	}
	if tl.ByLoan["L2"][3] == nil {
		t.Fatal("ByLoan[L2][3] = nil, want a value from the purchase month on")
	}

	// The earlier loan's terminal value forward-fills past its maturity.
	if tl.ByLoan["L1"][14] == nil {
		t.Fatal("ByLoan[L1][14] = nil, want the terminal value forward-filled")
	}
	if *tl.ByLoan["L1"][14] != *tl.ByLoan["L1"][11] {
		t.Errorf("forward fill changed the value: %v, want %v", *tl.ByLoan["L1"][14], *tl.ByLoan["L1"][11])
	}

	// While only one loan has a value the weighted average is that value;
	// afterwards it is the invested-capital weighted mean.
	if tl.Weighted[0] == nil || *tl.Weighted[0] != *tl.ByLoan["L1"][0] {
		t.Errorf("Weighted[0] = %v, want the single loan's value", tl.Weighted[0])
	}
	va, vb := *tl.ByLoan["L1"][5], *tl.ByLoan["L2"][5]
	want := (va*10000 + vb*5000) / 15000
	if got := *tl.Weighted[5]; math.Abs(got-want) > 1e-9 {
		t.Errorf("Weighted[5] = %v, want %v", got, want)
	}
}

func TestBuildProjectedTimeline_Deterministic(t *testing.T) {
	// Several loans with distinct invested weights: the weighted average
	// must come out bit-identical on every build, regardless of map order.
	var all []*Loan
	for i, principal := range []float64{10000, 5000, 7500, 2500} {
		l := oneYearLoan()
		l.ID = string(rune('A' + i))
		l.Principal = principal
		l.PurchasePrice = principal
		all = append(all, l)
	}

	first, err := BuildProjectedTimeline(all)
	if err != nil {
		t.Fatalf("BuildProjectedTimeline() error = %v", err)
	}
	for run := 0; run < 5; run++ {
		next, err := BuildProjectedTimeline(all)
		if err != nil {
			t.Fatalf("BuildProjectedTimeline() run %d error = %v", run, err)
		}
		for i := range first.Weighted {
			if (first.Weighted[i] == nil) != (next.Weighted[i] == nil) {
				t.Fatalf("run %d: Weighted[%d] presence differs", run, i)
			}
			if first.Weighted[i] != nil && *first.Weighted[i] != *next.Weighted[i] {
				t.Errorf("run %d: Weighted[%d] = %v, want %v (bit-identical)", run, i, *next.Weighted[i], *first.Weighted[i])
			}
		}
	}
}

func TestTimeline_WeightedLookups(t *testing.T) {
	loan := oneYearLoan()
	tl, err := BuildProjectedTimeline([]*Loan{loan})
	if err != nil {
		t.Fatalf("BuildProjectedTimeline() error = %v", err)
	}

	got, ok := tl.WeightedAsOf(on("2024-06-20"))
	if !ok || got != *tl.Weighted[5] {
		t.Errorf("WeightedAsOf(2024-06) = %v/%v, want the June value", got, ok)
	}
	if _, ok := tl.WeightedAsOf(on("2020-01-01")); ok {
		t.Error("WeightedAsOf() before the timeline = ok, want no value")
	}
	terminal, ok := tl.WeightedTerminal()
	if !ok || terminal != *tl.Weighted[len(tl.Weighted)-1] {
		t.Errorf("WeightedTerminal() = %v/%v, want the last value", terminal, ok)
	}
}

func TestComputeKPIs(t *testing.T) {
	a := oneYearLoan()
	b := oneYearLoan()
	b.ID = "L2"
	b.Principal = 5000
	b.PurchasePrice = 5000

	k, err := ComputeKPIs([]*Loan{a, b}, on("2024-06-20"))
	if err != nil {
		t.Fatalf("ComputeKPIs() error = %v", err)
	}

	if k.TotalInvested != 15000 {
		t.Errorf("TotalInvested = %v, want 15000", k.TotalInvested)
	}
	if k.CapitalRecovered <= 0 {
		t.Errorf("CapitalRecovered = %v, want > 0 after six months of payments", k.CapitalRecovered)
	}
	wantPct := Percent(k.CapitalRecovered / k.TotalInvested * 100)
	if !k.CapitalRecoveredPct.Equal(wantPct) {
		t.Errorf("CapitalRecoveredPct = %v, want %v", k.CapitalRecoveredPct, wantPct)
	}
	// Six months in the position is still below water; at maturity it is not.
	if k.CurrentROI >= k.ProjectedROI {
		t.Errorf("CurrentROI = %v, want < ProjectedROI %v", k.CurrentROI, k.ProjectedROI)
	}
}
