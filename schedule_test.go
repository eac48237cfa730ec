package loans

import "testing"

func TestAnnuityPayment(t *testing.T) {
	tests := []struct {
		name      string
		balance   float64
		rate      float64
		remaining int
		want      float64
	}{
		{"one year at 1% monthly", 10000, 0.01, 12, 888.49},
		{"zero rate is linear", 10000, 0, 12, 833.33},
		{"no months left returns the balance", 500, 0.01, 0, 500},
		{"single month clears balance plus interest", 1000, 0.01, 1, 1010},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := annuityPayment(tt.balance, tt.rate, tt.remaining)
			if !near(got, tt.want) {
				t.Errorf("annuityPayment(%v, %v, %d) = %v, want %v", tt.balance, tt.rate, tt.remaining, got, tt.want)
			}
		})
	}
}

func TestBuildSchedule_OneYearNoEvents(t *testing.T) {
	loan := oneYearLoan()
	rows, err := BuildSchedule(loan)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}

	if len(rows) != 12 {
		t.Fatalf("len(rows) = %d, want 12", len(rows))
	}
	if rows[0].Date != on("2024-01-01") {
		t.Errorf("rows[0].Date = %v, want 2024-01-01", rows[0].Date)
	}
	if rows[0].Interest != 100.00 {
		t.Errorf("rows[0].Interest = %v, want 100.00", rows[0].Interest)
	}
	if rows[0].Payment != 888.49 {
		t.Errorf("rows[0].Payment = %v, want 888.49", rows[0].Payment)
	}
	if rows[0].PrincipalPaid != 788.49 {
		t.Errorf("rows[0].PrincipalPaid = %v, want 788.49", rows[0].PrincipalPaid)
	}
	if rows[11].Balance != 0 {
		t.Errorf("final balance = %v, want 0", rows[11].Balance)
	}
	if rows[11].ContractualMonth != 12 {
		t.Errorf("final contractual month = %d, want 12", rows[11].ContractualMonth)
	}

	var principal float64
	for i, r := range rows {
		principal += r.PrincipalPaid
		if !r.IsOwned {
			t.Errorf("rows[%d].IsOwned = false, want true", i)
		}
		if r.Balance < 0 {
			t.Errorf("rows[%d].Balance = %v, want never negative", i, r.Balance)
		}
		if i > 0 && rows[i].Balance >= rows[i-1].Balance {
			t.Errorf("balance not strictly decreasing at row %d: %v >= %v", i, rows[i].Balance, rows[i-1].Balance)
		}
	}
	if !near(principal, 10000) {
		t.Errorf("sum of principal paid = %v, want 10000", principal)
	}
	if !near(rows[11].CumPrincipal, 10000) {
		t.Errorf("final cumulative principal = %v, want 10000", rows[11].CumPrincipal)
	}
}

func TestBuildSchedule_DeferralExtendsCalendar(t *testing.T) {
	loan := oneYearLoan(Deferral{Start: on("2024-02-10"), Months: 3})
	rows, err := BuildSchedule(loan)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}

	if len(rows) != 15 {
		t.Fatalf("len(rows) = %d, want 15 (12 contractual + 3 deferred)", len(rows))
	}

	for i := 1; i <= 3; i++ {
		r := rows[i]
		if !r.IsDeferred {
			t.Errorf("rows[%d].IsDeferred = false, want true", i)
		}
		if r.ContractualMonth != 2 {
			t.Errorf("rows[%d].ContractualMonth = %d, want 2 (frozen during deferral)", i, r.ContractualMonth)
		}
		if r.DeferralIndex != i {
			t.Errorf("rows[%d].DeferralIndex = %d, want %d", i, r.DeferralIndex, i)
		}
		if r.DeferralRemaining != 3-i {
			t.Errorf("rows[%d].DeferralRemaining = %d, want %d", i, r.DeferralRemaining, 3-i)
		}
		if r.Payment != 0 {
			t.Errorf("rows[%d].Payment = %v, want 0", i, r.Payment)
		}
		if r.AccruedInterest <= 0 {
			t.Errorf("rows[%d].AccruedInterest = %v, want > 0", i, r.AccruedInterest)
		}
	}

	// Interest capitalized during the deferral, so the balance grew.
	if rows[3].Balance <= rows[0].Balance {
		t.Errorf("post-deferral balance = %v, want > %v", rows[3].Balance, rows[0].Balance)
	}
	// The recomputed payment exceeds the no-deferral payment.
	if rows[4].Payment <= rows[0].Payment {
		t.Errorf("post-deferral payment = %v, want > %v", rows[4].Payment, rows[0].Payment)
	}
	if rows[4].Date != on("2024-05-01") {
		t.Errorf("rows[4].Date = %v, want 2024-05-01 (calendar advanced through the deferral)", rows[4].Date)
	}
	if rows[14].Date != on("2025-03-01") {
		t.Errorf("last row date = %v, want 2025-03-01", rows[14].Date)
	}
	if rows[14].Balance != 0 {
		t.Errorf("final balance = %v, want 0", rows[14].Balance)
	}
}

func TestBuildSchedule_Prepayment(t *testing.T) {
	loan := oneYearLoan(Prepayment{Date: on("2024-05-15"), Amount: 500})
	rows, err := BuildSchedule(loan)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}

	if len(rows) != 12 {
		t.Fatalf("len(rows) = %d, want 12", len(rows))
	}
	r := rows[4]
	if r.Prepayment != 500 {
		t.Errorf("rows[4].Prepayment = %v, want 500", r.Prepayment)
	}
	if !near(r.PrincipalPaid, round2(r.Payment-r.Interest)+500) {
		t.Errorf("rows[4].PrincipalPaid = %v, want scheduled principal + 500", r.PrincipalPaid)
	}
	// Recomputed payments drop after the extra principal.
	if rows[5].Payment >= rows[4].Payment {
		t.Errorf("rows[5].Payment = %v, want < %v", rows[5].Payment, rows[4].Payment)
	}
	if rows[11].Balance != 0 {
		t.Errorf("final balance = %v, want 0", rows[11].Balance)
	}
}

func TestBuildSchedule_PrepaymentCappedAtBalance(t *testing.T) {
	loan := oneYearLoan(Prepayment{Date: on("2024-02-01"), Amount: 20000})
	rows, err := BuildSchedule(loan)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (schedule stops at zero balance)", len(rows))
	}
	r := rows[1]
	if r.Balance != 0 {
		t.Errorf("rows[1].Balance = %v, want 0", r.Balance)
	}
	// The prepayment was capped at what was left after the scheduled payment.
	want := round2(rows[0].Balance - round2(r.Payment-r.Interest))
	if !near(r.Prepayment, want) {
		t.Errorf("rows[1].Prepayment = %v, want %v (capped at remaining balance)", r.Prepayment, want)
	}
}

func TestBuildSchedule_DefaultIsTerminal(t *testing.T) {
	loan := oneYearLoan(Default{Date: on("2024-06-10"), Recovery: 2000})
	rows, err := BuildSchedule(loan)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}

	if len(rows) != 6 {
		t.Fatalf("len(rows) = %d, want 6 (no rows after a default)", len(rows))
	}
	r := rows[5]
	if !r.Defaulted || !r.IsTerminal() {
		t.Fatalf("rows[5].Defaulted = %v, want terminal default row", r.Defaulted)
	}
	if r.PrincipalPaid != 2000 {
		t.Errorf("recovery principal = %v, want 2000", r.PrincipalPaid)
	}
	if want := round2(rows[4].Balance - 2000); r.Balance != want {
		t.Errorf("rows[5].Balance = %v, want %v", r.Balance, want)
	}
	if r.Balance <= 0 {
		t.Errorf("rows[5].Balance = %v, want > 0 (recovery below balance)", r.Balance)
	}
}

func TestBuildSchedule_DefaultRecoveryCappedAtBalance(t *testing.T) {
	loan := oneYearLoan(Default{Date: on("2024-06-10"), Recovery: 1e6})
	rows, err := BuildSchedule(loan)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}

	r := rows[len(rows)-1]
	if r.PrincipalPaid != rows[len(rows)-2].Balance {
		t.Errorf("recovery principal = %v, want the full prior balance %v", r.PrincipalPaid, rows[len(rows)-2].Balance)
	}
	if r.Balance != 0 {
		t.Errorf("rows[%d].Balance = %v, want 0", len(rows)-1, r.Balance)
	}
}

func TestBuildSchedule_ZeroRateIsLinear(t *testing.T) {
	loan := oneYearLoan()
	loan.NominalRate = 0
	rows, err := BuildSchedule(loan)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}

	if len(rows) != 12 {
		t.Fatalf("len(rows) = %d, want 12", len(rows))
	}
	var principal float64
	for i, r := range rows {
		if r.Interest != 0 {
			t.Errorf("rows[%d].Interest = %v, want 0", i, r.Interest)
		}
		if r.Payment < 833.25 || r.Payment > 833.41 {
			t.Errorf("rows[%d].Payment = %v, want ~833.33", i, r.Payment)
		}
		principal += r.PrincipalPaid
	}
	if !near(principal, 10000) {
		t.Errorf("sum of principal paid = %v, want 10000", principal)
	}
	if rows[11].Balance != 0 {
		t.Errorf("final balance = %v, want 0", rows[11].Balance)
	}
}

func TestBuildSchedule_GraceCapitalizes(t *testing.T) {
	loan := oneYearLoan()
	loan.GraceYears = 1
	rows, err := BuildSchedule(loan)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}

	if len(rows) != 24 {
		t.Fatalf("len(rows) = %d, want 24", len(rows))
	}
	if rows[0].Payment != 0 {
		t.Errorf("rows[0].Payment = %v, want 0 during grace", rows[0].Payment)
	}
	if rows[0].AccruedInterest != 100.00 {
		t.Errorf("rows[0].AccruedInterest = %v, want 100.00", rows[0].AccruedInterest)
	}
	if rows[0].Balance != 10100.00 {
		t.Errorf("rows[0].Balance = %v, want 10100.00", rows[0].Balance)
	}
	// Monthly compounding over the grace year.
	if rows[11].Balance != 11268.25 {
		t.Errorf("end-of-grace balance = %v, want 11268.25", rows[11].Balance)
	}
	if rows[12].Payment <= 0 {
		t.Errorf("rows[12].Payment = %v, want > 0 (repayment started)", rows[12].Payment)
	}
	if rows[23].Balance != 0 {
		t.Errorf("final balance = %v, want 0", rows[23].Balance)
	}
}

func TestBuildSchedule_FeesOnOwnedRows(t *testing.T) {
	loan := oneYearLoan()
	loan.PurchaseDate = on("2024-03-01")
	loan.UpfrontFee = 150
	loan.MonthlyFeeRate = 0.005
	rows, err := BuildSchedule(loan)
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if rows[i].IsOwned {
			t.Errorf("rows[%d].IsOwned = true, want false before purchase", i)
		}
		if rows[i].Fee() != 0 {
			t.Errorf("rows[%d].Fee() = %v, want 0 before purchase", i, rows[i].Fee())
		}
	}
	if !rows[2].IsOwned {
		t.Fatalf("rows[2].IsOwned = false, want true")
	}
	if rows[2].UpfrontFee != 150 {
		t.Errorf("rows[2].UpfrontFee = %v, want 150 on the first owned month", rows[2].UpfrontFee)
	}
	if want := round2(rows[2].Balance * 0.005); rows[2].ServiceFee != want {
		t.Errorf("rows[2].ServiceFee = %v, want %v", rows[2].ServiceFee, want)
	}
	if rows[3].UpfrontFee != 0 {
		t.Errorf("rows[3].UpfrontFee = %v, want 0 (charged only once)", rows[3].UpfrontFee)
	}

	// Cumulative totals cover owned rows only.
	if rows[1].CumPayment != 0 {
		t.Errorf("rows[1].CumPayment = %v, want 0", rows[1].CumPayment)
	}
	if rows[2].CumPayment != rows[2].Payment {
		t.Errorf("rows[2].CumPayment = %v, want %v", rows[2].CumPayment, rows[2].Payment)
	}
}

func TestBuildSchedule_MissingStartDate(t *testing.T) {
	loan := &Loan{ID: "L1", Principal: 10000, NominalRate: 0.12, TermYears: 1}
	if _, err := BuildSchedule(loan); err == nil {
		t.Errorf("BuildSchedule() error = nil, want an error for a loan without a start date")
	}
}
