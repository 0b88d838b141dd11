package services

import (
	"context"
	"testing"

	"tradeflow/internal/logger"
	"tradeflow/internal/models"
	"tradeflow/internal/performance"
	"tradeflow/internal/testutil"
)

func init() {
	logger.Init("test")
}

type stubQuotes struct {
	prices    map[string]float64
	requested []string
}

func (s *stubQuotes) FetchQuotes(_ context.Context, tickers []string) map[string]float64 {
	s.requested = append(s.requested, tickers...)
	out := map[string]float64{}
	for _, t := range tickers {
		if p, ok := s.prices[t]; ok {
			out[t] = p
		}
	}
	return out
}

func TestGetPerformance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	owner := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, owner.ID)
	testutil.CreateTestTransaction(t, db, p.ID, "AAPL", models.SideBuy, 10, 100)
	testutil.CreateTestTransaction(t, db, p.ID, "AAPL", models.SideSell, 4, 150)
	testutil.CreateTestTransaction(t, db, p.ID, "MSFT", models.SideBuy, 2, 50)
	testutil.CreateTestTransaction(t, db, p.ID, "TSLA", models.SideBuy, 1, 10)
	testutil.CreateTestTransaction(t, db, p.ID, "TSLA", models.SideSell, 1, 20)

	quotes := &stubQuotes{prices: map[string]float64{"AAPL": 120}}
	svc := NewPerformanceService(db, NewTransactionService(db), performance.NewEngine(quotes))

	report, err := svc.GetPerformance(context.Background(), owner.ID, p.ID)
	testutil.AssertNoError(t, err)

	if report.PortfolioID != p.ID {
		t.Errorf("expected portfolio ID %s, got %s", p.ID, report.PortfolioID)
	}
	if len(quotes.requested) != 2 || quotes.requested[0] != "AAPL" || quotes.requested[1] != "MSFT" {
		t.Errorf("expected quotes requested for [AAPL MSFT], got %v", quotes.requested)
	}
	if len(report.Holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(report.Holdings))
	}

	aapl := report.Holdings[0]
	if aapl.Ticker != "AAPL" || aapl.CurrentValue != 720 || aapl.ProfitLoss != 120 || aapl.ProfitLossPct != 20 {
		t.Errorf("unexpected AAPL holding %+v", aapl)
	}
	msft := report.Holdings[1]
	if msft.CurrentPrice != 50 || msft.ProfitLoss != 0 {
		t.Errorf("expected MSFT valued at cost without a quote, got %+v", msft)
	}
	if report.TotalInvested != 700 || report.TotalValue != 820 || report.TotalProfitLoss != 120 {
		t.Errorf("unexpected totals %+v", report)
	}
}

func TestGetPerformance_EmptyPortfolio(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	owner := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, owner.ID)

	quotes := &stubQuotes{}
	svc := NewPerformanceService(db, NewTransactionService(db), performance.NewEngine(quotes))

	report, err := svc.GetPerformance(context.Background(), owner.ID, p.ID)
	testutil.AssertNoError(t, err)
	if len(report.Holdings) != 0 || report.Holdings == nil {
		t.Errorf("expected empty non-nil holdings, got %v", report.Holdings)
	}
	if report.TotalValue != 0 || report.TotalROIPct != 0 {
		t.Errorf("expected zero totals, got %+v", report)
	}
	if len(quotes.requested) != 0 {
		t.Errorf("expected no quote requests, got %v", quotes.requested)
	}
}

func TestGetPerformance_NotOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	p := testutil.CreateTestPortfolio(t, db, testutil.CreateTestUser(t, db).ID)

	svc := NewPerformanceService(db, NewTransactionService(db), performance.NewEngine(&stubQuotes{}))
	_, err := svc.GetPerformance(context.Background(), testutil.CreateTestUser(t, db).ID, p.ID)
	testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
}
