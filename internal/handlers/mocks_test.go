package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tradeflow/internal/logger"
	"tradeflow/internal/middleware"
	"tradeflow/internal/models"
	"tradeflow/internal/pagination"
	"tradeflow/internal/performance"
	"tradeflow/internal/validator"
)

const (
	testUserID      = "0190a1b2-0000-7000-8000-000000000001"
	testPortfolioID = "0190a1b2-0000-7000-8000-0000000000a1"
)

// --- mock services ---

type mockUserService struct {
	createUserFn     func(email, password string) (*models.User, error)
	getUserByEmailFn func(email string) (*models.User, error)
	getUserByIDFn    func(id string) (*models.User, error)
	verifyPasswordFn func(user *models.User, password string) bool
	attemptLoginFn   func(email, password string) (*models.User, error)
	deleteUserFn     func(id string) error
}

func (m *mockUserService) CreateUser(email, password string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(user, password)
	}
	return true
}

func (m *mockUserService) AttemptLogin(email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) DeleteUser(id string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(id)
	}
	return nil
}

type mockPortfolioService struct {
	createPortfolioFn   func(userID, name string) (*models.Portfolio, error)
	getUserPortfoliosFn func(userID string, page pagination.Request) (*pagination.Page[models.Portfolio], error)
	getPortfolioByIDFn  func(userID, portfolioID string) (*models.Portfolio, error)
	deletePortfolioFn   func(userID, portfolioID string) error
}

func (m *mockPortfolioService) CreatePortfolio(userID, name string) (*models.Portfolio, error) {
	if m.createPortfolioFn != nil {
		return m.createPortfolioFn(userID, name)
	}
	return &models.Portfolio{}, nil
}

func (m *mockPortfolioService) GetUserPortfolios(userID string, page pagination.Request) (*pagination.Page[models.Portfolio], error) {
	if m.getUserPortfoliosFn != nil {
		return m.getUserPortfoliosFn(userID, page)
	}
	resp := pagination.NewPage[models.Portfolio](nil, page.WithDefaults(), 0)
	return &resp, nil
}

func (m *mockPortfolioService) GetPortfolioByID(userID, portfolioID string) (*models.Portfolio, error) {
	if m.getPortfolioByIDFn != nil {
		return m.getPortfolioByIDFn(userID, portfolioID)
	}
	return &models.Portfolio{}, nil
}

func (m *mockPortfolioService) DeletePortfolio(userID, portfolioID string) error {
	if m.deletePortfolioFn != nil {
		return m.deletePortfolioFn(userID, portfolioID)
	}
	return nil
}

type mockTransactionService struct {
	createTransactionFn        func(userID, portfolioID, ticker string, side models.TransactionSide, quantity, price decimal.Decimal) (*models.Transaction, error)
	getPortfolioTransactionsFn func(userID, portfolioID string, page pagination.Request) (*pagination.Page[models.Transaction], error)
}

func (m *mockTransactionService) CreateTransaction(userID, portfolioID, ticker string, side models.TransactionSide, quantity, price decimal.Decimal) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, portfolioID, ticker, side, quantity, price)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetPortfolioTransactions(userID, portfolioID string, page pagination.Request) (*pagination.Page[models.Transaction], error) {
	if m.getPortfolioTransactionsFn != nil {
		return m.getPortfolioTransactionsFn(userID, portfolioID, page)
	}
	resp := pagination.NewPage[models.Transaction](nil, page.WithDefaults(), 0)
	return &resp, nil
}

func (m *mockTransactionService) ListLedger(string) ([]models.Transaction, error) {
	return nil, nil
}

type mockPerformanceService struct {
	getPerformanceFn func(ctx context.Context, userID, portfolioID string) (*performance.PortfolioReport, error)
}

func (m *mockPerformanceService) GetPerformance(ctx context.Context, userID, portfolioID string) (*performance.PortfolioReport, error) {
	if m.getPerformanceFn != nil {
		return m.getPerformanceFn(ctx, userID, portfolioID)
	}
	return &performance.PortfolioReport{Holdings: []performance.HoldingReport{}}, nil
}

type mockTokens struct {
	err error
}

func (m *mockTokens) GenerateAccessToken(user *models.User) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "token-for-" + user.ID, nil
}

func (m *mockTokens) Expiry() time.Duration { return 30 * time.Minute }

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
