package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	checkoutsvc "github.com/pontodigital/pdv-backend/internal/checkout"
	postsalesvc "github.com/pontodigital/pdv-backend/internal/postsale"
	scannersvc "github.com/pontodigital/pdv-backend/internal/scanner"
	storecreditsvc "github.com/pontodigital/pdv-backend/internal/storecredit"
	pkgAuth "github.com/pontodigital/pdv-backend/pkg/auth"
	"github.com/pontodigital/pdv-backend/pkg/config"
	"github.com/pontodigital/pdv-backend/pkg/db/models"
	"github.com/pontodigital/pdv-backend/pkg/enums"
	"github.com/pontodigital/pdv-backend/pkg/fiscal"
	"github.com/pontodigital/pdv-backend/pkg/logger"
	"github.com/pontodigital/pdv-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubFiscal struct {
	saleID uuid.UUID
}

func (s stubFiscal) CreateSale(ctx context.Context, req fiscal.CreateSaleRequest) (*fiscal.CreateSaleResponse, error) {
	return &fiscal.CreateSaleResponse{
		SaleID:       s.saleID,
		PrintPayload: &fiscal.PrintPayload{Text: "documento fiscal"},
	}, nil
}

type stubCatalog struct {
	product *models.Product
}

func (s stubCatalog) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	if s.product != nil && s.product.Barcode == barcode {
		return s.product, nil
	}
	return nil, fmt.Errorf("not found")
}

func (s stubCatalog) GetByInternalCode(ctx context.Context, internalCode string) (*models.Product, error) {
	return nil, fmt.Errorf("not found")
}

type stubPrinter struct{}

func (stubPrinter) Print(ctx context.Context, text string) error {
	return nil
}

type stubReprinter struct{}

func (stubReprinter) Reprint(ctx context.Context, saleID uuid.UUID) (string, error) {
	return "segunda via", nil
}

type stubCreditRepo struct{}

func (s *stubCreditRepo) WithTx(tx *gorm.DB) storecreditsvc.Repository {
	return s
}

func (s *stubCreditRepo) Append(ctx context.Context, entry *models.StoreCreditEntry) error {
	return nil
}

func (s *stubCreditRepo) BalanceByDocument(ctx context.Context, document string) (uuid.UUID, decimal.Decimal, error) {
	return uuid.Nil, decimal.Zero, gorm.ErrRecordNotFound
}

func (s *stubCreditRepo) BalanceByCustomerID(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
		Company: config.CompanyConfig{MaxInstallments: 12},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, saleID uuid.UUID) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})

	creditService, err := storecreditsvc.NewService(storecreditsvc.ServiceParams{
		Repo:   &stubCreditRepo{},
		Logger: logg,
	})
	if err != nil {
		t.Fatalf("store credit service: %v", err)
	}

	scannerService, err := scannersvc.NewService(scannersvc.ServiceParams{
		Catalog: stubCatalog{product: &models.Product{
			ID:          uuid.New(),
			Barcode:     "7891000100103",
			Description: "Leite Integral 1L",
			UnitPrice:   decimal.RequireFromString("5.99"),
			Unit:        "un",
			IsActive:    true,
		}},
		Logger: logg,
	})
	if err != nil {
		t.Fatalf("scanner service: %v", err)
	}

	postSaleService, err := postsalesvc.NewService(postsalesvc.ServiceParams{
		Printer:   stubPrinter{},
		Reprinter: stubReprinter{},
		Logger:    logg,
		Registry:  postsalesvc.NewRegistry(0),
	})
	if err != nil {
		t.Fatalf("post-sale service: %v", err)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Fiscal:          stubFiscal{saleID: saleID},
		Credit:          creditService,
		Workflow:        postSaleService,
		Logger:          logg,
		MaxInstallments: cfg.Company.MaxInstallments,
	})
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}

	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		nil,
		checkoutService,
		scannerService,
		postSaleService,
		creditService,
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.IssueAccessToken(cfg.JWT, pkgAuth.Claims{
		OperatorID:  uuid.New(),
		AccountType: enums.AccountTypeIndividual,
		TerminalID:  "pdv-01",
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig(), uuid.New())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig(), uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestScanRejectsBadJSON(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestCheckoutThenPostSaleStatus(t *testing.T) {
	cfg := testConfig()
	saleID := uuid.New()
	router := newTestRouter(t, cfg, saleID)
	token := buildToken(t, cfg)

	body := `{
		"subtotal": "50.00",
		"discount": "0",
		"payments": [{"method": "cash", "amount": "50.00"}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for checkout got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			SaleID   uuid.UUID `json:"sale_id"`
			NextStep string    `json:"next_step"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode checkout response: %v", err)
	}
	if envelope.Data.SaleID != saleID {
		t.Fatalf("expected sale id %s got %s", saleID, envelope.Data.SaleID)
	}
	if envelope.Data.NextStep != string(postsalesvc.StepFiscalPrint) {
		t.Fatalf("expected fiscal print step got %q", envelope.Data.NextStep)
	}

	status := httptest.NewRequest(http.MethodGet, "/api/v1/postsale/"+saleID.String(), nil)
	status.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, status)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for post-sale status got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCustomerCreditUnknownDocumentIsZeroBalance(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/12345678901/credit", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown document got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			HasBalance bool `json:"has_balance"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode credit response: %v", err)
	}
	if envelope.Data.HasBalance {
		t.Fatalf("expected zero balance for unknown document")
	}
}
