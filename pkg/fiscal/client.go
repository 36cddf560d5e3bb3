package fiscal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pontodigital/pdv-backend/pkg/config"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("fiscal base url is required")
	errLoggerRequired  = errors.New("fiscal logger is required")
)

// Client talks to the remote fiscal ledger service. The service owns the
// tax-document format; this client only moves opaque payloads.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logger.Logger
}

// NewClient validates the configuration and builds the fiscal client.
func NewClient(cfg config.FiscalConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		logger:     logg,
	}, nil
}

// CardRecord mirrors the card attributes the tax authority requires on the
// fiscal document when payment is by card.
type CardRecord struct {
	IntegrationType  string `json:"integration_type"`
	AcquirerCNPJ     string `json:"acquirer_cnpj"`
	Brand            string `json:"brand"`
	Operation        string `json:"operation"`
	InstallmentCount int    `json:"installment_count,omitempty"`
}

// InstallmentRecord describes the in-store installment plan of a sale.
type InstallmentRecord struct {
	CustomerID       uuid.UUID       `json:"customer_id"`
	Count            int             `json:"count"`
	FirstDueDate     time.Time       `json:"first_due_date"`
	InstallmentValue decimal.Decimal `json:"installment_value"`
}

// PaymentRecord is one settled payment line of a finalized sale.
type PaymentRecord struct {
	Method      string             `json:"method"`
	Amount      decimal.Decimal    `json:"amount"`
	Card        *CardRecord        `json:"card,omitempty"`
	Installment *InstallmentRecord `json:"installment,omitempty"`
}

// CreateSaleRequest is the finalized sale submitted to the ledger.
type CreateSaleRequest struct {
	Payments           []PaymentRecord `json:"payments"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Discount           decimal.Decimal `json:"discount"`
	StoreCreditApplied decimal.Decimal `json:"store_credit_applied"`
	Total              decimal.Decimal `json:"total"`
	SellerID           *uuid.UUID      `json:"seller_id,omitempty"`
	CustomerName       string          `json:"customer_name,omitempty"`
	CustomerDocument   string          `json:"customer_document,omitempty"`
}

// PrintPayload is the printable fiscal document. Installment sales return a
// store/customer copy pair because the two receipts print separately.
type PrintPayload struct {
	Text         string `json:"text,omitempty"`
	StoreCopy    string `json:"store_copy,omitempty"`
	CustomerCopy string `json:"customer_copy,omitempty"`
}

// IsPair reports whether the payload is a store/customer copy pair.
func (p *PrintPayload) IsPair() bool {
	return p != nil && p.CustomerCopy != ""
}

// Primary returns the document printed first: the store copy for pairs,
// otherwise the plain text.
func (p *PrintPayload) Primary() string {
	if p == nil {
		return ""
	}
	if p.StoreCopy != "" {
		return p.StoreCopy
	}
	return p.Text
}

// CreateSaleResponse is the ledger's acknowledgement of an accepted sale.
type CreateSaleResponse struct {
	SaleID             uuid.UUID     `json:"sale_id"`
	PrintPayload       *PrintPayload `json:"print_payload,omitempty"`
	InstallmentBillets []byte        `json:"installment_billets,omitempty"`
}

// CreateSale submits the finalized sale. A non-2xx answer is a fatal
// failure for the caller; the draft must stay editable.
func (c *Client) CreateSale(ctx context.Context, req CreateSaleRequest) (*CreateSaleResponse, error) {
	var resp CreateSaleResponse
	if err := c.post(ctx, "/v1/sales", req, &resp); err != nil {
		return nil, err
	}
	if resp.SaleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "fiscal service returned no sale id")
	}
	return &resp, nil
}

type reprintResponse struct {
	Text string `json:"text"`
}

// Reprint asks the ledger to re-render the printable document for an
// already-accepted sale. Used as the fallback when local dispatch fails.
func (c *Client) Reprint(ctx context.Context, saleID uuid.UUID) (string, error) {
	if saleID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "sale id is required")
	}
	var resp reprintResponse
	if err := c.post(ctx, fmt.Sprintf("/v1/sales/%s/reprint", saleID), nil, &resp); err != nil {
		return "", err
	}
	if resp.Text == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "fiscal service returned an empty reprint")
	}
	return resp.Text, nil
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode fiscal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build fiscal request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fiscal service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return pkgerrors.New(pkgerrors.CodeDependency, "fiscal service rejected the request").
			WithDetails(map[string]any{"status": resp.StatusCode, "body": string(excerpt)})
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode fiscal response")
	}
	return nil
}
