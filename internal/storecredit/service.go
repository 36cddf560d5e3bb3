package storecredit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pontodigital/pdv-backend/pkg/db/models"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/logger"
	"github.com/pontodigital/pdv-backend/pkg/money"
)

// LedgerView is what the checkout form sees for a customer document.
type LedgerView struct {
	CustomerID uuid.UUID
	Document   string
	Balance    decimal.Decimal
}

// HasBalance reports whether the redemption toggle should be offered.
func (v *LedgerView) HasBalance() bool {
	return v != nil && v.Balance.GreaterThan(decimal.Zero)
}

// ServiceParams groups dependencies for the store-credit service.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

// Service manages customer credit balances and their redemption during
// checkout.
type Service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds a store-credit service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{repo: params.Repo, logg: params.Logger}, nil
}

// GetBalance fetches the ledger view for a customer document. A document
// with no ledger history is a zero balance, not an error.
func (s *Service) GetBalance(ctx context.Context, document string) (*LedgerView, error) {
	document = strings.TrimSpace(document)
	if document == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer document is required")
	}

	customerID, balance, err := s.repo.BalanceByDocument(ctx, document)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &LedgerView{Document: document, Balance: decimal.Zero}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching store credit balance")
	}
	return &LedgerView{
		CustomerID: customerID,
		Document:   document,
		Balance:    money.RoundCents(balance),
	}, nil
}

// PlanRedemption computes how much credit the sale can absorb:
// min(balance, base total), never negative.
func PlanRedemption(balance, baseTotal decimal.Decimal) decimal.Decimal {
	credit := decimal.Min(balance, baseTotal)
	if credit.IsNegative() {
		return decimal.Zero
	}
	return money.RoundCents(credit)
}

// Redeem debits the customer's balance for the amount a sale consumed and
// returns the remaining balance. The caller treats failure as non-fatal.
func (s *Service) Redeem(ctx context.Context, view *LedgerView, amount decimal.Decimal, saleReference string) (decimal.Decimal, error) {
	if view == nil || view.CustomerID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "customer ledger is required")
	}
	if !amount.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "redemption amount must be positive")
	}
	if amount.GreaterThan(view.Balance) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeStateConflict, "redemption exceeds the customer balance")
	}

	entry := &models.StoreCreditEntry{
		CustomerID:       view.CustomerID,
		CustomerDocument: view.Document,
		Direction:        models.StoreCreditDirectionDebit,
		Amount:           money.RoundCents(amount),
	}
	if saleReference != "" {
		entry.Reference = &saleReference
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debiting store credit")
	}

	remaining := money.RoundCents(view.Balance.Sub(amount))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"customer_id": view.CustomerID.String(),
		"amount":      amount.StringFixed(2),
		"remaining":   remaining.StringFixed(2),
	}), "store credit redeemed")
	return remaining, nil
}

// Grant credits a customer's balance, used when a return or promotion
// issues credit.
func (s *Service) Grant(ctx context.Context, customerID uuid.UUID, document string, amount decimal.Decimal, reference string) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	entry := &models.StoreCreditEntry{
		CustomerID:       customerID,
		CustomerDocument: strings.TrimSpace(document),
		Direction:        models.StoreCreditDirectionCredit,
		Amount:           money.RoundCents(amount),
	}
	if reference != "" {
		entry.Reference = &reference
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "crediting store credit")
	}
	return nil
}

// VoucherText renders the printable remaining-balance voucher.
func VoucherText(document string, used, remaining decimal.Decimal, at time.Time) string {
	var b strings.Builder
	b.WriteString("*** CREDITO EM LOJA ***\n")
	fmt.Fprintf(&b, "Documento: %s\n", document)
	fmt.Fprintf(&b, "Utilizado nesta compra: R$ %s\n", used.StringFixed(2))
	fmt.Fprintf(&b, "Saldo restante: R$ %s\n", remaining.StringFixed(2))
	fmt.Fprintf(&b, "Emitido em: %s\n", at.Format("02/01/2006 15:04"))
	return b.String()
}
