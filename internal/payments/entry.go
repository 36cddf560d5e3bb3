package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pontodigital/pdv-backend/pkg/enums"
	"github.com/pontodigital/pdv-backend/pkg/money"
)

// CardMetadata carries the acquirer attributes the fiscal authority
// requires on card payments. The authority rejects the whole document when
// any of them is missing, so validation happens before submission.
type CardMetadata struct {
	IntegrationType  string
	AcquirerCNPJ     string
	Brand            enums.CardBrand
	Operation        enums.CardOperation
	InstallmentCount int
}

// NewCardMetadata seeds the defaults for an entry that just switched to a
// card method: fixed integration type, brand "other", operation inferred
// from credit/debit.
func NewCardMetadata(method enums.PaymentMethod) *CardMetadata {
	operation := enums.CardOperationCashCredit
	if method == enums.PaymentMethodDebitCard {
		operation = enums.CardOperationDebit
	}
	return &CardMetadata{
		IntegrationType: enums.CardIntegrationNotIntegrated,
		Brand:           enums.CardBrandOther,
		Operation:       operation,
	}
}

// InstallmentPlan describes the in-store installment agreement of a sale.
type InstallmentPlan struct {
	CustomerID       uuid.UUID
	Count            int
	FirstDueDate     time.Time
	InstallmentValue decimal.Decimal
}

// BuildInstallmentPlan derives the per-installment value from the amount
// the plan must cover.
func BuildInstallmentPlan(customerID uuid.UUID, amount decimal.Decimal, count int, firstDueDate time.Time) (*InstallmentPlan, error) {
	if customerID == uuid.Nil {
		return nil, errPlanCustomerRequired
	}
	if count < 1 {
		return nil, errPlanCountInvalid
	}
	return &InstallmentPlan{
		CustomerID:       customerID,
		Count:            count,
		FirstDueDate:     firstDueDate,
		InstallmentValue: money.RoundCents(amount.Div(decimal.NewFromInt(int64(count)))),
	}, nil
}

// PaymentEntry is one line of payment. Card and Installment payloads are
// only meaningful for the matching method and are cleared on method change.
type PaymentEntry struct {
	Method      enums.PaymentMethod
	Amount      decimal.Decimal
	Card        *CardMetadata
	Installment *InstallmentPlan
}

func (e *PaymentEntry) normalizeForMethod() {
	if !e.Method.IsCard() {
		e.Card = nil
	}
	if e.Method != enums.PaymentMethodInstallment {
		e.Installment = nil
	}
}
