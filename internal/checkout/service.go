package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pontodigital/pdv-backend/internal/payments"
	"github.com/pontodigital/pdv-backend/internal/postsale"
	"github.com/pontodigital/pdv-backend/internal/storecredit"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/fiscal"
	"github.com/pontodigital/pdv-backend/pkg/logger"
	"github.com/pontodigital/pdv-backend/pkg/metrics"
)

// fiscalLedger is the remote sale-creation surface.
type fiscalLedger interface {
	CreateSale(ctx context.Context, req fiscal.CreateSaleRequest) (*fiscal.CreateSaleResponse, error)
}

// creditLedger is the store-credit surface the submission pipeline uses.
type creditLedger interface {
	GetBalance(ctx context.Context, document string) (*storecredit.LedgerView, error)
	Redeem(ctx context.Context, view *storecredit.LedgerView, amount decimal.Decimal, saleReference string) (decimal.Decimal, error)
}

// workflowOpener hands an accepted sale to the confirmation workflow.
type workflowOpener interface {
	Open(outcome postsale.Outcome) *postsale.Session
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Fiscal          fiscalLedger
	Credit          creditLedger
	Workflow        workflowOpener
	Logger          *logger.Logger
	Metrics         *metrics.CheckoutMetrics
	MaxInstallments int
}

// Service runs sale finalization: validation, best-effort credit
// redemption, the fiscal create-sale call, and the hand-off to the
// post-sale workflow.
type Service struct {
	fiscal          fiscalLedger
	credit          creditLedger
	workflow        workflowOpener
	logg            *logger.Logger
	metrics         *metrics.CheckoutMetrics
	maxInstallments int
	now             func() time.Time
}

// NewService builds a checkout service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Fiscal == nil {
		return nil, errors.New("fiscal ledger is required")
	}
	if params.Credit == nil {
		return nil, errors.New("credit ledger is required")
	}
	if params.Workflow == nil {
		return nil, errors.New("workflow is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		fiscal:          params.Fiscal,
		credit:          params.Credit,
		workflow:        params.Workflow,
		logg:            params.Logger,
		metrics:         params.Metrics,
		maxInstallments: params.MaxInstallments,
		now:             time.Now,
	}, nil
}

// SubmitResult is the answer to an accepted submission.
type SubmitResult struct {
	SaleID    uuid.UUID
	ChangeDue decimal.Decimal
	// NextStep is the first pending post-sale confirmation, or "done".
	NextStep postsale.Step
	// Notices carry non-fatal problems (pruned entries, failed credit
	// debit) for the operator.
	Notices []string
}

// Validate runs the draft checks without submitting, for the checkout
// form's pre-flight call.
func (s *Service) Validate(ctx context.Context, draft *payments.SaleDraft, vctx payments.ValidationContext) (*payments.ValidationResult, error) {
	if draft == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "draft is required")
	}
	vctx.MaxInstallments = s.maxInstallments
	return draft.Validate(vctx)
}

// Submit finalizes a sale. The fiscal call failing is fatal and leaves
// the draft untouched for retry; the store-credit debit failing is not,
// the sale just proceeds without the redemption bookkeeping.
func (s *Service) Submit(ctx context.Context, draft *payments.SaleDraft, vctx payments.ValidationContext) (*SubmitResult, error) {
	if draft == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "draft is required")
	}
	start := s.now()

	vctx.MaxInstallments = s.maxInstallments
	validation, err := draft.Validate(vctx)
	if err != nil {
		s.metrics.IncSubmission("validation_error")
		return nil, err
	}

	// Pruning is not a silent correction: the terminal must show the
	// adjusted draft and re-confirm before anything reaches the ledger.
	if validation.PrunedEntries > 0 {
		s.metrics.IncSubmission("validation_error")
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"pagamentos abaixo de um centavo foram removidos; confira os valores e envie novamente").
			WithDetails(map[string]any{"pruned_entries": validation.PrunedEntries})
	}

	var notices []string

	creditApplied, remainingCredit, view, creditNotice := s.redeemCredit(ctx, draft)
	if creditNotice != "" {
		notices = append(notices, creditNotice)
	}

	resp, err := s.fiscal.CreateSale(ctx, s.buildSaleRequest(draft, creditApplied))
	if err != nil {
		s.metrics.IncSubmission("fiscal_error")
		s.logg.Error(ctx, "fiscal create sale failed, draft preserved", err)
		return nil, err
	}

	ctx = s.logg.WithSaleID(ctx, resp.SaleID.String())

	outcome := postsale.Outcome{
		SaleID:             resp.SaleID,
		PrintPayload:       resp.PrintPayload,
		InstallmentBillets: resp.InstallmentBillets,
	}
	if creditApplied.IsPositive() && remainingCredit.IsPositive() {
		outcome.RemainingStoreCredit = remainingCredit
		outcome.VoucherText = storecredit.VoucherText(view.Document, creditApplied, remainingCredit, s.now())
	}
	session := s.workflow.Open(outcome)

	s.metrics.IncSubmission("accepted")
	s.metrics.ObserveSubmitDuration(s.now().Sub(start))
	s.logg.Info(ctx, "sale accepted")

	return &SubmitResult{
		SaleID:    resp.SaleID,
		ChangeDue: draft.ChangeDue(),
		NextStep:  session.Current,
		Notices:   notices,
	}, nil
}

// redeemCredit debits the planned store credit before the sale is
// created. Any failure downgrades the redemption to "not applied": the
// customer still pays the reduced total, the ledger just keeps the
// balance and no voucher is offered.
func (s *Service) redeemCredit(ctx context.Context, draft *payments.SaleDraft) (applied, remaining decimal.Decimal, view *storecredit.LedgerView, notice string) {
	applied = draft.StoreCreditApplied
	if !applied.IsPositive() {
		return decimal.Zero, decimal.Zero, nil, ""
	}

	const failureNotice = "não foi possível debitar o crédito em loja; a venda segue sem o abatimento registrado"

	view, err := s.credit.GetBalance(ctx, draft.CustomerDocument)
	if err != nil {
		s.logg.Warn(ctx, "store credit balance lookup failed before submission")
		return decimal.Zero, decimal.Zero, nil, failureNotice
	}
	if view.Balance.LessThan(applied) {
		s.logg.Warn(ctx, "store credit balance dropped below the planned redemption")
		return decimal.Zero, decimal.Zero, nil, failureNotice
	}

	remaining, err = s.credit.Redeem(ctx, view, applied, "")
	if err != nil {
		s.logg.Warn(ctx, "store credit debit failed, proceeding without redemption bookkeeping")
		return decimal.Zero, decimal.Zero, nil, failureNotice
	}
	return applied, remaining, view, ""
}

// buildSaleRequest maps the draft onto the fiscal wire shape. A redeemed
// credit shows up as a synthetic store_credit payment line.
func (s *Service) buildSaleRequest(draft *payments.SaleDraft, creditApplied decimal.Decimal) fiscal.CreateSaleRequest {
	records := make([]fiscal.PaymentRecord, 0, len(draft.Entries)+1)
	for _, entry := range draft.Entries {
		record := fiscal.PaymentRecord{
			Method: string(entry.Method),
			Amount: entry.Amount,
		}
		if entry.Card != nil {
			record.Card = &fiscal.CardRecord{
				IntegrationType:  entry.Card.IntegrationType,
				AcquirerCNPJ:     entry.Card.AcquirerCNPJ,
				Brand:            string(entry.Card.Brand),
				Operation:        string(entry.Card.Operation),
				InstallmentCount: entry.Card.InstallmentCount,
			}
		}
		if entry.Installment != nil {
			record.Installment = &fiscal.InstallmentRecord{
				CustomerID:       entry.Installment.CustomerID,
				Count:            entry.Installment.Count,
				FirstDueDate:     entry.Installment.FirstDueDate,
				InstallmentValue: entry.Installment.InstallmentValue,
			}
		}
		records = append(records, record)
	}

	storeCreditApplied := decimal.Zero
	if creditApplied.IsPositive() {
		storeCreditApplied = creditApplied
		records = append(records, fiscal.PaymentRecord{
			Method: "store_credit",
			Amount: creditApplied,
		})
	}

	return fiscal.CreateSaleRequest{
		Payments:           records,
		Subtotal:           draft.Subtotal,
		Discount:           draft.Discount,
		StoreCreditApplied: storeCreditApplied,
		Total:              draft.Total(),
		SellerID:           draft.SellerID,
		CustomerName:       draft.CustomerName,
		CustomerDocument:   draft.CustomerDocument,
	}
}
