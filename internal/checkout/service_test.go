package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pontodigital/pdv-backend/internal/payments"
	"github.com/pontodigital/pdv-backend/internal/postsale"
	"github.com/pontodigital/pdv-backend/internal/storecredit"
	"github.com/pontodigital/pdv-backend/pkg/enums"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/fiscal"
	"github.com/pontodigital/pdv-backend/pkg/logger"
	"github.com/rs/zerolog"
)

type stubFiscal struct {
	resp     *fiscal.CreateSaleResponse
	err      error
	requests []fiscal.CreateSaleRequest
}

func (s *stubFiscal) CreateSale(_ context.Context, req fiscal.CreateSaleRequest) (*fiscal.CreateSaleResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type stubCredit struct {
	view      *storecredit.LedgerView
	viewErr   error
	remaining decimal.Decimal
	redeemErr error
	redeemed  []decimal.Decimal
}

func (s *stubCredit) GetBalance(_ context.Context, _ string) (*storecredit.LedgerView, error) {
	if s.viewErr != nil {
		return nil, s.viewErr
	}
	return s.view, nil
}

func (s *stubCredit) Redeem(_ context.Context, _ *storecredit.LedgerView, amount decimal.Decimal, _ string) (decimal.Decimal, error) {
	if s.redeemErr != nil {
		return decimal.Zero, s.redeemErr
	}
	s.redeemed = append(s.redeemed, amount)
	return s.remaining, nil
}

type stubWorkflow struct {
	opened []postsale.Outcome
}

func (s *stubWorkflow) Open(outcome postsale.Outcome) *postsale.Session {
	s.opened = append(s.opened, outcome)
	return postsale.NewSession(outcome)
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func acceptedResponse() *fiscal.CreateSaleResponse {
	return &fiscal.CreateSaleResponse{
		SaleID:       uuid.New(),
		PrintPayload: &fiscal.PrintPayload{Text: "coupon"},
	}
}

func newCheckoutService(t *testing.T, f *stubFiscal, c *stubCredit, w *stubWorkflow) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Fiscal:          f,
		Credit:          c,
		Workflow:        w,
		Logger:          logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled}),
		MaxInstallments: 12,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func cashDraft(total string) *payments.SaleDraft {
	d := payments.NewDraft(amt(total), decimal.Zero)
	d.AddEntry()
	return d
}

func individualCtx() payments.ValidationContext {
	return payments.ValidationContext{AccountType: enums.AccountTypeIndividual}
}

func TestSubmitCashSale(t *testing.T) {
	f := &stubFiscal{resp: acceptedResponse()}
	w := &stubWorkflow{}
	svc := newCheckoutService(t, f, &stubCredit{}, w)

	result, err := svc.Submit(context.Background(), cashDraft("100.00"), individualCtx())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.SaleID != f.resp.SaleID {
		t.Fatal("sale id mismatch")
	}
	if !result.ChangeDue.IsZero() {
		t.Fatalf("change = %s, want 0", result.ChangeDue)
	}
	if result.NextStep != postsale.StepFiscalPrint {
		t.Fatalf("next step = %s, want fiscal print", result.NextStep)
	}
	if len(w.opened) != 1 {
		t.Fatal("workflow session not opened")
	}
	if len(f.requests) != 1 || len(f.requests[0].Payments) != 1 {
		t.Fatal("unexpected fiscal request shape")
	}
}

func TestSubmitValidationErrorSkipsFiscal(t *testing.T) {
	f := &stubFiscal{resp: acceptedResponse()}
	svc := newCheckoutService(t, f, &stubCredit{}, &stubWorkflow{})

	d := payments.NewDraft(amt("100.00"), decimal.Zero)
	i := d.AddEntry()
	if err := d.SetAmount(i, amt("50.00")); err != nil {
		t.Fatalf("set amount: %v", err)
	}

	_, err := svc.Submit(context.Background(), d, individualCtx())
	if err == nil {
		t.Fatal("underpaid draft must fail")
	}
	if len(f.requests) != 0 {
		t.Fatal("validation errors must never reach the network")
	}
}

func TestSubmitPrunedEntriesBlockSale(t *testing.T) {
	f := &stubFiscal{resp: acceptedResponse()}
	w := &stubWorkflow{}
	svc := newCheckoutService(t, f, &stubCredit{}, w)

	d := cashDraft("100.00")
	j := d.AddEntry()
	if err := d.SetAmount(j, amt("0.004")); err != nil {
		t.Fatalf("set amount: %v", err)
	}

	_, err := svc.Submit(context.Background(), d, individualCtx())
	if err == nil {
		t.Fatal("a pass that pruned entries must not submit")
	}
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(f.requests) != 0 {
		t.Fatal("no fiscal call may happen on a pruning pass")
	}
	if len(w.opened) != 0 {
		t.Fatal("no workflow session may open on a pruning pass")
	}

	// The draft comes back already pruned, so the operator confirms the
	// adjusted amounts and the second submit goes through.
	if len(d.Entries) != 1 {
		t.Fatalf("entries = %d, want 1 after pruning", len(d.Entries))
	}
	if _, err := svc.Submit(context.Background(), d, individualCtx()); err != nil {
		t.Fatalf("resubmit after pruning: %v", err)
	}
	if len(f.requests) != 1 {
		t.Fatalf("fiscal calls = %d, want 1", len(f.requests))
	}
}

func TestSubmitFiscalFailureIsFatalAndPreservesDraft(t *testing.T) {
	f := &stubFiscal{err: pkgerrors.New(pkgerrors.CodeDependency, "fiscal service rejected the request")}
	w := &stubWorkflow{}
	svc := newCheckoutService(t, f, &stubCredit{}, w)

	d := cashDraft("100.00")
	_, err := svc.Submit(context.Background(), d, individualCtx())
	if err == nil {
		t.Fatal("fiscal failure must abort the submission")
	}
	if len(w.opened) != 0 {
		t.Fatal("no workflow session on a failed submission")
	}
	if len(d.Entries) != 1 || !d.Entries[0].Amount.Equal(amt("100.00")) {
		t.Fatal("draft must stay editable for retry")
	}
}

func TestSubmitRedeemsStoreCreditBeforeSale(t *testing.T) {
	f := &stubFiscal{resp: acceptedResponse()}
	credit := &stubCredit{
		view: &storecredit.LedgerView{
			CustomerID: uuid.New(),
			Document:   "12345678901",
			Balance:    amt("50.00"),
		},
		remaining: amt("20.00"),
	}
	w := &stubWorkflow{}
	svc := newCheckoutService(t, f, credit, w)

	d := payments.NewDraft(amt("100.00"), decimal.Zero)
	d.CustomerDocument = "12345678901"
	if err := d.ApplyStoreCredit(amt("30.00")); err != nil {
		t.Fatalf("apply credit: %v", err)
	}
	d.AddEntry() // 70.00 cash

	result, err := svc.Submit(context.Background(), d, individualCtx())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(credit.redeemed) != 1 || !credit.redeemed[0].Equal(amt("30.00")) {
		t.Fatalf("redeemed = %v, want [30.00]", credit.redeemed)
	}

	req := f.requests[0]
	if !req.StoreCreditApplied.Equal(amt("30.00")) {
		t.Fatalf("store credit on request = %s", req.StoreCreditApplied)
	}
	last := req.Payments[len(req.Payments)-1]
	if last.Method != "store_credit" || !last.Amount.Equal(amt("30.00")) {
		t.Fatal("synthetic store_credit entry missing from the request")
	}

	outcome := w.opened[0]
	if !outcome.RemainingStoreCredit.Equal(amt("20.00")) {
		t.Fatalf("remaining credit = %s, want 20.00", outcome.RemainingStoreCredit)
	}
	if outcome.VoucherText == "" {
		t.Fatal("voucher text should be prepared for the workflow")
	}
	if result.NextStep != postsale.StepVoucher {
		t.Fatalf("next step = %s, want voucher", result.NextStep)
	}
}

func TestSubmitCreditDebitFailureIsNonFatal(t *testing.T) {
	f := &stubFiscal{resp: acceptedResponse()}
	credit := &stubCredit{
		view: &storecredit.LedgerView{
			CustomerID: uuid.New(),
			Document:   "12345678901",
			Balance:    amt("50.00"),
		},
		redeemErr: pkgerrors.New(pkgerrors.CodeDependency, "ledger down"),
	}
	w := &stubWorkflow{}
	svc := newCheckoutService(t, f, credit, w)

	d := payments.NewDraft(amt("100.00"), decimal.Zero)
	d.CustomerDocument = "12345678901"
	if err := d.ApplyStoreCredit(amt("30.00")); err != nil {
		t.Fatalf("apply credit: %v", err)
	}
	d.AddEntry()

	result, err := svc.Submit(context.Background(), d, individualCtx())
	if err != nil {
		t.Fatalf("debit failure must not abort the sale: %v", err)
	}
	if len(result.Notices) == 0 {
		t.Fatal("operator should be notified about the failed debit")
	}

	req := f.requests[0]
	if !req.StoreCreditApplied.IsZero() {
		t.Fatal("failed debit must not be booked on the sale")
	}
	for _, p := range req.Payments {
		if p.Method == "store_credit" {
			t.Fatal("no synthetic entry when the debit failed")
		}
	}
	if !req.Total.Equal(amt("70.00")) {
		t.Fatalf("total = %s, the customer still pays the reduced amount", req.Total)
	}
	if w.opened[0].RemainingStoreCredit.IsPositive() {
		t.Fatal("no voucher step when the debit failed")
	}
}

func TestSubmitFullyRedeemedSaleHasNoPayments(t *testing.T) {
	f := &stubFiscal{resp: acceptedResponse()}
	credit := &stubCredit{
		view: &storecredit.LedgerView{
			CustomerID: uuid.New(),
			Document:   "12345678901",
			Balance:    amt("30.00"),
		},
		remaining: decimal.Zero,
	}
	svc := newCheckoutService(t, f, credit, &stubWorkflow{})

	d := payments.NewDraft(amt("25.00"), decimal.Zero)
	d.CustomerDocument = "12345678901"
	if err := d.ApplyStoreCredit(amt("25.00")); err != nil {
		t.Fatalf("apply credit: %v", err)
	}

	if _, err := svc.Submit(context.Background(), d, individualCtx()); err != nil {
		t.Fatalf("credit-only checkout should submit: %v", err)
	}
	req := f.requests[0]
	if len(req.Payments) != 1 || req.Payments[0].Method != "store_credit" {
		t.Fatalf("payments = %+v, want only the synthetic credit entry", req.Payments)
	}
	if !req.Total.IsZero() {
		t.Fatalf("total = %s, want 0", req.Total)
	}
}

func TestSubmitCashOverpaymentReturnsChange(t *testing.T) {
	f := &stubFiscal{resp: acceptedResponse()}
	svc := newCheckoutService(t, f, &stubCredit{}, &stubWorkflow{})

	d := payments.NewDraft(amt("87.50"), decimal.Zero)
	i := d.AddEntry()
	if err := d.SetAmount(i, amt("90.00")); err != nil {
		t.Fatalf("set amount: %v", err)
	}

	result, err := svc.Submit(context.Background(), d, individualCtx())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.ChangeDue.Equal(amt("2.50")) {
		t.Fatalf("change = %s, want 2.50", result.ChangeDue)
	}
}
