package postsale

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/fiscal"
	"github.com/pontodigital/pdv-backend/pkg/logger"
	"github.com/rs/zerolog"
)

type stubPrinter struct {
	printed  []string
	failures int
}

func (s *stubPrinter) Print(_ context.Context, text string) error {
	if s.failures > 0 {
		s.failures--
		return pkgerrors.New(pkgerrors.CodeDependency, "print dispatch failed")
	}
	s.printed = append(s.printed, text)
	return nil
}

type stubReprinter struct {
	text string
	err  error
	hits int
}

func (s *stubReprinter) Reprint(_ context.Context, _ uuid.UUID) (string, error) {
	s.hits++
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func newWorkflowService(t *testing.T, p *stubPrinter, r *stubReprinter) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Printer:   p,
		Reprinter: r,
		Logger:    logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled}),
		Registry:  NewRegistry(time.Minute),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func fullOutcome() Outcome {
	return Outcome{
		SaleID: uuid.New(),
		PrintPayload: &fiscal.PrintPayload{
			StoreCopy:    "store copy",
			CustomerCopy: "customer copy",
		},
		InstallmentBillets:   []byte("billets"),
		RemainingStoreCredit: decimal.RequireFromString("12.00"),
		VoucherText:          "voucher",
	}
}

func TestSessionStepOrder(t *testing.T) {
	session := NewSession(fullOutcome())
	if session.Current != StepVoucher {
		t.Fatalf("first step = %s, want voucher", session.Current)
	}
}

func TestSessionSkipsInapplicableSteps(t *testing.T) {
	outcome := Outcome{
		SaleID:       uuid.New(),
		PrintPayload: &fiscal.PrintPayload{Text: "coupon"},
	}
	session := NewSession(outcome)
	if session.Current != StepFiscalPrint {
		t.Fatalf("first step = %s, want fiscal print", session.Current)
	}
}

func TestSessionWithNothingToConfirmStartsDone(t *testing.T) {
	session := NewSession(Outcome{SaleID: uuid.New()})
	if !session.Done() {
		t.Fatal("empty outcome should start done")
	}
}

func TestSessionNegligibleCreditSkipsVoucher(t *testing.T) {
	session := NewSession(Outcome{
		SaleID:               uuid.New(),
		RemainingStoreCredit: decimal.RequireFromString("0.01"),
		VoucherText:          "voucher",
	})
	if !session.Done() {
		t.Fatalf("0.01 remaining should not trigger the voucher step, got %s", session.Current)
	}
}

func TestResolveFullFlowInOrder(t *testing.T) {
	printer := &stubPrinter{}
	svc := newWorkflowService(t, printer, &stubReprinter{})
	outcome := fullOutcome()
	svc.Open(outcome)
	ctx := context.Background()

	steps := []Step{StepVoucher, StepBillets, StepFiscalPrint, StepCustomerCopy}
	for i, step := range steps {
		result, err := svc.Resolve(ctx, outcome.SaleID, step, true)
		if err != nil {
			t.Fatalf("resolve %s: %v", step, err)
		}
		if i < len(steps)-1 && result.Next != steps[i+1] {
			t.Fatalf("after %s next = %s, want %s", step, result.Next, steps[i+1])
		}
	}

	want := []string{"voucher", "billets", "store copy", "customer copy"}
	if len(printer.printed) != len(want) {
		t.Fatalf("printed %d documents, want %d", len(printer.printed), len(want))
	}
	for i, text := range want {
		if printer.printed[i] != text {
			t.Fatalf("printed[%d] = %q, want %q", i, printer.printed[i], text)
		}
	}

	if _, err := svc.Get(outcome.SaleID); err == nil {
		t.Fatal("finished session should leave the registry")
	}
}

func TestResolveDeclineSkipsSideEffect(t *testing.T) {
	printer := &stubPrinter{}
	svc := newWorkflowService(t, printer, &stubReprinter{})
	outcome := fullOutcome()
	svc.Open(outcome)
	ctx := context.Background()

	result, err := svc.Resolve(ctx, outcome.SaleID, StepVoucher, false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Next != StepBillets {
		t.Fatalf("next = %s, want billets", result.Next)
	}
	if len(printer.printed) != 0 {
		t.Fatal("declined step must not print")
	}
}

func TestResolveOutOfOrderIsStateConflict(t *testing.T) {
	svc := newWorkflowService(t, &stubPrinter{}, &stubReprinter{})
	outcome := fullOutcome()
	svc.Open(outcome)

	_, err := svc.Resolve(context.Background(), outcome.SaleID, StepFiscalPrint, true)
	if err == nil {
		t.Fatal("skipping ahead must fail")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("code = %s, want state conflict", pkgerrors.As(err).Code())
	}
}

func TestResolveVoucherPrintFailureIsNonFatal(t *testing.T) {
	printer := &stubPrinter{failures: 1}
	svc := newWorkflowService(t, printer, &stubReprinter{})
	outcome := Outcome{
		SaleID:               uuid.New(),
		RemainingStoreCredit: decimal.RequireFromString("5.00"),
		VoucherText:          "voucher",
	}
	svc.Open(outcome)

	result, err := svc.Resolve(context.Background(), outcome.SaleID, StepVoucher, true)
	if err != nil {
		t.Fatalf("voucher failure must not fail the resolve: %v", err)
	}
	if len(result.Notices) == 0 {
		t.Fatal("print failure should surface a notice")
	}
	if !result.Done {
		t.Fatal("workflow should still reach the terminal state")
	}
}

func TestResolveFiscalPrintFallsBackToReprint(t *testing.T) {
	printer := &stubPrinter{failures: 1}
	reprinter := &stubReprinter{text: "reprinted document"}
	svc := newWorkflowService(t, printer, reprinter)
	outcome := Outcome{
		SaleID:       uuid.New(),
		PrintPayload: &fiscal.PrintPayload{Text: "coupon"},
	}
	svc.Open(outcome)

	result, err := svc.Resolve(context.Background(), outcome.SaleID, StepFiscalPrint, true)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if reprinter.hits != 1 {
		t.Fatalf("reprint hits = %d, want 1", reprinter.hits)
	}
	if len(printer.printed) != 1 || printer.printed[0] != "reprinted document" {
		t.Fatalf("printed = %v", printer.printed)
	}
	if !result.Done {
		t.Fatal("single-payload sale should finish after the fiscal print")
	}
}

func TestResolveBothPrintPathsFailingStillCompletes(t *testing.T) {
	printer := &stubPrinter{failures: 2}
	reprinter := &stubReprinter{text: "reprinted document"}
	svc := newWorkflowService(t, printer, reprinter)
	outcome := Outcome{
		SaleID:       uuid.New(),
		PrintPayload: &fiscal.PrintPayload{Text: "coupon"},
	}
	svc.Open(outcome)

	result, err := svc.Resolve(context.Background(), outcome.SaleID, StepFiscalPrint, true)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(result.Notices) == 0 {
		t.Fatal("double failure should surface a notice")
	}
	if !result.Done {
		t.Fatal("print failures never block completion")
	}
}

func TestResolveAfterDoneFails(t *testing.T) {
	svc := newWorkflowService(t, &stubPrinter{}, &stubReprinter{})
	outcome := Outcome{
		SaleID:       uuid.New(),
		PrintPayload: &fiscal.PrintPayload{Text: "coupon"},
	}
	svc.Open(outcome)

	if _, err := svc.Resolve(context.Background(), outcome.SaleID, StepFiscalPrint, false); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := svc.Resolve(context.Background(), outcome.SaleID, StepFiscalPrint, false); err == nil {
		t.Fatal("resolving a finished session must fail")
	}
}

func TestRegistryTTLSweep(t *testing.T) {
	registry := NewRegistry(time.Minute)
	session := NewSession(fullOutcome())
	registry.Put(session)

	registry.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, ok := registry.Get(session.SaleID); ok {
		t.Fatal("expired session should be swept")
	}
	if registry.Len() != 0 {
		t.Fatalf("len = %d, want 0", registry.Len())
	}
}
