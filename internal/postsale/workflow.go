package postsale

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/fiscal"
	"github.com/pontodigital/pdv-backend/pkg/logger"
	"github.com/pontodigital/pdv-backend/pkg/metrics"
	"github.com/pontodigital/pdv-backend/pkg/money"
)

// Step is one confirmation of the post-sale workflow. Steps run in a
// fixed order; a step is skipped when its trigger is absent.
type Step string

const (
	StepVoucher      Step = "store_credit_voucher"
	StepBillets      Step = "installment_billets"
	StepFiscalPrint  Step = "fiscal_print"
	StepCustomerCopy Step = "customer_copy"
	StepDone         Step = "done"
)

// stepOrder is the forced priority order of the confirmations.
var stepOrder = []Step{StepVoucher, StepBillets, StepFiscalPrint, StepCustomerCopy}

// Outcome is what a durably accepted sale leaves behind for the
// confirmation workflow.
type Outcome struct {
	SaleID               uuid.UUID
	PrintPayload         *fiscal.PrintPayload
	InstallmentBillets   []byte
	RemainingStoreCredit decimal.Decimal
	VoucherText          string
}

// Session tracks one sale's progress through the confirmations. The sale
// is already durable when the session starts, so nothing in here can fail
// the sale itself.
type Session struct {
	SaleID    uuid.UUID
	Outcome   Outcome
	Current   Step
	CreatedAt time.Time
}

// NewSession opens a workflow session positioned on the first applicable
// step. A sale with nothing to confirm starts done.
func NewSession(outcome Outcome) *Session {
	s := &Session{
		SaleID:    outcome.SaleID,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
	s.Current = s.nextFrom("")
	return s
}

// Done reports whether every confirmation has been resolved.
func (s *Session) Done() bool {
	return s.Current == StepDone
}

func (s *Session) applicable(step Step) bool {
	switch step {
	case StepVoucher:
		return s.Outcome.RemainingStoreCredit.GreaterThan(money.CentTolerance)
	case StepBillets:
		return len(s.Outcome.InstallmentBillets) > 0
	case StepFiscalPrint:
		return s.Outcome.PrintPayload != nil
	case StepCustomerCopy:
		return s.Outcome.PrintPayload.IsPair()
	default:
		return false
	}
}

// nextFrom finds the first applicable step after the given one. An empty
// step means "before the first".
func (s *Session) nextFrom(after Step) Step {
	passed := after == ""
	for _, step := range stepOrder {
		if !passed {
			if step == after {
				passed = true
			}
			continue
		}
		if s.applicable(step) {
			return step
		}
	}
	return StepDone
}

// StepResult reports how a confirmation went. Notices carry non-fatal
// print problems for the operator; they never block progress.
type StepResult struct {
	Resolved Step
	Next     Step
	Done     bool
	Notices  []string
}

// printer is the local dispatch surface.
type printer interface {
	Print(ctx context.Context, text string) error
}

// reprinter re-renders an accepted sale's document server-side.
type reprinter interface {
	Reprint(ctx context.Context, saleID uuid.UUID) (string, error)
}

// ServiceParams groups dependencies for the post-sale workflow service.
type ServiceParams struct {
	Printer   printer
	Reprinter reprinter
	Logger    *logger.Logger
	Metrics   *metrics.CheckoutMetrics
	Registry  *Registry
}

// Service executes the confirmation side effects. Every failure in here
// is reported, never fatal: the sale is already accepted.
type Service struct {
	printer   printer
	reprinter reprinter
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics
	registry  *Registry
}

// NewService builds a post-sale workflow service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Printer == nil {
		return nil, errors.New("printer is required")
	}
	if params.Reprinter == nil {
		return nil, errors.New("reprinter is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Registry == nil {
		return nil, errors.New("registry is required")
	}
	return &Service{
		printer:   params.Printer,
		reprinter: params.Reprinter,
		logg:      params.Logger,
		metrics:   params.Metrics,
		registry:  params.Registry,
	}, nil
}

// Open registers a new session for an accepted sale and returns it.
func (s *Service) Open(outcome Outcome) *Session {
	session := NewSession(outcome)
	s.registry.Put(session)
	return session
}

// Get returns the live session for a sale.
func (s *Service) Get(saleID uuid.UUID) (*Session, error) {
	session, ok := s.registry.Get(saleID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no open post-sale session for this sale")
	}
	return session, nil
}

// Resolve confirms or declines the session's current step, runs its side
// effects, and advances. Resolving a step other than the current one is a
// state conflict. A finished session is removed from the registry.
func (s *Service) Resolve(ctx context.Context, saleID uuid.UUID, step Step, confirmed bool) (*StepResult, error) {
	session, err := s.Get(saleID)
	if err != nil {
		return nil, err
	}
	if session.Done() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "post-sale workflow already finished")
	}
	if step != session.Current {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "step out of order").
			WithDetails(map[string]any{"expected": string(session.Current), "got": string(step)})
	}

	ctx = s.logg.WithSaleID(ctx, saleID.String())
	result := &StepResult{Resolved: step}

	if confirmed {
		result.Notices = s.perform(ctx, session, step)
	}

	session.Current = session.nextFrom(step)
	result.Next = session.Current
	result.Done = session.Done()
	if result.Done {
		s.registry.Delete(saleID)
		s.logg.Info(ctx, "post-sale workflow finished")
	}
	return result, nil
}

func (s *Service) perform(ctx context.Context, session *Session, step Step) []string {
	switch step {
	case StepVoucher:
		if err := s.printer.Print(ctx, session.Outcome.VoucherText); err != nil {
			s.logg.Warn(ctx, "store credit voucher print failed")
			return []string{"falha ao imprimir comprovante de crédito restante"}
		}
	case StepBillets:
		if err := s.printer.Print(ctx, string(session.Outcome.InstallmentBillets)); err != nil {
			s.logg.Warn(ctx, "installment billets print failed")
			return []string{"falha ao imprimir carnê de parcelas"}
		}
	case StepFiscalPrint:
		return s.printWithFallback(ctx, session, session.Outcome.PrintPayload.Primary())
	case StepCustomerCopy:
		return s.printWithFallback(ctx, session, session.Outcome.PrintPayload.CustomerCopy)
	}
	return nil
}

// printWithFallback tries local dispatch, then one server-side reprint.
// Both failing is still only a notice.
func (s *Service) printWithFallback(ctx context.Context, session *Session, text string) []string {
	err := s.printer.Print(ctx, text)
	if err == nil {
		return nil
	}
	s.logg.Warn(ctx, "local print dispatch failed, requesting server reprint")
	s.metrics.IncPrintFallback()

	reprinted, err := s.reprinter.Reprint(ctx, session.SaleID)
	if err != nil {
		s.logg.Error(ctx, "server reprint failed", err)
		return []string{"falha na impressão local e na reimpressão pelo servidor"}
	}
	if err := s.printer.Print(ctx, reprinted); err != nil {
		s.logg.Error(ctx, "printing reprinted document failed", err)
		return []string{"falha na impressão local e na reimpressão pelo servidor"}
	}
	return []string{"documento reimpresso pelo servidor após falha local"}
}
