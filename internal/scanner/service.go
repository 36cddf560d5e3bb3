package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pontodigital/pdv-backend/pkg/db/models"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/logger"
	"github.com/pontodigital/pdv-backend/pkg/metrics"
	"github.com/pontodigital/pdv-backend/pkg/money"
)

// minQuantity keeps derived quantities from collapsing to zero lines.
var minQuantity = decimal.New(1, -3) // 0.001

// catalog is the product lookup surface the scanner needs.
type catalog interface {
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	GetByInternalCode(ctx context.Context, internalCode string) (*models.Product, error)
}

// KeyEvent is one keystroke of a replayed burst, timed relative to the
// burst start.
type KeyEvent struct {
	Char   rune
	Offset time.Duration
}

// ScanResult is the outcome of a burst: either rejected as typing, or a
// resolved product with the quantity the code implies.
type ScanResult struct {
	Accepted bool
	Code     string
	Product  *models.Product
	Quantity decimal.Decimal
	// Kind is "barcode", "scale_weight" or "scale_amount".
	Kind string
}

// ServiceParams groups dependencies for the scanning service.
type ServiceParams struct {
	Catalog    catalog
	Logger     *logger.Logger
	Metrics    *metrics.CheckoutMetrics
	Thresholds Thresholds
}

// Service classifies keystroke bursts and resolves accepted codes against
// the catalog. Capture state is kept per terminal so the debounce window
// spans consecutive scans from the same device.
type Service struct {
	catalog    catalog
	logg       *logger.Logger
	metrics    *metrics.CheckoutMetrics
	thresholds Thresholds
	now        func() time.Time

	mu       sync.Mutex
	captures map[string]*Capture
}

// NewService builds a scanning service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	thresholds := params.Thresholds
	if thresholds.MaxPerChar <= 0 {
		thresholds = DefaultThresholds()
	}
	return &Service{
		catalog:    params.Catalog,
		logg:       params.Logger,
		metrics:    params.Metrics,
		thresholds: thresholds,
		now:        time.Now,
		captures:   make(map[string]*Capture),
	}, nil
}

// Scan replays a keystroke burst for a terminal and, when the burst is
// classified as a hardware scan, resolves the code to a product. A burst
// rejected as typing returns Accepted=false with no lookup.
func (s *Service) Scan(ctx context.Context, terminalID string, events []KeyEvent, enterOffset time.Duration) (*ScanResult, error) {
	if terminalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal id is required")
	}
	if len(events) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one keystroke is required")
	}

	base := s.now()
	capture := s.captureFor(terminalID)

	s.mu.Lock()
	for _, event := range events {
		capture.Key(base.Add(event.Offset), event.Char)
	}
	code, ok := capture.Enter(base.Add(enterOffset))
	s.mu.Unlock()

	if !ok {
		s.metrics.IncScan("typing")
		return &ScanResult{Accepted: false}, nil
	}
	s.metrics.IncScan("scanner")

	result, err := s.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Resolve interprets an accepted code: direct barcode lookup first, scale
// decode second. Any failure along the scale path collapses into the same
// not-found outcome so no partial cart mutation can happen.
func (s *Service) Resolve(ctx context.Context, code string) (*ScanResult, error) {
	product, err := s.catalog.GetByBarcode(ctx, code)
	if err == nil {
		return &ScanResult{
			Accepted: true,
			Code:     code,
			Product:  product,
			Quantity: decimal.NewFromInt(1),
			Kind:     "barcode",
		}, nil
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		return nil, err
	}

	decoded, ok := DecodeScale(code)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	product, err = s.catalog.GetByInternalCode(ctx, decoded.ItemCode)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}

	if decoded.IsAmount {
		if !product.UnitPrice.IsPositive() {
			s.logg.Warn(ctx, "scale amount code for product without a unit price")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		quantity := money.FloorQuantity(decoded.Amount.Div(product.UnitPrice))
		if quantity.LessThan(minQuantity) {
			quantity = minQuantity
		}
		return &ScanResult{
			Accepted: true,
			Code:     code,
			Product:  product,
			Quantity: quantity,
			Kind:     "scale_amount",
		}, nil
	}

	quantity := money.FloorQuantity(decoded.Weight)
	if quantity.LessThan(minQuantity) {
		quantity = minQuantity
	}
	return &ScanResult{
		Accepted: true,
		Code:     code,
		Product:  product,
		Quantity: quantity,
		Kind:     "scale_weight",
	}, nil
}

func (s *Service) captureFor(terminalID string) *Capture {
	s.mu.Lock()
	defer s.mu.Unlock()
	capture, ok := s.captures[terminalID]
	if !ok {
		capture = NewCapture(s.thresholds)
		s.captures[terminalID] = capture
	}
	return capture
}
