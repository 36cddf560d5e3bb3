package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pontodigital/pdv-backend/api/middleware"
	"github.com/pontodigital/pdv-backend/api/responses"
	"github.com/pontodigital/pdv-backend/api/validators"
	scannersvc "github.com/pontodigital/pdv-backend/internal/scanner"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/logger"
)

// Scan replays a keystroke burst from a terminal and answers with the
// resolved product when the burst classifies as a hardware scan.
func Scan(svc *scannersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scanner service unavailable"))
			return
		}

		var payload scanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		terminalID := middleware.TerminalIDFromContext(r.Context())
		if terminalID == "" {
			terminalID = payload.TerminalID
		}

		events := make([]scannersvc.KeyEvent, 0, len(payload.Events))
		for _, e := range payload.Events {
			if len(e.Char) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "each event carries exactly one character"))
				return
			}
			events = append(events, scannersvc.KeyEvent{
				Char:   rune(e.Char[0]),
				Offset: time.Duration(e.OffsetMillis) * time.Millisecond,
			})
		}

		result, err := svc.Scan(r.Context(), terminalID, events, time.Duration(payload.EnterOffsetMillis)*time.Millisecond)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newScanResponse(result))
	}
}

type keyEventRequest struct {
	Char         string `json:"char" validate:"required,len=1"`
	OffsetMillis int64  `json:"offset_ms" validate:"min=0"`
}

type scanRequest struct {
	TerminalID        string            `json:"terminal_id,omitempty"`
	Events            []keyEventRequest `json:"events" validate:"required,min=1,dive"`
	EnterOffsetMillis int64             `json:"enter_offset_ms" validate:"min=0"`
}

type scanProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Barcode     string          `json:"barcode"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Unit        string          `json:"unit"`
}

type scanResponse struct {
	Accepted bool                 `json:"accepted"`
	Kind     string               `json:"kind,omitempty"`
	Quantity decimal.Decimal      `json:"quantity,omitempty"`
	Product  *scanProductResponse `json:"product,omitempty"`
}

func newScanResponse(result *scannersvc.ScanResult) scanResponse {
	if result == nil || !result.Accepted {
		return scanResponse{Accepted: false}
	}
	resp := scanResponse{
		Accepted: true,
		Kind:     result.Kind,
		Quantity: result.Quantity,
	}
	if result.Product != nil {
		resp.Product = &scanProductResponse{
			ID:          result.Product.ID,
			Barcode:     result.Product.Barcode,
			Description: result.Product.Description,
			UnitPrice:   result.Product.UnitPrice,
			Unit:        result.Product.Unit,
		}
	}
	return resp
}
