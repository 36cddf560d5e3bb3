package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pontodigital/pdv-backend/api/responses"
	"github.com/pontodigital/pdv-backend/api/validators"
	postsalesvc "github.com/pontodigital/pdv-backend/internal/postsale"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/logger"
)

// PostSaleStatus reports the pending confirmation step for a sale.
func PostSaleStatus(svc *postsalesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "post-sale service unavailable"))
			return
		}

		saleID, err := saleIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Get(saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, postSaleStatusResponse{
			SaleID:      session.SaleID,
			CurrentStep: string(session.Current),
			Done:        session.Done(),
		})
	}
}

// PostSaleResolve confirms or declines the current confirmation step and
// runs its printing side effects.
func PostSaleResolve(svc *postsalesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "post-sale service unavailable"))
			return
		}

		saleID, err := saleIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload resolveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Resolve(r.Context(), saleID, postsalesvc.Step(payload.Step), payload.Confirmed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resolveResponse{
			Resolved: string(result.Resolved),
			NextStep: string(result.Next),
			Done:     result.Done,
			Notices:  result.Notices,
		})
	}
}

func saleIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "saleID")
	saleID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id must be a valid uuid")
	}
	return saleID, nil
}

type resolveRequest struct {
	Step      string `json:"step" validate:"required"`
	Confirmed bool   `json:"confirmed"`
}

type postSaleStatusResponse struct {
	SaleID      uuid.UUID `json:"sale_id"`
	CurrentStep string    `json:"current_step"`
	Done        bool      `json:"done"`
}

type resolveResponse struct {
	Resolved string   `json:"resolved"`
	NextStep string   `json:"next_step"`
	Done     bool     `json:"done"`
	Notices  []string `json:"notices,omitempty"`
}
