package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pontodigital/pdv-backend/api/responses"
	storecreditsvc "github.com/pontodigital/pdv-backend/internal/storecredit"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/logger"
)

// CustomerCredit returns the store-credit balance for a customer
// document, so the checkout form can offer the redemption toggle.
func CustomerCredit(svc *storecreditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store credit service unavailable"))
			return
		}

		document := chi.URLParam(r, "document")
		view, err := svc.GetBalance(r.Context(), document)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := creditBalanceResponse{
			Document:   view.Document,
			Balance:    view.Balance,
			HasBalance: view.HasBalance(),
		}
		if view.CustomerID != uuid.Nil {
			resp.CustomerID = &view.CustomerID
		}
		responses.WriteSuccess(w, resp)
	}
}

type creditBalanceResponse struct {
	CustomerID *uuid.UUID      `json:"customer_id,omitempty"`
	Document   string          `json:"document"`
	Balance    decimal.Decimal `json:"balance"`
	HasBalance bool            `json:"has_balance"`
}
