package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pontodigital/pdv-backend/api/middleware"
	"github.com/pontodigital/pdv-backend/api/responses"
	"github.com/pontodigital/pdv-backend/api/validators"
	checkoutsvc "github.com/pontodigital/pdv-backend/internal/checkout"
	"github.com/pontodigital/pdv-backend/internal/payments"
	"github.com/pontodigital/pdv-backend/pkg/enums"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/logger"
)

// Checkout finalizes a sale: validates the submitted draft, redeems store
// credit, creates the fiscal sale and opens the confirmation workflow.
func Checkout(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := payload.toDraft()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		applySellerClaim(r, draft)

		result, err := svc.Submit(r.Context(), draft, validationContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			SaleID:    result.SaleID,
			ChangeDue: result.ChangeDue,
			NextStep:  string(result.NextStep),
			Notices:   result.Notices,
		})
	}
}

// CheckoutValidate runs the pre-flight draft validation without
// submitting anything.
func CheckoutValidate(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := payload.toDraft()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		applySellerClaim(r, draft)

		validation, err := svc.Validate(r.Context(), draft, validationContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, validateResponse{
			Valid:         true,
			Total:         draft.Total(),
			Remaining:     draft.Remaining(),
			ChangeDue:     draft.ChangeDue(),
			PrunedEntries: validation.PrunedEntries,
		})
	}
}

func validationContext(r *http.Request) payments.ValidationContext {
	return payments.ValidationContext{
		AccountType: middleware.AccountTypeFromContext(r.Context()),
	}
}

// applySellerClaim falls back to the token's seller attribution when the
// draft does not name one.
func applySellerClaim(r *http.Request, draft *payments.SaleDraft) {
	if draft == nil || draft.SellerID != nil {
		return
	}
	raw := middleware.SellerIDFromContext(r.Context())
	if raw == "" {
		return
	}
	if sellerID, err := uuid.Parse(raw); err == nil {
		draft.SellerID = &sellerID
	}
}

type cardRequest struct {
	AcquirerCNPJ     string `json:"acquirer_cnpj"`
	Brand            string `json:"brand,omitempty"`
	Operation        string `json:"operation" validate:"required"`
	InstallmentCount int    `json:"installment_count,omitempty"`
}

type installmentRequest struct {
	CustomerID   uuid.UUID `json:"customer_id" validate:"required"`
	Count        int       `json:"count" validate:"required,min=1"`
	FirstDueDate time.Time `json:"first_due_date" validate:"required"`
}

type paymentEntryRequest struct {
	Method      string              `json:"method" validate:"required"`
	Amount      decimal.Decimal     `json:"amount"`
	Card        *cardRequest        `json:"card,omitempty"`
	Installment *installmentRequest `json:"installment,omitempty"`
}

type checkoutRequest struct {
	Subtotal           decimal.Decimal       `json:"subtotal"`
	Discount           decimal.Decimal       `json:"discount"`
	StoreCreditApplied decimal.Decimal       `json:"store_credit_applied"`
	SellerID           *uuid.UUID            `json:"seller_id,omitempty"`
	CustomerName       string                `json:"customer_name,omitempty"`
	CustomerDocument   string                `json:"customer_document,omitempty"`
	Payments           []paymentEntryRequest `json:"payments" validate:"dive"`
}

func (req *checkoutRequest) toDraft() (*payments.SaleDraft, error) {
	draft := payments.NewDraft(req.Subtotal, req.Discount)
	draft.SellerID = req.SellerID
	draft.CustomerName = req.CustomerName
	draft.CustomerDocument = req.CustomerDocument

	if req.StoreCreditApplied.IsPositive() {
		if err := draft.ApplyStoreCredit(req.StoreCreditApplied); err != nil {
			return nil, err
		}
	}

	for _, p := range req.Payments {
		method, err := enums.ParsePaymentMethod(p.Method)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method")
		}

		entry := payments.PaymentEntry{Method: method, Amount: p.Amount}
		if p.Card != nil {
			card := payments.NewCardMetadata(method)
			card.AcquirerCNPJ = p.Card.AcquirerCNPJ
			if p.Card.Brand != "" {
				card.Brand = enums.CardBrand(p.Card.Brand)
			}
			if p.Card.Operation != "" {
				card.Operation = enums.CardOperation(p.Card.Operation)
			}
			card.InstallmentCount = p.Card.InstallmentCount
			entry.Card = card
		}
		if p.Installment != nil {
			plan, err := payments.BuildInstallmentPlan(p.Installment.CustomerID, p.Amount, p.Installment.Count, p.Installment.FirstDueDate)
			if err != nil {
				return nil, err
			}
			entry.Installment = plan
		}
		draft.Entries = append(draft.Entries, entry)
	}
	return draft, nil
}

type checkoutResponse struct {
	SaleID    uuid.UUID       `json:"sale_id"`
	ChangeDue decimal.Decimal `json:"change_due"`
	NextStep  string          `json:"next_step"`
	Notices   []string        `json:"notices,omitempty"`
}

type validateResponse struct {
	Valid         bool            `json:"valid"`
	Total         decimal.Decimal `json:"total"`
	Remaining     decimal.Decimal `json:"remaining"`
	ChangeDue     decimal.Decimal `json:"change_due"`
	PrunedEntries int             `json:"pruned_entries,omitempty"`
}
