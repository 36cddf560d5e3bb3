package payments

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/pontodigital/pdv-backend/pkg/enums"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/money"
)

var (
	errPlanCustomerRequired = pkgerrors.New(pkgerrors.CodeValidation, "installment plan requires a customer")
	errPlanCountInvalid     = pkgerrors.New(pkgerrors.CodeValidation, "installment count must be at least 1")
)

// ValidationContext carries the account-level rules that apply on top of
// the draft itself.
type ValidationContext struct {
	AccountType     enums.AccountType
	MaxInstallments int
}

// ValidationResult reports what Validate changed and found. PrunedEntries
// lets the caller tell the operator that sub-cent lines were dropped.
type ValidationResult struct {
	PrunedEntries int
}

// Validate runs the full pre-submission check. Entry-level problems are
// collected rather than short-circuited so the operator sees every issue
// in one pass; structural problems (coverage, duplicate installment) fail
// on their own.
func (d *SaleDraft) Validate(vctx ValidationContext) (*ValidationResult, error) {
	result := &ValidationResult{PrunedEntries: d.PruneNegligible()}

	var entryErrs error
	installments := 0
	for i := range d.Entries {
		entry := &d.Entries[i]
		if !entry.Method.IsValid() {
			entryErrs = multierr.Append(entryErrs, fmt.Errorf("pagamento %d: método desconhecido", i+1))
			continue
		}

		if entry.Method.IsCard() {
			if err := entry.Card.Validate(); err != nil {
				entryErrs = multierr.Append(entryErrs, fmt.Errorf("pagamento %d: %w", i+1, err))
			}
		}

		if entry.Method == enums.PaymentMethodInstallment {
			installments++
			if vctx.MaxInstallments <= 0 {
				entryErrs = multierr.Append(entryErrs, fmt.Errorf("pagamento %d: crediário desabilitado para esta conta", i+1))
			} else if entry.Installment == nil {
				entryErrs = multierr.Append(entryErrs, fmt.Errorf("pagamento %d: plano de crediário não definido", i+1))
			} else {
				if entry.Installment.Count < 1 {
					entryErrs = multierr.Append(entryErrs, fmt.Errorf("pagamento %d: quantidade de parcelas inválida", i+1))
				}
				if vctx.MaxInstallments > 0 && entry.Installment.Count > vctx.MaxInstallments {
					entryErrs = multierr.Append(entryErrs, fmt.Errorf("pagamento %d: máximo de %d parcelas", i+1, vctx.MaxInstallments))
				}
			}
		}
	}
	if entryErrs != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeValidation, entryErrs, "payment entries are invalid").
			WithDetails(map[string]any{"problems": multierrMessages(entryErrs)})
	}

	if installments > 1 {
		return result, pkgerrors.New(pkgerrors.CodeConflict, "only one installment entry is allowed per sale")
	}

	if installments == 1 && strings.TrimSpace(d.CustomerName) == "" {
		return result, pkgerrors.New(pkgerrors.CodeValidation, "installment sales require a customer")
	}

	if vctx.AccountType == enums.AccountTypeCompany && d.SellerID == nil {
		return result, pkgerrors.New(pkgerrors.CodeValidation, "a seller must be assigned to the sale")
	}

	// Store credit already reduced the total, so a fully redeemed sale
	// passes with zero entries.
	if !money.Covers(d.PaidTotal(), d.Total()) {
		return result, pkgerrors.New(pkgerrors.CodeValidation, "payments do not cover the sale total").
			WithDetails(map[string]any{
				"total":     d.Total().StringFixed(2),
				"paid":      d.PaidTotal().StringFixed(2),
				"remaining": d.Remaining().StringFixed(2),
			})
	}

	return result, nil
}

func multierrMessages(err error) []string {
	errs := multierr.Errors(err)
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Error())
	}
	return messages
}
