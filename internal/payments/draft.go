package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pontodigital/pdv-backend/pkg/enums"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/money"
)

// SaleDraft is the mutable checkout aggregate. It is created when the
// checkout view opens with a non-empty cart and torn down on close,
// success, or when the cart empties. Entries are mutable until submission.
type SaleDraft struct {
	Entries            []PaymentEntry
	Subtotal           decimal.Decimal
	Discount           decimal.Decimal
	StoreCreditApplied decimal.Decimal
	SellerID           *uuid.UUID
	CustomerName       string
	CustomerDocument   string
}

// NewDraft opens a draft for a cart with the given subtotal and manual
// discount.
func NewDraft(subtotal, discount decimal.Decimal) *SaleDraft {
	return &SaleDraft{
		Subtotal: subtotal,
		Discount: discount,
	}
}

// BaseTotal is the cart total before store-credit redemption.
func (d *SaleDraft) BaseTotal() decimal.Decimal {
	base := d.Subtotal.Sub(d.Discount)
	if base.IsNegative() {
		return decimal.Zero
	}
	return money.RoundCents(base)
}

// Total is what the customer still owes after discount and store credit.
func (d *SaleDraft) Total() decimal.Decimal {
	total := d.BaseTotal().Sub(d.StoreCreditApplied)
	if total.IsNegative() {
		return decimal.Zero
	}
	return money.RoundCents(total)
}

// ApplyStoreCredit sets the redeemed amount. The caller computes it as
// min(balance, base total); the draft enforces the ceiling again.
func (d *SaleDraft) ApplyStoreCredit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "store credit cannot be negative")
	}
	if amount.GreaterThan(d.BaseTotal()) {
		return pkgerrors.New(pkgerrors.CodeValidation, "store credit cannot exceed the sale total")
	}
	d.StoreCreditApplied = money.RoundCents(amount)
	return nil
}

// PaidTotal sums every entry amount.
func (d *SaleDraft) PaidTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, entry := range d.Entries {
		sum = sum.Add(entry.Amount)
	}
	return sum
}

// Remaining is total minus what the entries already cover. It may go
// negative transiently while the operator edits amounts.
func (d *SaleDraft) Remaining() decimal.Decimal {
	return d.Total().Sub(d.PaidTotal())
}

// CashTotal sums the entries settled in cash.
func (d *SaleDraft) CashTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, entry := range d.Entries {
		if entry.Method == enums.PaymentMethodCash {
			sum = sum.Add(entry.Amount)
		}
	}
	return sum
}

// ChangeDue is derived, never stored: max(0, cash tendered − total).
// Only cash entries count; a card or pix entry above its share never
// turns into change.
func (d *SaleDraft) ChangeDue() decimal.Decimal {
	change := d.CashTotal().Sub(d.Total())
	if !change.IsPositive() {
		return decimal.Zero
	}
	return money.RoundCents(change)
}

// AddEntry appends a cash entry pre-filled with the remaining balance, or
// zero when the sale is already covered.
func (d *SaleDraft) AddEntry() int {
	amount := d.Remaining()
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	d.Entries = append(d.Entries, PaymentEntry{
		Method: enums.PaymentMethodCash,
		Amount: money.RoundCents(amount),
	})
	return len(d.Entries) - 1
}

// UpdateMethod switches an entry's payment method, seeding or clearing the
// method-specific payloads. Switching to installment resets the amount to
// the balance the remaining entries leave open and requires a plan before
// the draft can submit.
func (d *SaleDraft) UpdateMethod(index int, method enums.PaymentMethod, maxInstallments int) error {
	if index < 0 || index >= len(d.Entries) {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment entry does not exist")
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	entry := &d.Entries[index]
	previous := entry.Method
	if previous == method {
		return nil
	}

	if method == enums.PaymentMethodInstallment {
		if maxInstallments <= 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "installment sales are disabled for this account")
		}
		if d.hasInstallmentEntry(index) {
			return pkgerrors.New(pkgerrors.CodeConflict, "only one installment entry is allowed per sale")
		}
	}

	entry.Method = method
	entry.normalizeForMethod()

	switch {
	case method.IsCard():
		entry.Card = NewCardMetadata(method)
	case method == enums.PaymentMethodInstallment:
		remainder := d.Total().Sub(d.PaidTotal().Sub(entry.Amount))
		if remainder.IsNegative() {
			remainder = decimal.Zero
		}
		entry.Amount = money.RoundCents(remainder)
		entry.Installment = nil
	}
	return nil
}

// SetAmount replaces an entry's amount. The value is stored as entered;
// sub-cent artifacts are pruned at validation time rather than rounded up
// here.
func (d *SaleDraft) SetAmount(index int, amount decimal.Decimal) error {
	if index < 0 || index >= len(d.Entries) {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment entry does not exist")
	}
	if amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount cannot be negative")
	}
	d.Entries[index].Amount = amount
	return nil
}

// SetInstallmentPlan attaches the resolved plan to an installment entry.
func (d *SaleDraft) SetInstallmentPlan(index int, plan *InstallmentPlan) error {
	if index < 0 || index >= len(d.Entries) {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment entry does not exist")
	}
	if d.Entries[index].Method != enums.PaymentMethodInstallment {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "entry is not an installment payment")
	}
	if plan == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "installment plan is required")
	}
	d.Entries[index].Installment = plan
	return nil
}

// RemoveEntry drops an entry by position.
func (d *SaleDraft) RemoveEntry(index int) error {
	if index < 0 || index >= len(d.Entries) {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment entry does not exist")
	}
	d.Entries = append(d.Entries[:index], d.Entries[index+1:]...)
	return nil
}

// PruneNegligible drops entries below one cent and reports how many were
// removed so the operator can be notified.
func (d *SaleDraft) PruneNegligible() int {
	kept := d.Entries[:0]
	removed := 0
	for _, entry := range d.Entries {
		if money.IsNegligible(entry.Amount) {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	d.Entries = kept
	return removed
}

// Reset tears the draft down. Called on close, success, or when the cart
// empties.
func (d *SaleDraft) Reset() {
	*d = SaleDraft{}
}

func (d *SaleDraft) hasInstallmentEntry(excludeIndex int) bool {
	for i, entry := range d.Entries {
		if i == excludeIndex {
			continue
		}
		if entry.Method == enums.PaymentMethodInstallment {
			return true
		}
	}
	return false
}
