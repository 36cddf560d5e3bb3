package enums

import "fmt"

// CardBrand is the brand code set the fiscal authority accepts on card
// payment records.
type CardBrand string

const (
	CardBrandVisa       CardBrand = "visa"
	CardBrandMastercard CardBrand = "mastercard"
	CardBrandAmex       CardBrand = "amex"
	CardBrandElo        CardBrand = "elo"
	CardBrandHipercard  CardBrand = "hipercard"
	CardBrandOther      CardBrand = "other"
)

var validCardBrands = []CardBrand{
	CardBrandVisa,
	CardBrandMastercard,
	CardBrandAmex,
	CardBrandElo,
	CardBrandHipercard,
	CardBrandOther,
}

func (b CardBrand) String() string {
	return string(b)
}

func (b CardBrand) IsValid() bool {
	for _, candidate := range validCardBrands {
		if candidate == b {
			return true
		}
	}
	return false
}

// CardOperation distinguishes how a card transaction settles.
type CardOperation string

const (
	CardOperationCashCredit        CardOperation = "cash_credit"
	CardOperationInstallmentCredit CardOperation = "installment_credit"
	CardOperationDebit             CardOperation = "debit"
)

var validCardOperations = []CardOperation{
	CardOperationCashCredit,
	CardOperationInstallmentCredit,
	CardOperationDebit,
}

func (o CardOperation) String() string {
	return string(o)
}

func (o CardOperation) IsValid() bool {
	for _, candidate := range validCardOperations {
		if candidate == o {
			return true
		}
	}
	return false
}

func ParseCardOperation(value string) (CardOperation, error) {
	for _, candidate := range validCardOperations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid card operation %q", value)
}

// CardIntegrationNotIntegrated is the only integration type this system
// emits: payments are never captured by an integrated card terminal.
const CardIntegrationNotIntegrated = "2"
