package payments

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/pontodigital/pdv-backend/pkg/enums"
)

// Field labels match the fiscal authority's rejection messages so the
// operator sees the same names the authority would print.
const (
	fieldAcquirerCNPJ     = "CNPJ da Credenciadora"
	fieldCardOperation    = "Tipo de Operação"
	fieldInstallmentCount = "Quantidade de Parcelas"
)

const (
	minCardInstallments = 2
	maxCardInstallments = 24
)

// Validate checks every required acquirer attribute and reports all
// failures at once, so the operator fixes the entry in a single pass
// instead of round-tripping per field. An unset brand is not an error;
// it falls back to "other".
func (c *CardMetadata) Validate() error {
	if c == nil {
		return fmt.Errorf("dados do cartão ausentes")
	}

	var errs error

	cnpj := strings.TrimSpace(c.AcquirerCNPJ)
	switch {
	case cnpj == "":
		errs = multierr.Append(errs, fmt.Errorf("%s é obrigatório", fieldAcquirerCNPJ))
	case !isFourteenDigits(cnpj):
		errs = multierr.Append(errs, fmt.Errorf("%s deve ter 14 dígitos", fieldAcquirerCNPJ))
	}

	if !c.Brand.IsValid() {
		c.Brand = enums.CardBrandOther
	}

	switch c.Operation {
	case enums.CardOperationInstallmentCredit:
		if c.InstallmentCount < minCardInstallments || c.InstallmentCount > maxCardInstallments {
			errs = multierr.Append(errs, fmt.Errorf("%s deve estar entre %d e %d",
				fieldInstallmentCount, minCardInstallments, maxCardInstallments))
		}
	case enums.CardOperationCashCredit, enums.CardOperationDebit:
	default:
		errs = multierr.Append(errs, fmt.Errorf("%s é obrigatório", fieldCardOperation))
	}

	return errs
}

func isFourteenDigits(s string) bool {
	if len(s) != 14 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
