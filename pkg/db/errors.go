package db

import (
	"errors"

	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"gorm.io/gorm"
)

// MapError converts GORM sentinel errors into coded domain errors.
func MapError(err error, notFoundMessage string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database operation failed")
}
