package products

import (
	"context"
	"errors"

	"github.com/pontodigital/pdv-backend/pkg/db"
	"github.com/pontodigital/pdv-backend/pkg/db/models"
)

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo Repository
}

// Service exposes catalog lookups to the scanning flow.
type Service struct {
	repo Repository
}

// NewService builds a catalog service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// GetByBarcode resolves a full barcode to an active product.
func (s *Service) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	product, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, db.MapError(err, "product not found")
	}
	return product, nil
}

// GetByInternalCode resolves the short item code scale labels embed.
func (s *Service) GetByInternalCode(ctx context.Context, internalCode string) (*models.Product, error) {
	product, err := s.repo.FindByInternalCode(ctx, internalCode)
	if err != nil {
		return nil, db.MapError(err, "product not found")
	}
	return product, nil
}
