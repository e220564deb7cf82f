package services

import (
	"checkstand/internal/domain"
	"checkstand/internal/repos"
)

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	return s.Prods.Get(id)
}

func (s *CatalogService) GetByBarcode(barcode string) (domain.Product, error) {
	return s.Prods.GetByBarcode(barcode)
}

func (s *CatalogService) ListActive(skip, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.Prods.ListActive(limit, skip)
}

func (s *CatalogService) ListByCategory(category domain.ProductCategory, skip, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.Prods.ListByCategory(string(category), limit, skip)
}

func (s *CatalogService) Search(q string, skip, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.Prods.Search(q, limit, skip)
}
