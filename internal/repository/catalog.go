package repository

import (
	"context"
	"errors"
	"fmt"

	"mandi_back_end/internal/database"
	"mandi_back_end/internal/models"

	"github.com/gocql/gocql"
)

// ErrNotFound : l'enregistrement demandé n'existe pas dans le store.
var ErrNotFound = errors.New("enregistrement introuvable")

// CatalogStore : lecture seule du catalogue (produits, boutiques, livreurs).
// Le catalogue appartient à un autre module ; ce moteur ne l'écrit jamais.
type CatalogStore interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	GetShop(ctx context.Context, shopID string) (*models.Shop, error)
	GetCourier(ctx context.Context, courierID string) (*models.Courier, error)
}

type scyllaCatalog struct{}

func NewScyllaCatalog() CatalogStore {
	return &scyllaCatalog{}
}

func (s *scyllaCatalog) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	var p models.Product
	err := database.QueryGetProduct(productID).WithContext(ctx).
		Scan(&p.ID, &p.Name, &p.Price, &p.ShopID)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit %s: %w", productID, err)
	}
	return &p, nil
}

func (s *scyllaCatalog) GetShop(ctx context.Context, shopID string) (*models.Shop, error) {
	var shop models.Shop
	err := database.QueryGetShop(shopID).WithContext(ctx).
		Scan(&shop.ID, &shop.Name, &shop.Latitude, &shop.Longitude, &shop.OwnerEmail)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture boutique %s: %w", shopID, err)
	}
	return &shop, nil
}

func (s *scyllaCatalog) GetCourier(ctx context.Context, courierID string) (*models.Courier, error) {
	var c models.Courier
	err := database.QueryGetCourier(courierID).WithContext(ctx).
		Scan(&c.ID, &c.Name, &c.Email)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture livreur %s: %w", courierID, err)
	}
	return &c, nil
}
