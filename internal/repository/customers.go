package repository

import (
	"context"
	"fmt"

	"mandi_back_end/internal/database"
	"mandi_back_end/internal/models"

	"github.com/gocql/gocql"
)

// CustomerStore : lecture seule des clients (propriété du module users).
type CustomerStore interface {
	GetCustomer(ctx context.Context, customerID string) (*models.Customer, error)
}

type scyllaCustomers struct{}

func NewScyllaCustomers() CustomerStore {
	return &scyllaCustomers{}
}

func (s *scyllaCustomers) GetCustomer(ctx context.Context, customerID string) (*models.Customer, error) {
	var c models.Customer
	err := database.QueryGetCustomer(customerID).WithContext(ctx).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture client %s: %w", customerID, err)
	}
	return &c, nil
}
