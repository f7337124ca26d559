package repository

import (
	"context"
	"fmt"
	"time"

	"mandi_back_end/internal/database"
	"mandi_back_end/internal/models"
)

// IntentStore : saga de checkout. Une intention est créée avant la boucle de
// persistance par boutique et fermée après ; les intentions restées ouvertes
// sont reprises par le worker de réconciliation.
type IntentStore interface {
	Create(ctx context.Context, intent *models.CheckoutIntent) error
	MarkCompleted(ctx context.Context, intentID string, orderIDs []string) error
	MarkAbandoned(ctx context.Context, intentID string) error
	ListOpen(ctx context.Context) ([]models.CheckoutIntent, error)
}

type scyllaIntents struct{}

func NewScyllaIntents() IntentStore {
	return &scyllaIntents{}
}

func (s *scyllaIntents) Create(ctx context.Context, intent *models.CheckoutIntent) error {
	err := database.QueryInsertIntent(
		intent.ID, intent.CustomerID, intent.GatewayOrderID, intent.OrderIDs,
		intent.Status, intent.CreatedAt, intent.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("création intention %s: %w", intent.ID, err)
	}
	return nil
}

func (s *scyllaIntents) MarkCompleted(ctx context.Context, intentID string, orderIDs []string) error {
	err := database.QueryUpdateIntentStatus(
		models.IntentStatusCompleted, orderIDs, time.Now(), intentID,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("clôture intention %s: %w", intentID, err)
	}
	return nil
}

func (s *scyllaIntents) MarkAbandoned(ctx context.Context, intentID string) error {
	err := database.QueryUpdateIntentStatus(
		models.IntentStatusAbandoned, []string{}, time.Now(), intentID,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("abandon intention %s: %w", intentID, err)
	}
	return nil
}

func (s *scyllaIntents) ListOpen(ctx context.Context) ([]models.CheckoutIntent, error) {
	iter := database.QueryOpenIntents().WithContext(ctx).Iter()

	var intents []models.CheckoutIntent
	var it models.CheckoutIntent
	for iter.Scan(&it.ID, &it.CustomerID, &it.GatewayOrderID, &it.OrderIDs,
		&it.Status, &it.CreatedAt, &it.UpdatedAt) {
		intents = append(intents, it)
		it = models.CheckoutIntent{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("liste intentions ouvertes: %w", err)
	}
	return intents, nil
}
