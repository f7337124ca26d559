package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mandi_back_end/internal/database"
	"mandi_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

// Durée de vie d'une pré-autorisation côté Redis. Doit couvrir la fenêtre de
// validité gateway ; au-delà, la finalisation retombe sur le résumé client.
const PreAuthTTL = 45 * time.Minute

// PreAuthStore fait l'aller-retour de l'enregistrement GatewayPreAuth entre
// la pré-autorisation et la finalisation, sans re-consulter le catalogue.
type PreAuthStore interface {
	Save(ctx context.Context, preAuth *models.GatewayPreAuth) error
	Get(ctx context.Context, gatewayOrderID string) (*models.GatewayPreAuth, error)
	Delete(ctx context.Context, gatewayOrderID string) error
}

type redisPreAuth struct {
	client *redis.Client
}

func NewRedisPreAuth(client *redis.Client) PreAuthStore {
	return &redisPreAuth{client: client}
}

// NewDefaultPreAuth utilise le client Redis global du process
func NewDefaultPreAuth() PreAuthStore {
	return &redisPreAuth{client: database.Redis}
}

func preAuthKey(gatewayOrderID string) string {
	return "preauth:" + gatewayOrderID
}

func (r *redisPreAuth) Save(ctx context.Context, preAuth *models.GatewayPreAuth) error {
	data, err := json.Marshal(preAuth)
	if err != nil {
		return fmt.Errorf("sérialisation pré-autorisation: %w", err)
	}
	if err := r.client.Set(ctx, preAuthKey(preAuth.GatewayOrderID), data, PreAuthTTL).Err(); err != nil {
		return fmt.Errorf("écriture Redis pré-autorisation %s: %w", preAuth.GatewayOrderID, err)
	}
	return nil
}

func (r *redisPreAuth) Get(ctx context.Context, gatewayOrderID string) (*models.GatewayPreAuth, error) {
	data, err := r.client.Get(ctx, preAuthKey(gatewayOrderID)).Result()
	if err == redis.Nil {
		return nil, nil // expirée ou jamais créée : pas une erreur
	}
	if err != nil {
		return nil, fmt.Errorf("lecture Redis pré-autorisation %s: %w", gatewayOrderID, err)
	}

	var preAuth models.GatewayPreAuth
	if err := json.Unmarshal([]byte(data), &preAuth); err != nil {
		return nil, fmt.Errorf("pré-autorisation corrompue %s: %w", gatewayOrderID, err)
	}
	return &preAuth, nil
}

func (r *redisPreAuth) Delete(ctx context.Context, gatewayOrderID string) error {
	return r.client.Del(ctx, preAuthKey(gatewayOrderID)).Err()
}
