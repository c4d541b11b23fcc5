package repository

import (
	"context"
	"errors"

	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStateNotFound is returned when a namespace holds no value for a key.
var ErrStateNotFound = errors.New("state not found")

// StateRepository persists small string values per client namespace.
type StateRepository interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
}

type stateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) StateRepository {
	return &stateRepository{db: db}
}

func (r *stateRepository) Get(ctx context.Context, namespace, key string) (string, error) {
	var state model.ClientState
	err := r.db.WithContext(ctx).
		Where("namespace = ? AND state_key = ?", namespace, key).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrStateNotFound
		}
		logger.Error("Failed to read client state", err, map[string]interface{}{
			"namespace": namespace,
			"key":       key,
		})
		return "", err
	}
	return state.Value, nil
}

func (r *stateRepository) Set(ctx context.Context, namespace, key, value string) error {
	state := model.ClientState{
		Namespace: namespace,
		Key:       key,
		Value:     value,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		logger.Error("Failed to write client state", err, map[string]interface{}{
			"namespace": namespace,
			"key":       key,
		})
		return err
	}

	logger.Debug("Client state written", map[string]interface{}{
		"namespace": namespace,
		"key":       key,
	})
	return nil
}

func (r *stateRepository) Delete(ctx context.Context, namespace, key string) error {
	err := r.db.WithContext(ctx).
		Where("namespace = ? AND state_key = ?", namespace, key).
		Delete(&model.ClientState{}).Error
	if err != nil {
		logger.Error("Failed to delete client state", err, map[string]interface{}{
			"namespace": namespace,
			"key":       key,
		})
		return err
	}

	logger.Debug("Client state deleted", map[string]interface{}{
		"namespace": namespace,
		"key":       key,
	})
	return nil
}
