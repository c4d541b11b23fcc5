package repository

import (
	"context"
	"errors"
)

// ScopedState is a StateRepository bound to one namespace.
type ScopedState struct {
	repo      StateRepository
	namespace string
}

func NewScopedState(repo StateRepository, namespace string) *ScopedState {
	return &ScopedState{repo: repo, namespace: namespace}
}

func (s *ScopedState) Namespace() string {
	return s.namespace
}

// Get returns "" without error when nothing is stored under key.
func (s *ScopedState) Get(ctx context.Context, key string) (string, error) {
	value, err := s.repo.Get(ctx, s.namespace, key)
	if errors.Is(err, ErrStateNotFound) {
		return "", nil
	}
	return value, err
}

func (s *ScopedState) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, s.namespace, key, value)
}

func (s *ScopedState) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, s.namespace, key)
}
