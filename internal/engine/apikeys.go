package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"caseflow/internal/domain"
	"caseflow/internal/repo"
)

// NewAPIKey mints a random API key for an actor and stores its hash. The
// raw key is returned exactly once; only the hash survives.
func NewAPIKey(ctx context.Context, r repo.Repo, actorID, name string) (string, domain.APIKey, error) {
	if actorID == "" {
		return "", domain.APIKey{}, errors.New("actor id is required")
	}
	raw := uuid.New().String()
	key := domain.APIKey{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Name:      name,
		KeyHash:   repo.HashAPIKey(raw),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := r.InsertAPIKey(ctx, nil, key); err != nil {
		return "", domain.APIKey{}, err
	}
	return raw, key, nil
}
