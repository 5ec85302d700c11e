package ads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/enums"
	"github.com/dakouloulo802-blip/movie-miniapp-backend/internal/domain/model"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrUnknownAdKind = errors.New("unrecognized ad kind")
)

type EventStore interface {
	InsertCompletion(ctx context.Context, subjectID, movieID, kind string, meta map[string]any) error
}

// Service accepts or rejects ad-completion claims and records accepted ones.
// A verified ad-network receipt check would slot in here; today the claim is
// taken on trust once its kind is recognized.
type Service struct {
	store EventStore
}

func NewService(store EventStore) *Service {
	return &Service{store: store}
}

func (s *Service) VerifyCompletion(ctx context.Context, subjectID, movieID string, claim model.AdClaim) error {
	if strings.TrimSpace(subjectID) == "" {
		return ErrValidation
	}

	kind := strings.ToLower(strings.TrimSpace(claim.Kind))
	if !enums.IsRecognizedAdKind(kind) {
		return ErrUnknownAdKind
	}

	if s.store == nil {
		return nil
	}
	if err := s.store.InsertCompletion(ctx, subjectID, movieID, kind, nil); err != nil {
		return fmt.Errorf("record ad completion: %w", err)
	}

	return nil
}
