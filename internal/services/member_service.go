package services

import (
	"context"

	"github.com/2002jaebin-rgb/PTLog/internal/models"
)

type MemberService struct {
	store Store
}

func NewMemberService(store Store) *MemberService {
	return &MemberService{store: store}
}

// ListMembers returns the trainer's members with their session usage.
func (s *MemberService) ListMembers(ctx context.Context, actor models.Identity) ([]models.Member, error) {
	if !actor.IsTrainer() {
		return nil, ErrForbidden
	}
	return s.store.Repos().Members.ListByTrainer(ctx, actor.ID)
}
