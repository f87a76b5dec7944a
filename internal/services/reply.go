package services

import (
	"context"
	"errors"

	"github.com/aerofans/apiserver/apperror"
	"github.com/aerofans/apiserver/internal/store"
	"github.com/aerofans/apiserver/types"
)

// ReplyRepository defines persistence operations for replies. Every lookup
// and mutation is qualified by the parent post id.
type ReplyRepository interface {
	Create(ctx context.Context, postID, authorID int, text string) (types.Reply, error)
	ListByPost(ctx context.Context, postID int) ([]types.Reply, error)
	Get(ctx context.Context, id, postID int) (types.Reply, error)
	UpdateText(ctx context.Context, id, postID int, text string) (types.Reply, error)
	Delete(ctx context.Context, id, postID int) error
}

// ReplyService encapsulates reply use-cases with the same ownership gating
// as posts. See PostService for the check-then-mutate race note; it applies
// here too.
type ReplyService struct {
	repo ReplyRepository
}

func NewReplyService(repo ReplyRepository) *ReplyService {
	return &ReplyService{repo: repo}
}

// Create inserts a reply under the post. A missing parent post surfaces as
// not-found, not a server fault.
func (s *ReplyService) Create(ctx context.Context, postID, authorID int, text string) (types.Reply, error) {
	reply, err := s.repo.Create(ctx, postID, authorID, text)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Reply{}, apperror.NewNotFoundError("post not found", nil)
		}
		return types.Reply{}, apperror.NewDatabaseError("failed to create reply", err)
	}
	return reply, nil
}

func (s *ReplyService) ListByPost(ctx context.Context, postID int) ([]types.Reply, error) {
	replies, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list replies", err)
	}
	return replies, nil
}

func (s *ReplyService) Get(ctx context.Context, id, postID int) (types.Reply, error) {
	reply, err := s.repo.Get(ctx, id, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Reply{}, apperror.NewNotFoundError("reply not found", nil)
		}
		return types.Reply{}, apperror.NewDatabaseError("failed to fetch reply", err)
	}
	return reply, nil
}

func (s *ReplyService) Update(ctx context.Context, id, postID, requesterID int, text string) (types.Reply, error) {
	reply, err := s.Get(ctx, id, postID)
	if err != nil {
		return types.Reply{}, err
	}
	if reply.Author != requesterID {
		return types.Reply{}, apperror.NewForbiddenError("not the author", nil)
	}

	updated, err := s.repo.UpdateText(ctx, id, postID, text)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Reply{}, apperror.NewNotFoundError("reply not found", nil)
		}
		return types.Reply{}, apperror.NewDatabaseError("failed to update reply", err)
	}
	return updated, nil
}

func (s *ReplyService) Delete(ctx context.Context, id, postID, requesterID int) error {
	reply, err := s.Get(ctx, id, postID)
	if err != nil {
		return err
	}
	if reply.Author != requesterID {
		return apperror.NewForbiddenError("not the author", nil)
	}

	if err := s.repo.Delete(ctx, id, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NewNotFoundError("reply not found", nil)
		}
		return apperror.NewDatabaseError("failed to delete reply", err)
	}
	return nil
}
