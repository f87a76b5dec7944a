package services

import (
	"context"
	"errors"

	"github.com/aerofans/apiserver/apperror"
	"github.com/aerofans/apiserver/internal/store"
	"github.com/aerofans/apiserver/types"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, authorID int, text string) (types.Post, error)
	List(ctx context.Context) ([]types.Post, error)
	Get(ctx context.Context, id int) (types.Post, error)
	UpdateText(ctx context.Context, id int, text string) (types.Post, error)
	Delete(ctx context.Context, id int) error
}

// PostService encapsulates post use-cases. Mutations are gated on authorship:
// the existence check runs first, so a nonexistent post is a not-found for
// everyone, owner or not.
//
// The check and the mutation are separate statements, not one transaction; a
// concurrent delete can slip between them. Each statement is atomic on its
// own, so the worst case is last-writer-wins.
type PostService struct {
	repo PostRepository
}

func NewPostService(repo PostRepository) *PostService {
	return &PostService{repo: repo}
}

func (s *PostService) Create(ctx context.Context, authorID int, text string) (types.Post, error) {
	post, err := s.repo.Create(ctx, authorID, text)
	if err != nil {
		return types.Post{}, apperror.NewDatabaseError("failed to create post", err)
	}
	return post, nil
}

func (s *PostService) List(ctx context.Context) ([]types.Post, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list posts", err)
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, id int) (types.Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Post{}, apperror.NewNotFoundError("post not found", nil)
		}
		return types.Post{}, apperror.NewDatabaseError("failed to fetch post", err)
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, id, requesterID int, text string) (types.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return types.Post{}, err
	}
	if post.Author != requesterID {
		return types.Post{}, apperror.NewForbiddenError("not the author", nil)
	}

	updated, err := s.repo.UpdateText(ctx, id, text)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Post{}, apperror.NewNotFoundError("post not found", nil)
		}
		return types.Post{}, apperror.NewDatabaseError("failed to update post", err)
	}
	return updated, nil
}

func (s *PostService) Delete(ctx context.Context, id, requesterID int) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if post.Author != requesterID {
		return apperror.NewForbiddenError("not the author", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NewNotFoundError("post not found", nil)
		}
		return apperror.NewDatabaseError("failed to delete post", err)
	}
	return nil
}
