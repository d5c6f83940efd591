package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"plantpal/api/internal/media"
	"plantpal/api/internal/search"
	"plantpal/api/internal/store"
)

// CreatePost persists the post, then schedules the broadcast fan-out and
// search indexing. Neither side effect can fail the create.
func (s *Service) CreatePost(ctx context.Context, caller Session, caption, image string) (store.Post, error) {
	caption = strings.TrimSpace(caption)
	if caption == "" && image == "" {
		return store.Post{}, domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "caption or image is required", nil)
	}

	stored, err := s.media.StoreImage(ctx, image)
	if err != nil {
		if errors.Is(err, media.ErrTooLarge) {
			return store.Post{}, domainError(http.StatusBadRequest, "IMAGE_TOO_LARGE", "Image exceeds the size limit", nil)
		}
		return store.Post{}, err
	}

	saved, err := s.store.InsertPost(ctx, store.Post{
		Email:    caller.Email,
		Caption:  caption,
		Image:    stored,
		Date:     time.Now(),
		Comments: []store.Comment{},
		LikedBy:  []string{},
	})
	if err != nil {
		return store.Post{}, err
	}

	s.notifier.PostCreatedAsync(saved, caller.Name)
	s.search.IndexPost(saved)
	return saved, nil
}

func (s *Service) ListPosts(ctx context.Context) ([]store.Post, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []store.Post{}
	}
	return posts, nil
}

func (s *Service) GetPost(ctx context.Context, id string) (store.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Post{}, domainError(http.StatusNotFound, "NOT_FOUND", "Post not found", nil)
		}
		return store.Post{}, err
	}
	return post, nil
}

// ToggleLike flips the caller's like on a post. likeCount is derived from
// likedBy, so it can never go negative.
func (s *Service) ToggleLike(ctx context.Context, caller Session, id string) (store.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return store.Post{}, err
	}

	if contains(post.LikedBy, caller.Email) {
		post.LikedBy = remove(post.LikedBy, caller.Email)
	} else {
		post.LikedBy = append(post.LikedBy, caller.Email)
	}
	post.LikeCount = len(post.LikedBy)

	if err := s.store.UpdatePost(ctx, post); err != nil {
		return store.Post{}, err
	}
	return post, nil
}

// AddComment appends a comment to a post.
func (s *Service) AddComment(ctx context.Context, caller Session, id, text string) (store.Post, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return store.Post{}, domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "comment text is required", nil)
	}

	post, err := s.GetPost(ctx, id)
	if err != nil {
		return store.Post{}, err
	}

	post.Comments = append(post.Comments, store.Comment{
		Author:    caller.Email,
		Text:      text,
		CreatedAt: time.Now(),
	})
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return store.Post{}, err
	}
	return post, nil
}

// DeleteComment removes the comment at index. Only the comment's author or
// the post's owner may remove it.
func (s *Service) DeleteComment(ctx context.Context, caller Session, id string, index int) (store.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return store.Post{}, err
	}
	if index < 0 || index >= len(post.Comments) {
		return store.Post{}, domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "comment index out of range", nil)
	}
	comment := post.Comments[index]
	if comment.Author != caller.Email && post.Email != caller.Email {
		return store.Post{}, domainError(http.StatusNotFound, "NOT_FOUND", "Comment not found", nil)
	}

	post.Comments = append(post.Comments[:index], post.Comments[index+1:]...)
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return store.Post{}, err
	}
	return post, nil
}

// UpdateCaption edits a post's caption. Owner only; another user's post is
// absent as far as the caller can tell.
func (s *Service) UpdateCaption(ctx context.Context, caller Session, id, caption string) (store.Post, error) {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return store.Post{}, domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "caption is required", nil)
	}

	post, err := s.GetPost(ctx, id)
	if err != nil {
		return store.Post{}, err
	}
	if post.Email != caller.Email {
		return store.Post{}, domainError(http.StatusNotFound, "NOT_FOUND", "Post not found", nil)
	}

	post.Caption = caption
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return store.Post{}, err
	}
	s.search.IndexPost(post)
	return post, nil
}

// DeletePost removes an owned post plus its search entry and stored image.
func (s *Service) DeletePost(ctx context.Context, caller Session, id string) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.Email != caller.Email {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Post not found", nil)
	}

	if err := s.store.DeletePost(ctx, id); err != nil {
		return err
	}
	s.search.DeletePost(id)
	s.media.RemoveImage(ctx, post.Image)
	return nil
}

// SearchPosts queries the search facade.
func (s *Service) SearchPosts(ctx context.Context, text, authorEmail string, limit, offset int) (search.Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return search.Response{}, domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "search query is required", nil)
	}
	return s.search.Search(ctx, search.Query{
		Text:   text,
		Email:  strings.ToLower(strings.TrimSpace(authorEmail)),
		Limit:  limit,
		Offset: offset,
	}), nil
}
