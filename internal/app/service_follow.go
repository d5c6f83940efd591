package app

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"plantpal/api/internal/store"
)

type FollowStatus struct {
	Following bool `json:"following"`
}

type FollowCounts struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// Follow adds target to the caller's following list and the caller to the
// target's followers list. The two writes are not transactional; a crash
// between them leaves the lists asymmetric until the next successful mutation.
func (s *Service) Follow(ctx context.Context, caller Session, targetEmail string) (FollowStatus, error) {
	targetEmail = strings.ToLower(strings.TrimSpace(targetEmail))
	if targetEmail == caller.Email {
		return FollowStatus{}, domainError(http.StatusBadRequest, "SELF_FOLLOW", "You cannot follow yourself", nil)
	}

	target, err := s.store.GetUserByEmail(ctx, targetEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return FollowStatus{}, domainError(http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		}
		return FollowStatus{}, err
	}
	me, err := s.store.GetUserByEmail(ctx, caller.Email)
	if err != nil {
		return FollowStatus{}, err
	}

	if contains(me.Following, target.Email) {
		return FollowStatus{}, domainError(http.StatusBadRequest, "ALREADY_FOLLOWING", "Already following this user", nil)
	}

	if err := s.store.SetFollowing(ctx, me.Email, append(me.Following, target.Email)); err != nil {
		return FollowStatus{}, err
	}
	if err := s.store.SetFollowers(ctx, target.Email, append(target.Followers, me.Email)); err != nil {
		return FollowStatus{}, err
	}
	return FollowStatus{Following: true}, nil
}

// Unfollow removes the relationship in both directions. Unfollowing someone
// the caller never followed is a no-op success.
func (s *Service) Unfollow(ctx context.Context, caller Session, targetEmail string) (FollowStatus, error) {
	targetEmail = strings.ToLower(strings.TrimSpace(targetEmail))
	if targetEmail == caller.Email {
		return FollowStatus{}, domainError(http.StatusBadRequest, "SELF_FOLLOW", "You cannot unfollow yourself", nil)
	}

	target, err := s.store.GetUserByEmail(ctx, targetEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return FollowStatus{}, domainError(http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		}
		return FollowStatus{}, err
	}
	me, err := s.store.GetUserByEmail(ctx, caller.Email)
	if err != nil {
		return FollowStatus{}, err
	}

	if contains(me.Following, target.Email) {
		if err := s.store.SetFollowing(ctx, me.Email, remove(me.Following, target.Email)); err != nil {
			return FollowStatus{}, err
		}
	}
	if contains(target.Followers, me.Email) {
		if err := s.store.SetFollowers(ctx, target.Email, remove(target.Followers, me.Email)); err != nil {
			return FollowStatus{}, err
		}
	}
	return FollowStatus{Following: false}, nil
}

// Following reports whether the caller follows the target.
func (s *Service) Following(ctx context.Context, caller Session, targetEmail string) (FollowStatus, error) {
	targetEmail = strings.ToLower(strings.TrimSpace(targetEmail))
	if _, err := s.store.GetUserByEmail(ctx, targetEmail); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return FollowStatus{}, domainError(http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		}
		return FollowStatus{}, err
	}

	me, err := s.store.GetUserByEmail(ctx, caller.Email)
	if err != nil {
		return FollowStatus{}, err
	}
	return FollowStatus{Following: contains(me.Following, targetEmail)}, nil
}

// Counts returns follower/following totals for any user.
func (s *Service) Counts(ctx context.Context, email string) (FollowCounts, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return FollowCounts{}, domainError(http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		}
		return FollowCounts{}, err
	}
	return FollowCounts{Followers: len(user.Followers), Following: len(user.Following)}, nil
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func remove(list []string, value string) []string {
	result := make([]string, 0, len(list))
	for _, item := range list {
		if item != value {
			result = append(result, item)
		}
	}
	return result
}
