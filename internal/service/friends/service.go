package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chatlink/chatlink-server/internal/store"
)

// Common errors for friend operations.
var (
	ErrSelfReference    = errors.New("cannot target yourself")
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicate        = errors.New("relationship already exists")
	ErrBlocked          = errors.New("blocked relationship")
	ErrNoPendingRequest = errors.New("no pending request")
	ErrNotFriends       = errors.New("not friends")
	ErrNotBlocked       = errors.New("user is not blocked")
)

// Action is a response to an incoming friend request.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
)

// ParseAction maps a request path segment to an Action.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionAccept, ActionDecline:
		return Action(s), true
	default:
		return "", false
	}
}

// Service provides friend management business logic.
type Service struct {
	log   *zerolog.Logger
	store store.Store
}

// New creates a friends service.
func New(st store.Store, logger *zerolog.Logger) *Service {
	return &Service{
		log:   logger,
		store: st,
	}
}

// SendRequest sends a friend request. Any existing relationship between the
// two users, in either direction, blocks a new request.
func (s *Service) SendRequest(ctx context.Context, fromUserID, toUserID int64) (*store.Friend, error) {
	if fromUserID == toUserID {
		return nil, ErrSelfReference
	}

	if _, err := s.store.GetUserByID(ctx, toUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	existing, err := s.store.GetFriendship(ctx, fromUserID, toUserID)
	if err == nil {
		if existing.Status == store.FriendStatusBlocked {
			return nil, ErrBlocked
		}
		return nil, ErrDuplicate
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup friendship: %w", err)
	}

	req, err := s.store.CreateFriendRequest(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, fmt.Errorf("create friend request: %w", err)
	}
	s.log.Debug().Int64("from", fromUserID).Int64("to", toUserID).Msg("friend request sent")
	return req, nil
}

// Respond accepts or declines a pending request sent to userID by
// requesterID. Declining deletes the record so a new request can be sent
// later.
func (s *Service) Respond(ctx context.Context, userID, requesterID int64, action Action) error {
	existing, err := s.store.GetFriendship(ctx, requesterID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoPendingRequest
		}
		return fmt.Errorf("lookup friendship: %w", err)
	}
	// Only the recipient of a pending request may respond.
	if existing.Status != store.FriendStatusPending || existing.FriendID != userID {
		return ErrNoPendingRequest
	}

	switch action {
	case ActionAccept:
		if err := s.store.UpdateFriendStatus(ctx, existing.UserID, existing.FriendID, store.FriendStatusAccepted); err != nil {
			return fmt.Errorf("accept request: %w", err)
		}
	case ActionDecline:
		if err := s.store.DeleteFriendship(ctx, existing.UserID, existing.FriendID); err != nil {
			return fmt.Errorf("decline request: %w", err)
		}
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	return nil
}

// RemoveFriend removes an accepted friendship from either side.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	existing, err := s.store.GetFriendship(ctx, userID, friendID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFriends
		}
		return fmt.Errorf("lookup friendship: %w", err)
	}
	if existing.Status != store.FriendStatusAccepted {
		return ErrNotFriends
	}
	if err := s.store.DeleteFriendship(ctx, userID, friendID); err != nil {
		return fmt.Errorf("remove friend: %w", err)
	}
	return nil
}

// Block blocks another user. Any existing relationship is replaced by a
// block record owned by the blocking user.
func (s *Service) Block(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return ErrSelfReference
	}

	if _, err := s.store.GetUserByID(ctx, targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	existing, err := s.store.GetFriendship(ctx, userID, targetID)
	switch {
	case err == nil:
		if existing.Status == store.FriendStatusBlocked && existing.UserID == userID {
			return nil
		}
		if err := s.store.DeleteFriendship(ctx, existing.UserID, existing.FriendID); err != nil {
			return fmt.Errorf("replace relationship: %w", err)
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		return fmt.Errorf("lookup friendship: %w", err)
	}

	if _, err := s.store.CreateFriendRequest(ctx, userID, targetID); err != nil {
		return fmt.Errorf("create block record: %w", err)
	}
	if err := s.store.UpdateFriendStatus(ctx, userID, targetID, store.FriendStatusBlocked); err != nil {
		return fmt.Errorf("mark blocked: %w", err)
	}
	s.log.Debug().Int64("user", userID).Int64("target", targetID).Msg("user blocked")
	return nil
}

// Unblock removes a block owned by userID.
func (s *Service) Unblock(ctx context.Context, userID, targetID int64) error {
	existing, err := s.store.GetFriendship(ctx, userID, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotBlocked
		}
		return fmt.Errorf("lookup friendship: %w", err)
	}
	if existing.Status != store.FriendStatusBlocked || existing.UserID != userID {
		return ErrNotBlocked
	}
	return s.store.DeleteFriendship(ctx, userID, targetID)
}

// Friends returns all accepted friendships for a user.
func (s *Service) Friends(ctx context.Context, userID int64) ([]*store.Friend, error) {
	status := store.FriendStatusAccepted
	friends, err := s.store.ListFriends(ctx, userID, &status)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

// PendingRequests returns the user's pending requests split into those they
// sent and those sent to them.
func (s *Service) PendingRequests(ctx context.Context, userID int64) (sent, received []*store.Friend, err error) {
	status := store.FriendStatusPending
	all, err := s.store.ListFriends(ctx, userID, &status)
	if err != nil {
		return nil, nil, fmt.Errorf("list pending requests: %w", err)
	}

	for _, f := range all {
		if f.UserID == userID {
			sent = append(sent, f)
		} else {
			received = append(received, f)
		}
	}
	return sent, received, nil
}

// IsFriend checks if two users have an accepted friendship.
func (s *Service) IsFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	f, err := s.store.GetFriendship(ctx, userID, friendID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return f.Status == store.FriendStatusAccepted, nil
}
