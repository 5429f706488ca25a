// Package service provides the game logic behind the bot commands.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"aqua-waifu-bot/internal/model"
	"aqua-waifu-bot/internal/repository"
)

// Clock returns the current time.
type Clock func() time.Time

// AccountService handles registration and balance queries.
type AccountService struct {
	users  repository.UserRepository
	harems repository.HaremRepository
	now    Clock
}

// NewAccountService creates a new AccountService instance. A nil clock
// means time.Now.
func NewAccountService(store *repository.Store, clock Clock) *AccountService {
	if clock == nil {
		clock = time.Now
	}
	return &AccountService{
		users:  store.Users,
		harems: store.Harems,
		now:    clock,
	}
}

// EnsureUser returns the user, creating the record on first interaction.
// The bool reports whether the record was created by this call. A changed
// handle or first name is refreshed best-effort.
func (s *AccountService) EnsureUser(ctx context.Context, userID int64, username, firstName string) (*model.User, bool, error) {
	user, created, err := s.users.GetOrCreate(ctx, model.NewUser(userID, username, firstName, s.now()))
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user: %w", err)
	}

	if created {
		log.Ctx(ctx).Info().Int64("user_id", userID).Str("first_name", firstName).Msg("New user registered")
		return user, true, nil
	}

	if (username != "" && user.Username != username) || (firstName != "" && user.FirstName != firstName) {
		if username == "" {
			username = user.Username
		}
		if firstName == "" {
			firstName = user.FirstName
		}
		if err := s.users.UpdateProfile(ctx, userID, username, firstName); err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Failed to refresh user profile")
		} else {
			user.Username = username
			user.FirstName = firstName
		}
	}
	return user, false, nil
}

// Balance is the summary shown by the balance command.
type Balance struct {
	FirstName    string
	Berries      int64
	DailyStreak  int
	WeeklyStreak int
	Waifus       int64
}

// GetBalance returns the balance summary. It returns an error wrapping
// repository.ErrUserNotFound if the user is not registered.
func (s *AccountService) GetBalance(ctx context.Context, userID int64) (*Balance, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	count, err := s.harems.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count waifus: %w", err)
	}

	return &Balance{
		FirstName:    user.DisplayName(),
		Berries:      user.Berries,
		DailyStreak:  user.DailyStreak,
		WeeklyStreak: user.WeeklyStreak,
		Waifus:       count,
	}, nil
}
