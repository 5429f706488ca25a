package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"aqua-waifu-bot/internal/config"
	"aqua-waifu-bot/internal/model"
	"aqua-waifu-bot/internal/repository"
)

// Daily claim errors.
var (
	ErrNotRegistered    = errors.New("user is not registered")
	ErrCatalogEmpty     = errors.New("waifu catalog is empty")
	ErrWaifuUnavailable = errors.New("selected waifu is unavailable")
)

// CooldownError is returned when the user already claimed today.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("daily claim on cooldown for %dh %dm", e.Hours(), e.Minutes())
}

// Hours returns the whole hours left.
func (e *CooldownError) Hours() int {
	return int(e.Remaining / time.Hour)
}

// Minutes returns the whole minutes left past Hours.
func (e *CooldownError) Minutes() int {
	return int(e.Remaining % time.Hour / time.Minute)
}

// Rand picks the catalog offset and the duplicate reward.
type Rand interface {
	// Int64N returns a uniform value in [0, n).
	Int64N(n int64) int64
}

type globalRand struct{}

func (globalRand) Int64N(n int64) int64 { return rand.Int64N(n) }

// ClaimResult describes a successful daily claim.
type ClaimResult struct {
	Waifu     model.Waifu
	Duplicate bool
	Reward    int64
	User      *model.User
}

// DailyService runs the daily claim transaction.
type DailyService struct {
	store  *repository.Store
	cfg    config.DailyConfig
	loc    *time.Location
	now    Clock
	random Rand
}

// NewDailyService creates a new DailyService instance. A nil clock means
// time.Now and a nil rng means the math/rand/v2 global source.
func NewDailyService(store *repository.Store, cfg config.DailyConfig, clock Clock, rng Rand) (*DailyService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if cfg.DuplicateMin > cfg.DuplicateMax {
		return nil, fmt.Errorf("duplicate reward range [%d, %d] is empty", cfg.DuplicateMin, cfg.DuplicateMax)
	}
	if clock == nil {
		clock = time.Now
	}
	if rng == nil {
		rng = globalRand{}
	}
	return &DailyService{store: store, cfg: cfg, loc: loc, now: clock, random: rng}, nil
}

// Claim draws a random waifu for the user. Once per calendar day in the
// configured location. A new waifu joins the harem and pays the fixed
// reward; a duplicate pays a random reward from the duplicate range.
//
// Errors: ErrNotRegistered, *CooldownError, ErrCatalogEmpty,
// ErrWaifuUnavailable, or a wrapped storage error.
func (s *DailyService) Claim(ctx context.Context, userID int64) (*ClaimResult, error) {
	now := s.now().In(s.loc)

	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if user.LastDailyClaim != nil && !user.LastDailyClaim.Before(midnight) {
		return nil, s.cooldown(now)
	}

	count, err := s.store.Waifus.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count waifus: %w", err)
	}
	if count == 0 {
		return nil, ErrCatalogEmpty
	}

	waifu, err := s.store.Waifus.GetByOffset(ctx, s.random.Int64N(count))
	if err != nil {
		if errors.Is(err, repository.ErrWaifuNotFound) {
			return nil, ErrWaifuUnavailable
		}
		return nil, fmt.Errorf("failed to select waifu: %w", err)
	}

	day := model.DayKey(now)
	err = s.store.Claims.Reserve(ctx, model.DailyClaim{UserID: userID, Day: day, ClaimedAt: now})
	if err != nil {
		if errors.Is(err, repository.ErrClaimExists) {
			return nil, s.cooldown(now)
		}
		return nil, fmt.Errorf("failed to reserve daily claim: %w", err)
	}

	result, err := s.apply(ctx, userID, waifu, now)
	if err != nil {
		s.release(ctx, userID, day)
		return nil, err
	}
	return result, nil
}

func (s *DailyService) apply(ctx context.Context, userID int64, waifu *model.Waifu, now time.Time) (*ClaimResult, error) {
	created, err := s.store.Harems.AddIfAbsent(ctx, model.HaremEntry{
		UserID:     userID,
		WaifuID:    waifu.WaifuID,
		ObtainedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add harem entry: %w", err)
	}

	reward := s.cfg.NewReward
	if !created {
		reward = s.cfg.DuplicateMin + s.random.Int64N(s.cfg.DuplicateMax-s.cfg.DuplicateMin+1)
	}

	// A harem entry added above stays if this fails
	user, err := s.store.Users.ApplyDailyClaim(ctx, userID, reward, now)
	if err != nil {
		return nil, fmt.Errorf("failed to apply daily claim: %w", err)
	}

	log.Ctx(ctx).Info().
		Int64("user_id", userID).
		Int64("waifu_id", waifu.WaifuID).
		Bool("duplicate", !created).
		Int64("reward", reward).
		Int64("berries", user.Berries).
		Msg("Daily waifu claimed")

	return &ClaimResult{Waifu: *waifu, Duplicate: !created, Reward: reward, User: user}, nil
}

// release drops the reservation so the user can retry today.
func (s *DailyService) release(ctx context.Context, userID int64, day string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.store.Claims.Release(ctx, userID, day); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Str("day", day).Msg("Failed to release daily claim")
	}
}

func (s *DailyService) cooldown(now time.Time) *CooldownError {
	tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, s.loc)
	return &CooldownError{Remaining: tomorrow.Sub(now)}
}
