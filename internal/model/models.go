// Package model defines the data models for the waifu bot.
package model

import "time"

// StartingBerries is the balance a user receives on registration.
const StartingBerries int64 = 1000

// User represents a Telegram user registered with the bot.
type User struct {
	UserID          int64      `bson:"user_id" db:"user_id"`
	Username        string     `bson:"username,omitempty" db:"username"`
	FirstName       string     `bson:"first_name" db:"first_name"`
	Berries         int64      `bson:"berries" db:"berries"`
	DailyStreak     int        `bson:"daily_streak" db:"daily_streak"`
	WeeklyStreak    int        `bson:"weekly_streak" db:"weekly_streak"`
	LastDailyClaim  *time.Time `bson:"last_daily_claim" db:"last_daily_claim"`
	FavoriteWaifuID *int64     `bson:"favorite_waifu_id" db:"favorite_waifu_id"`
	JoinedAt        time.Time  `bson:"joined_at" db:"joined_at"`
}

// NewUser builds the record created on first interaction.
func NewUser(userID int64, username, firstName string, now time.Time) *User {
	return &User{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		Berries:   StartingBerries,
		JoinedAt:  now,
	}
}

// DisplayName returns the first name, falling back to the handle.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// Waifu is a collectible catalog entry. The catalog is seeded out of band.
type Waifu struct {
	WaifuID  int64  `bson:"waifu_id" db:"waifu_id"`
	Name     string `bson:"name" db:"name"`
	Rarity   string `bson:"rarity" db:"rarity"`
	Anime    string `bson:"anime" db:"anime"`
	ImageURL string `bson:"image_url,omitempty" db:"image_url"`
}

// HaremEntry records that a user obtained a waifu.
// (UserID, WaifuID) is unique.
type HaremEntry struct {
	UserID     int64     `bson:"user_id" db:"user_id"`
	WaifuID    int64     `bson:"waifu_id" db:"waifu_id"`
	ObtainedAt time.Time `bson:"obtained_at" db:"obtained_at"`
}

// DailyClaim is the per-day claim key. (UserID, Day) is unique, which makes
// a second claim on the same calendar day fail at the storage layer.
type DailyClaim struct {
	UserID    int64     `bson:"user_id" db:"user_id"`
	Day       string    `bson:"day" db:"day"`
	ClaimedAt time.Time `bson:"claimed_at" db:"claimed_at"`
}

// DayLayout formats DailyClaim.Day.
const DayLayout = "2006-01-02"

// DayKey returns the claim key for the calendar day of t in its location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}
