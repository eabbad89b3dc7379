// Package domain defines the persistence models for achievements, unlocks,
// and profiles. These types are mapped with GORM and form the core data layer
// of the achievements application.
package domain

import (
	"strconv"
	"strings"
	"time"
)

// Achievement is a predefined life milestone users can work toward. Rows are
// reference data: they are seeded from the admin catalog and are effectively
// read-only to the status and ranking paths.
//
// Fields:
//   - ID: numeric surrogate key (autoincrement).
//   - Code: optional stable external identifier (e.g. "EXP_BORN"); unique
//     when present. Clients address achievements by Code, falling back to the
//     decimal ID for rows without one (see PublicID).
//   - Category: one of INT, WLT, VIT, SOC, EXP.
//   - BasePoints: points awarded on completion; never negative.
//   - Difficulty: easy | normal | hard | unmeasurable.
//   - EstimatedTime: day | week | month | year | over.
//   - Tags: optional comma-separated free-form labels used for catalog
//     filtering (e.g. "health,habit").
//   - AllowedStatuses: optional comma-separated subset of the display
//     statuses; empty means all three are permitted. A restricted set always
//     contains "locked" so the achievement can start unachieved.
type Achievement struct {
	ID              uint      `json:"id"               gorm:"primaryKey;autoIncrement"`
	Code            *string   `json:"code,omitempty"   gorm:"type:varchar(64);uniqueIndex"`
	Category        string    `json:"category"         gorm:"type:varchar(8);not null;index"`
	Title           string    `json:"title"            gorm:"type:varchar(255);not null"`
	Description     string    `json:"description"      gorm:"type:text"`
	BasePoints      int       `json:"points"           gorm:"not null;default:0;check:base_points >= 0"`
	Difficulty      string    `json:"difficulty"       gorm:"type:varchar(16);not null;default:'normal'"`
	EstimatedTime   string    `json:"time"             gorm:"type:varchar(16);not null;default:'over'"`
	IconPath        string    `json:"icon"             gorm:"type:varchar(255)"`
	IsOfficial      bool      `json:"is_official"      gorm:"not null;default:true"`
	Tags            string    `json:"tags,omitempty"   gorm:"type:varchar(255)"`
	AllowedStatuses string    `json:"allowed_statuses,omitempty" gorm:"type:varchar(64)"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for Achievement.
func (Achievement) TableName() string { return "achievements" }

// PublicID returns the identifier exposed to clients: the external code when
// assigned, otherwise the decimal form of the surrogate key.
func (a Achievement) PublicID() string {
	if a.Code != nil && *a.Code != "" {
		return *a.Code
	}
	return strconv.FormatUint(uint64(a.ID), 10)
}

// TagList splits the comma-separated Tags column into clean labels. Blank
// segments are dropped; an untagged achievement yields nil.
func (a Achievement) TagList() []string {
	if strings.TrimSpace(a.Tags) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(a.Tags, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// AllowedDisplayStatuses returns the display statuses a caller may request
// for this achievement. An empty AllowedStatuses column means no restriction.
func (a Achievement) AllowedDisplayStatuses() []DisplayStatus {
	if strings.TrimSpace(a.AllowedStatuses) == "" {
		return AllDisplayStatuses()
	}
	var out []DisplayStatus
	for _, p := range strings.Split(a.AllowedStatuses, ",") {
		s := DisplayStatus(strings.TrimSpace(p))
		if s.Valid() {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return AllDisplayStatuses()
	}
	return out
}

// Allows reports whether the given display status may be requested for this
// achievement.
func (a Achievement) Allows(s DisplayStatus) bool {
	for _, allowed := range a.AllowedDisplayStatuses() {
		if allowed == s {
			return true
		}
	}
	return false
}

// Unlock records one user's progress on one achievement. At most one row
// exists per (user, achievement) pair; the absence of a row means the
// achievement is locked for that user. Rows are deleted, never written with a
// locked-equivalent status, so the two representations cannot coexist.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID / AchievementID: composite identity (unique pair).
//   - Status: persisted vocabulary (DROPPED, CHALLENGING, COMPLETED).
//   - UnlockedAt: set only while Status is COMPLETED, otherwise null.
type Unlock struct {
	ID            string     `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string     `json:"user_id"        gorm:"type:varchar(64);not null;index;uniqueIndex:ux_unlock_user_achievement,priority:1"`
	AchievementID uint       `json:"achievement_id" gorm:"not null;uniqueIndex:ux_unlock_user_achievement,priority:2"`
	Status        string     `json:"status"         gorm:"type:varchar(16);not null;check:status IN ('DROPPED','CHALLENGING','COMPLETED')"`
	UnlockedAt    *time.Time `json:"unlocked_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Achievement is the milestone this row tracks. Unlocks are
	// cascade-deleted if the achievement is removed.
	Achievement Achievement `json:"-" gorm:"foreignKey:AchievementID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Unlock.
func (Unlock) TableName() string { return "unlocks" }

// Profile holds user-owned display data. The primary key is the subject
// issued by the identity provider. Profiles are created lazily: on the first
// profile read or the first status-changing action.
type Profile struct {
	ID          string    `json:"id"           gorm:"type:varchar(64);primaryKey"`
	DisplayName *string   `json:"display_name" gorm:"type:varchar(120)"`
	AvatarURL   *string   `json:"avatar_url"   gorm:"type:varchar(255)"`
	IsPublic    bool      `json:"is_public"    gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }
