package domain

import (
	"time"
)

// CreatorType distinguishes who issued a challenge.
type CreatorType string

const (
	CreatorUser  CreatorType = "User"
	CreatorGroup CreatorType = "Group"
)

// Valid reports whether t is one of the known creator kinds.
func (t CreatorType) Valid() bool {
	return t == CreatorUser || t == CreatorGroup
}

// Challenge is an exercise commitment split into weekly parts.
// The roster lives in its own collection (see Participant).
type Challenge struct {
	ID          string      `bson:"_id" json:"id" db:"id"`
	CreatorType CreatorType `bson:"creatorType" json:"creatorType" db:"creator_type"`
	Creator     string      `bson:"creator" json:"creator" db:"creator"` // User or Group ID, never both
	Exercise    string      `bson:"exercise" json:"exercise" db:"exercise"`
	Reps        *int        `bson:"reps,omitempty" json:"reps,omitempty" db:"reps"`
	Sets        *int        `bson:"sets,omitempty" json:"sets,omitempty" db:"sets"`
	Weight      *float64    `bson:"weight,omitempty" json:"weight,omitempty" db:"weight"` // kg
	Minutes     *float64    `bson:"minutes,omitempty" json:"minutes,omitempty" db:"minutes"`
	Frequency   int         `bson:"frequency" json:"frequency" db:"frequency"` // parts per week
	Duration    int         `bson:"duration" json:"duration" db:"duration"`    // weeks
	Level       int         `bson:"level" json:"level" db:"level"`
	Points      int         `bson:"points" json:"points" db:"points"`                // per part
	BonusPoints int         `bson:"bonusPoints" json:"bonusPoints" db:"bonus_points"` // whole challenge
	Open        bool        `bson:"open" json:"open" db:"open"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `bson:"updatedAt" json:"updatedAt" db:"updated_at"`
}

// TotalParts is the number of parts scheduled for the challenge.
func (c *Challenge) TotalParts() int {
	return c.Frequency * c.Duration
}

// IsCreatedBy reports whether the given identity of the given kind created c.
func (c *Challenge) IsCreatedBy(kind CreatorType, id string) bool {
	return c.CreatorType == kind && c.Creator == id
}

// Participant is one roster entry, unique per (challenge, user).
type Participant struct {
	ChallengeID    string    `bson:"challengeId" json:"challengeId" db:"challenge_id"`
	UserID         string    `bson:"userId" json:"userId" db:"user_id"`
	Accepted       bool      `bson:"accepted" json:"accepted" db:"accepted"`
	Completed      bool      `bson:"completed" json:"completed" db:"completed"`
	CompletedParts int       `bson:"completedParts" json:"completedParts" db:"completed_parts"` // progress counter
	InvitedAt      time.Time `bson:"invitedAt" json:"invitedAt" db:"invited_at"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt" db:"updated_at"`
}
