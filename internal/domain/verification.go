package domain

import (
	"time"
)

// VerificationRequest asks a peer to approve evidence for a completed part.
type VerificationRequest struct {
	ID          string     `bson:"_id" json:"id" db:"id"`
	RequesterID string     `bson:"requester" json:"requester" db:"requester"`
	ApproverID  string     `bson:"approver" json:"approver" db:"approver"`
	ChallengeID string     `bson:"challengeId" json:"challengeId" db:"challenge_id"` // denormalized from the part
	PartID      string     `bson:"partId" json:"partId" db:"part_id"`
	Evidence    string     `bson:"evidence" json:"evidence" db:"evidence"` // opaque reference, usually an object key
	Approved    bool       `bson:"approved" json:"approved" db:"approved"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt" db:"created_at"`
	ApprovedAt  *time.Time `bson:"approvedAt,omitempty" json:"approvedAt,omitempty" db:"approved_at"`
}
