package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipStatus is the derived state of a member's plan.
type MembershipStatus string

const (
	MembershipActive       MembershipStatus = "active"
	MembershipExpiringSoon MembershipStatus = "expiring soon"
	MembershipExpired      MembershipStatus = "expired"
)

// TrainerStatus is the derived state of a member's trainer assignment.
type TrainerStatus string

const (
	TrainerActive     TrainerStatus = "active"
	TrainerExpired    TrainerStatus = "expired"
	TrainerUnassigned TrainerStatus = "unassigned"
)

// DefaultExpiringWindowDays is how close to the end date a plan is flagged
// as expiring soon.
const DefaultExpiringWindowDays = 14

// Member is a gym customer.
type Member struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code    string             `bson:"code" json:"code"` // Human readable, e.g. "M001"
	Name    string             `bson:"name" json:"name"`
	Phone   string             `bson:"phone" json:"phone"`
	Email   string             `bson:"email,omitempty" json:"email,omitempty"`
	Address string             `bson:"address,omitempty" json:"address,omitempty"`

	JoinDate        time.Time `bson:"joinDate" json:"joinDate"`
	MembershipStart time.Time `bson:"membershipStart" json:"membershipStart"`
	MembershipEnd   time.Time `bson:"membershipEnd" json:"membershipEnd"`
	// Cached copy of the derived status. Never trusted on read.
	MembershipStatus MembershipStatus `bson:"membershipStatus" json:"membershipStatus"`

	TrainerAssigned        *primitive.ObjectID `bson:"trainerAssigned,omitempty" json:"trainerAssigned,omitempty"`
	TrainerAssignStartDate *time.Time          `bson:"trainerAssignStartDate,omitempty" json:"trainerAssignStartDate,omitempty"`
	TrainerAssignEndDate   *time.Time          `bson:"trainerAssignEndDate,omitempty" json:"trainerAssignEndDate,omitempty"`
	TrainerStatus          TrainerStatus       `bson:"trainerStatus,omitempty" json:"trainerStatus,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Lifecycle is the read-time view of a member's plan and trainer state.
type Lifecycle struct {
	MembershipStatus MembershipStatus
	MembershipDays   int // whole days left, 0 when expired
	TrainerStatus    TrainerStatus
	TrainerDays      int
}

// daysUntil counts whole days from now to end, truncating partial days.
func daysUntil(end, now time.Time) int {
	return int(end.Sub(now) / (24 * time.Hour))
}

// MembershipStatusAt derives the plan status for an end date.
func MembershipStatusAt(end, now time.Time, windowDays int) MembershipStatus {
	if !end.After(now) {
		return MembershipExpired
	}
	if daysUntil(end, now) <= windowDays {
		return MembershipExpiringSoon
	}
	return MembershipActive
}

// TrainerStatusAt derives the trainer assignment status. Only two live
// states exist; no assignment at all is reported as unassigned.
func TrainerStatusAt(trainer *primitive.ObjectID, end *time.Time, now time.Time) TrainerStatus {
	if trainer == nil || trainer.IsZero() || end == nil || end.IsZero() {
		return TrainerUnassigned
	}
	if end.After(now) {
		return TrainerActive
	}
	return TrainerExpired
}

// Lifecycle derives both statuses at the given instant.
func (m *Member) Lifecycle(now time.Time, windowDays int) Lifecycle {
	lc := Lifecycle{
		MembershipStatus: MembershipStatusAt(m.MembershipEnd, now, windowDays),
		TrainerStatus:    TrainerStatusAt(m.TrainerAssigned, m.TrainerAssignEndDate, now),
	}
	if lc.MembershipStatus != MembershipExpired {
		lc.MembershipDays = daysUntil(m.MembershipEnd, now)
	}
	if lc.TrainerStatus == TrainerActive {
		lc.TrainerDays = daysUntil(*m.TrainerAssignEndDate, now)
	}
	return lc
}

// Drifted reports whether the cached statuses disagree with lc.
func (m *Member) Drifted(lc Lifecycle) bool {
	return m.MembershipStatus != lc.MembershipStatus || m.TrainerStatus != lc.TrainerStatus
}

// HasActivePlanAt reports whether the current plan runs past t.
func (m *Member) HasActivePlanAt(t time.Time) bool {
	return !m.MembershipEnd.IsZero() && m.MembershipEnd.After(t)
}

// DaysLeftLabel renders the remaining time the way the front desk reads it.
func DaysLeftLabel(status MembershipStatus, days int) string {
	if status == MembershipExpired {
		return "Expired"
	}
	if days == 1 {
		return "1 day left"
	}
	return fmt.Sprintf("%d days left", days)
}

// AddMonths adds calendar months, normalising overflow the same way the
// date-picker does (Jan 31 + 1 month lands in early March).
func AddMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}
