package campaign

import (
	"fmt"
	"strings"
	"time"

	"github.com/jwkim-lab/revisit/internal/apperr"
)

// Status is the lifecycle state of a campaign.
//
//	PENDING -> RESERVED -> VISITED -> DONE
//
// CANCELED is reachable from any non-terminal state. DONE and CANCELED are
// terminal: no transition leaves them, including Cancel.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusReserved Status = "RESERVED"
	StatusVisited  Status = "VISITED"
	StatusDone     Status = "DONE"
	StatusCanceled Status = "CANCELED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(s)); st {
	case StatusPending, StatusReserved, StatusVisited, StatusDone, StatusCanceled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidArgument, s)
}

func (s Status) terminal() bool {
	return s == StatusDone || s == StatusCanceled
}

// Campaign is a sponsored store-visit engagement owned by a single user.
// Transition methods are pure: they mutate the in-memory entity only and
// never perform I/O, so callers persist and emit events after the fact.
type Campaign struct {
	ID     int64
	UserID int64

	PlatformID   int64
	PlatformName string
	CategoryID   *int64

	RewardEnabled  bool
	RewardPolicyID *int64

	StoreName  string
	StorePhone string
	Address    string

	SupportAmount *int64
	ExtraCost     *int64
	ReceiptReview bool

	ExperienceStartDate time.Time
	ExperienceEndDate   time.Time
	Deadline            time.Time
	VisitDate           *time.Time

	// AvailableDays is a comma-joined list of weekday names, stored exactly
	// as submitted: no dedup, no reordering.
	AvailableDays string
	AvailableTime string

	Status    Status
	ReviewURL *string

	CreatedAt time.Time
}

// Reserve moves PENDING -> RESERVED and records the visit date.
func (c *Campaign) Reserve(visitDate time.Time) error {
	if c.Status != StatusPending {
		return fmt.Errorf("%w: reserve requires PENDING, got %s", apperr.ErrInvalidStateTransition, c.Status)
	}
	if visitDate.IsZero() {
		return fmt.Errorf("%w: visit date is required", apperr.ErrInvalidArgument)
	}
	c.Status = StatusReserved
	c.VisitDate = &visitDate
	return nil
}

// Visit moves RESERVED -> VISITED.
func (c *Campaign) Visit() error {
	if c.Status != StatusReserved {
		return fmt.Errorf("%w: visit requires RESERVED, got %s", apperr.ErrInvalidStateTransition, c.Status)
	}
	c.Status = StatusVisited
	return nil
}

// Complete moves VISITED -> DONE without a review.
func (c *Campaign) Complete() error {
	if c.Status != StatusVisited {
		return fmt.Errorf("%w: complete requires VISITED, got %s", apperr.ErrInvalidStateTransition, c.Status)
	}
	c.Status = StatusDone
	return nil
}

// CompleteReview moves VISITED -> DONE and records the review URL. The
// review-submitted event is published by the caller after persistence, not
// here.
func (c *Campaign) CompleteReview(reviewURL string) error {
	if c.Status != StatusVisited {
		return fmt.Errorf("%w: review requires VISITED, got %s", apperr.ErrInvalidStateTransition, c.Status)
	}
	c.ReviewURL = &reviewURL
	c.Status = StatusDone
	return nil
}

// Cancel moves any non-terminal state to CANCELED. Cancel from DONE or
// CANCELED is rejected: terminal means terminal.
func (c *Campaign) Cancel() error {
	if c.Status.terminal() {
		return fmt.Errorf("%w: cancel from terminal %s", apperr.ErrInvalidStateTransition, c.Status)
	}
	c.Status = StatusCanceled
	return nil
}

// Action tags a requested lifecycle transition.
type Action string

const (
	ActionReserve  Action = "RESERVE"
	ActionVisit    Action = "VISIT"
	ActionComplete Action = "COMPLETE"
	ActionCancel   Action = "CANCEL"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToUpper(s)); a {
	case ActionReserve, ActionVisit, ActionComplete, ActionCancel:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", apperr.ErrInvalidArgument, s)
}

// transitions maps each action to its entity method, keeping dispatch
// exhaustive and flat instead of a conditional ladder. RESERVE takes the
// visit date, the rest ignore it.
var transitions = map[Action]func(*Campaign, *time.Time) error{
	ActionReserve: func(c *Campaign, visitDate *time.Time) error {
		if visitDate == nil {
			return fmt.Errorf("%w: visit date is required for RESERVE", apperr.ErrInvalidArgument)
		}
		return c.Reserve(*visitDate)
	},
	ActionVisit:    func(c *Campaign, _ *time.Time) error { return c.Visit() },
	ActionComplete: func(c *Campaign, _ *time.Time) error { return c.Complete() },
	ActionCancel:   func(c *Campaign, _ *time.Time) error { return c.Cancel() },
}

// Apply dispatches an action to the matching transition.
func (c *Campaign) Apply(action Action, visitDate *time.Time) error {
	fn, ok := transitions[action]
	if !ok {
		return fmt.Errorf("%w: unknown action %q", apperr.ErrInvalidArgument, action)
	}
	return fn(c, visitDate)
}

// JoinDays renders a weekday list into the stored CSV form.
func JoinDays(days []string) string {
	return strings.Join(days, ",")
}

// SplitDays parses the stored CSV form back into a list, preserving the
// submitted order.
func SplitDays(csv string) []string {
	if csv == "" {
		return []string{}
	}
	return strings.Split(csv, ",")
}
