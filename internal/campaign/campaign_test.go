package campaign

import (
	"errors"
	"testing"
	"time"

	"github.com/jwkim-lab/revisit/internal/apperr"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestReserve_FromPending(t *testing.T) {
	c := &Campaign{Status: StatusPending}
	visit := date("2024-03-10")

	if err := c.Reserve(visit); err != nil {
		t.Fatal(err)
	}
	if c.Status != StatusReserved {
		t.Fatalf("status = %s, want RESERVED", c.Status)
	}
	if c.VisitDate == nil || !c.VisitDate.Equal(visit) {
		t.Fatalf("visitDate = %v, want %v", c.VisitDate, visit)
	}
}

func TestReserve_WithoutVisitDate(t *testing.T) {
	c := &Campaign{Status: StatusPending}
	err := c.Reserve(time.Time{})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if c.Status != StatusPending {
		t.Fatalf("status changed to %s on failed reserve", c.Status)
	}
}

func TestReserve_FromNonPending(t *testing.T) {
	for _, st := range []Status{StatusReserved, StatusVisited, StatusDone, StatusCanceled} {
		c := &Campaign{Status: st}
		err := c.Reserve(date("2024-03-10"))
		if !errors.Is(err, apperr.ErrInvalidStateTransition) {
			t.Fatalf("reserve from %s: err = %v, want ErrInvalidStateTransition", st, err)
		}
		if c.Status != st {
			t.Fatalf("reserve from %s mutated status to %s", st, c.Status)
		}
	}
}

func TestVisit_OnlyFromReserved(t *testing.T) {
	c := &Campaign{Status: StatusReserved}
	if err := c.Visit(); err != nil {
		t.Fatal(err)
	}
	if c.Status != StatusVisited {
		t.Fatalf("status = %s, want VISITED", c.Status)
	}

	for _, st := range []Status{StatusPending, StatusVisited, StatusDone, StatusCanceled} {
		c := &Campaign{Status: st}
		if err := c.Visit(); !errors.Is(err, apperr.ErrInvalidStateTransition) {
			t.Fatalf("visit from %s: err = %v", st, err)
		}
	}
}

func TestComplete_OnlyFromVisited(t *testing.T) {
	c := &Campaign{Status: StatusVisited}
	if err := c.Complete(); err != nil {
		t.Fatal(err)
	}
	if c.Status != StatusDone {
		t.Fatalf("status = %s, want DONE", c.Status)
	}
	if c.ReviewURL != nil {
		t.Fatal("complete must not set reviewUrl")
	}

	for _, st := range []Status{StatusPending, StatusReserved, StatusDone, StatusCanceled} {
		c := &Campaign{Status: st}
		if err := c.Complete(); !errors.Is(err, apperr.ErrInvalidStateTransition) {
			t.Fatalf("complete from %s: err = %v", st, err)
		}
	}
}

func TestCompleteReview_SetsURLAndDone(t *testing.T) {
	c := &Campaign{Status: StatusVisited}
	if err := c.CompleteReview("https://blog.example/review/1"); err != nil {
		t.Fatal(err)
	}
	if c.Status != StatusDone {
		t.Fatalf("status = %s, want DONE", c.Status)
	}
	if c.ReviewURL == nil || *c.ReviewURL != "https://blog.example/review/1" {
		t.Fatalf("reviewUrl = %v", c.ReviewURL)
	}
}

func TestCompleteReview_FromNonVisited(t *testing.T) {
	for _, st := range []Status{StatusPending, StatusReserved, StatusDone, StatusCanceled} {
		c := &Campaign{Status: st}
		err := c.CompleteReview("https://blog.example/review/1")
		if !errors.Is(err, apperr.ErrInvalidStateTransition) {
			t.Fatalf("review from %s: err = %v", st, err)
		}
		if c.ReviewURL != nil {
			t.Fatalf("review from %s set reviewUrl", st)
		}
	}
}

func TestCancel_FromNonTerminal(t *testing.T) {
	for _, st := range []Status{StatusPending, StatusReserved, StatusVisited} {
		c := &Campaign{Status: st}
		if err := c.Cancel(); err != nil {
			t.Fatalf("cancel from %s: %v", st, err)
		}
		if c.Status != StatusCanceled {
			t.Fatalf("cancel from %s left status %s", st, c.Status)
		}
	}
}

func TestCancel_FromTerminalStates(t *testing.T) {
	for _, st := range []Status{StatusDone, StatusCanceled} {
		c := &Campaign{Status: st}
		if err := c.Cancel(); !errors.Is(err, apperr.ErrInvalidStateTransition) {
			t.Fatalf("cancel from %s: err = %v, want ErrInvalidStateTransition", st, err)
		}
		if c.Status != st {
			t.Fatalf("cancel from %s mutated status to %s", st, c.Status)
		}
	}
}

func TestApply_Dispatch(t *testing.T) {
	visit := date("2024-03-10")

	c := &Campaign{Status: StatusPending}
	if err := c.Apply(ActionReserve, &visit); err != nil {
		t.Fatal(err)
	}
	if err := c.Apply(ActionVisit, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Apply(ActionComplete, nil); err != nil {
		t.Fatal(err)
	}
	if c.Status != StatusDone {
		t.Fatalf("status = %s, want DONE", c.Status)
	}
}

func TestApply_ReserveRequiresVisitDate(t *testing.T) {
	c := &Campaign{Status: StatusPending}
	if err := c.Apply(ActionReserve, nil); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestApply_CancelThenVisitFails(t *testing.T) {
	c := &Campaign{Status: StatusPending}
	if err := c.Apply(ActionCancel, nil); err != nil {
		t.Fatal(err)
	}
	if c.Status != StatusCanceled {
		t.Fatalf("status = %s, want CANCELED", c.Status)
	}
	if err := c.Visit(); !errors.Is(err, apperr.ErrInvalidStateTransition) {
		t.Fatalf("visit after cancel: err = %v", err)
	}
}

func TestParseAction(t *testing.T) {
	if _, err := ParseAction("reserve"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseAction("TEARDOWN"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestDays_RoundTripPreservesOrder(t *testing.T) {
	days := []string{"FRIDAY", "MONDAY", "MONDAY"}
	csv := JoinDays(days)
	if csv != "FRIDAY,MONDAY,MONDAY" {
		t.Fatalf("csv = %q", csv)
	}
	got := SplitDays(csv)
	if len(got) != 3 || got[0] != "FRIDAY" || got[1] != "MONDAY" || got[2] != "MONDAY" {
		t.Fatalf("round trip = %v", got)
	}
	if got := SplitDays(""); len(got) != 0 {
		t.Fatalf("empty csv = %v", got)
	}
}
