package workflow

import (
	"testing"

	"github.com/abhishek622/hiregate/pkg/model"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to model.ApplicationStatus
		want     bool
	}{
		{model.StatusSubmitted, model.StatusUnderReview, true},
		{model.StatusSubmitted, model.StatusInterviewScheduled, true},
		{model.StatusShortlisted, model.StatusUnderReview, true},
		{model.StatusInterviewed, model.StatusInterviewScheduled, true},
		{model.StatusOfferSent, model.StatusOfferPending, true},
		{model.StatusOfferSent, model.StatusHired, true},
		{model.StatusInterviewed, model.StatusRejected, true},
		{model.StatusInvited, model.StatusWithdrawn, true},
		{model.StatusOfferAccepted, model.StatusSubmitted, false},
		{model.StatusUnderReview, model.StatusInvited, false},
		{model.StatusHired, model.StatusInvited, false},
		{model.StatusRejected, model.StatusUnderReview, false},
		{model.StatusWithdrawn, model.StatusSubmitted, false},
		{model.StatusHired, model.StatusRejected, false},
		{model.StatusHired, model.StatusHired, true},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, from := range []model.ApplicationStatus{model.StatusHired, model.StatusRejected, model.StatusWithdrawn} {
		for _, to := range model.Pipeline {
			if from != to && CanTransition(from, to) {
				t.Errorf("terminal %s must not move to %s", from, to)
			}
		}
	}
}
