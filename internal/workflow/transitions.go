package workflow

import "github.com/abhishek622/hiregate/pkg/model"

// backEdges are the only moves against pipeline order that do not need force.
var backEdges = map[model.ApplicationStatus][]model.ApplicationStatus{
	model.StatusShortlisted:        {model.StatusUnderReview},
	model.StatusInterviewScheduled: {model.StatusUnderReview},
	model.StatusInterviewed:        {model.StatusUnderReview, model.StatusInterviewScheduled},
	model.StatusOfferSent:          {model.StatusOfferPending},
}

var transitions = buildTransitions()

func buildTransitions() map[model.ApplicationStatus]map[model.ApplicationStatus]bool {
	table := make(map[model.ApplicationStatus]map[model.ApplicationStatus]bool)
	for i, from := range model.Pipeline {
		if from.Terminal() {
			continue
		}
		next := make(map[model.ApplicationStatus]bool)
		for _, to := range model.Pipeline[i+1:] {
			next[to] = true
		}
		for _, to := range backEdges[from] {
			next[to] = true
		}
		next[model.StatusRejected] = true
		next[model.StatusWithdrawn] = true
		table[from] = next
	}
	return table
}

// CanTransition reports whether from → to is legal without force. Staying in
// the same status is always allowed.
func CanTransition(from, to model.ApplicationStatus) bool {
	if from == to {
		return true
	}
	return transitions[from][to]
}
