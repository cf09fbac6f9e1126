package model

import "github.com/google/uuid"

type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleClient    Role = "client"
	RoleCandidate Role = "candidate"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleRecruiter, RoleClient, RoleCandidate, RoleSystem:
		return true
	}
	return false
}

// Actor is the resolved caller identity handed over by the admission boundary.
// ClientID is set for client-role callers and scopes them to their own jobs.
type Actor struct {
	AgencyID uuid.UUID  `json:"agency_id"`
	UserID   uuid.UUID  `json:"user_id"`
	Role     Role       `json:"role"`
	ClientID *uuid.UUID `json:"client_id,omitempty"`
	Name     string     `json:"name,omitempty"`
}

func SystemActor(agencyID uuid.UUID) Actor {
	return Actor{AgencyID: agencyID, Role: RoleSystem}
}

// TimelineActor maps the caller onto the timeline's performed_by columns.
func (a Actor) TimelineActor() (ActorType, *uuid.UUID) {
	var id *uuid.UUID
	if a.UserID != uuid.Nil {
		uid := a.UserID
		id = &uid
	}
	switch a.Role {
	case RoleRecruiter:
		return ActorRecruiter, id
	case RoleClient:
		return ActorClient, id
	case RoleCandidate:
		return ActorCandidate, id
	default:
		return ActorSystem, id
	}
}
