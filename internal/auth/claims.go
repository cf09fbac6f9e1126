package auth

import (
	"fmt"
	"time"

	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ActorClaims carries the caller's tenant, role and identity. Tokens are
// minted by the identity service; this service only verifies them.
type ActorClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	AgencyID uuid.UUID  `json:"agency_id"`
	Role     model.Role `json:"role"`
	ClientID *uuid.UUID `json:"client_id,omitempty"`
	Name     string     `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func NewActorClaims(actor model.Actor, duration time.Duration) (*ActorClaims, error) {
	tokenID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("error generating token iD: %w", err)
	}
	now := time.Now()
	return &ActorClaims{
		UserID:   actor.UserID,
		AgencyID: actor.AgencyID,
		Role:     actor.Role,
		ClientID: actor.ClientID,
		Name:     actor.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID.String(),
			Subject:   actor.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}, nil
}

// Actor resolves the claims into a caller identity. System actors cannot be
// impersonated through a token.
func (c *ActorClaims) Actor() (model.Actor, error) {
	if c.AgencyID == uuid.Nil {
		return model.Actor{}, fmt.Errorf("token has no agency")
	}
	if c.UserID == uuid.Nil {
		return model.Actor{}, fmt.Errorf("token has no user")
	}
	switch c.Role {
	case model.RoleRecruiter, model.RoleCandidate:
	case model.RoleClient:
		if c.ClientID == nil || *c.ClientID == uuid.Nil {
			return model.Actor{}, fmt.Errorf("client token has no client_id")
		}
	default:
		return model.Actor{}, fmt.Errorf("token role %q is not allowed", c.Role)
	}
	return model.Actor{
		AgencyID: c.AgencyID,
		UserID:   c.UserID,
		Role:     c.Role,
		ClientID: c.ClientID,
		Name:     c.Name,
	}, nil
}
