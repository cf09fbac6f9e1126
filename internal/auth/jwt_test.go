package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestCreateAndVerifyToken(t *testing.T) {
	maker := NewJWTMaker(secret)
	client := uuid.New()
	actor := model.Actor{AgencyID: uuid.New(), UserID: uuid.New(), Role: model.RoleClient, ClientID: &client, Name: "Acme HR"}

	token, _, err := maker.CreateToken(actor, time.Minute)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	claims, err := maker.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	got, err := claims.Actor()
	if err != nil {
		t.Fatalf("actor: %v", err)
	}
	if got.AgencyID != actor.AgencyID || got.UserID != actor.UserID || got.Role != model.RoleClient || *got.ClientID != client {
		t.Fatalf("unexpected actor: %+v", got)
	}
}

func TestVerifyTokenRejects(t *testing.T) {
	maker := NewJWTMaker(secret)
	actor := model.Actor{AgencyID: uuid.New(), UserID: uuid.New(), Role: model.RoleRecruiter}

	expired, _, _ := maker.CreateToken(actor, -time.Minute)
	if _, err := maker.VerifyToken(expired); err == nil {
		t.Fatalf("expired token accepted")
	}

	other, _, _ := NewJWTMaker(strings.Repeat("x", 32)).CreateToken(actor, time.Minute)
	if _, err := maker.VerifyToken(other); err == nil {
		t.Fatalf("token signed with another key accepted")
	}

	claims, _ := NewActorClaims(actor, time.Minute)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := maker.VerifyToken(none); err == nil {
		t.Fatalf("unsigned token accepted")
	}
}

func TestClaimsActorValidation(t *testing.T) {
	base := func() *ActorClaims {
		return &ActorClaims{AgencyID: uuid.New(), UserID: uuid.New(), Role: model.RoleRecruiter}
	}
	tests := []struct {
		name   string
		mutate func(c *ActorClaims)
	}{
		{name: "no agency", mutate: func(c *ActorClaims) { c.AgencyID = uuid.Nil }},
		{name: "no user", mutate: func(c *ActorClaims) { c.UserID = uuid.Nil }},
		{name: "system role", mutate: func(c *ActorClaims) { c.Role = model.RoleSystem }},
		{name: "unknown role", mutate: func(c *ActorClaims) { c.Role = "admin" }},
		{name: "client without client id", mutate: func(c *ActorClaims) { c.Role = model.RoleClient }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			if _, err := c.Actor(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
