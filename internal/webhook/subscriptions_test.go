package webhook

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

func recruiter(agency uuid.UUID) model.Actor {
	return model.Actor{AgencyID: agency, UserID: uuid.New(), Role: model.RoleRecruiter}
}

func TestCreateSubscription(t *testing.T) {
	store := newFakeStore()
	svc := NewSubscriptions(store, plainBox{})
	agency := uuid.New()

	res, err := svc.Create(context.Background(), recruiter(agency), model.CreateWebhookReq{
		URL:    "https://hooks.example.com/hiring",
		Events: []string{"offer.*", model.EventApplicationStatusChanged},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(res.Secret, "whsec_") {
		t.Fatalf("unexpected secret %q", res.Secret)
	}
	stored := store.subs[res.ID]
	if stored.EncryptedSecret != "enc:"+res.Secret {
		t.Fatalf("secret not stored encrypted: %q", stored.EncryptedSecret)
	}
	if !stored.Active || stored.AgencyID != agency {
		t.Fatalf("unexpected subscription: %+v", stored)
	}

	list, err := svc.List(context.Background(), recruiter(agency))
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
}

func TestCreateSubscriptionValidation(t *testing.T) {
	svc := NewSubscriptions(newFakeStore(), plainBox{})
	agency := uuid.New()

	tests := []struct {
		name  string
		req   model.CreateWebhookReq
		field string
	}{
		{name: "relative url", req: model.CreateWebhookReq{URL: "/hook", Events: []string{"*"}}, field: "url"},
		{name: "bad scheme", req: model.CreateWebhookReq{URL: "ftp://x.example", Events: []string{"*"}}, field: "url"},
		{name: "no events", req: model.CreateWebhookReq{URL: "https://x.example"}, field: "events"},
		{name: "unknown event", req: model.CreateWebhookReq{URL: "https://x.example", Events: []string{"payroll.run"}}, field: "events"},
		{name: "unknown wildcard", req: model.CreateWebhookReq{URL: "https://x.example", Events: []string{"payroll.*"}}, field: "events"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), recruiter(agency), tt.req)
			var ae *apperr.Error
			if !errors.As(err, &ae) || ae.Code != apperr.CodeInvalidArgument {
				t.Fatalf("expected invalid argument, got %v", err)
			}
			if _, ok := ae.Fields[tt.field]; !ok {
				t.Fatalf("expected field %q in %v", tt.field, ae.Fields)
			}
		})
	}
}

func TestSubscriptionsRecruiterOnly(t *testing.T) {
	svc := NewSubscriptions(newFakeStore(), plainBox{})
	client := model.Actor{AgencyID: uuid.New(), Role: model.RoleClient}

	_, err := svc.Create(context.Background(), client, model.CreateWebhookReq{URL: "https://x.example", Events: []string{"*"}})
	if !apperr.Is(err, apperr.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.List(context.Background(), client); !apperr.Is(err, apperr.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeliveriesScopedToAgency(t *testing.T) {
	store := newFakeStore()
	svc := NewSubscriptions(store, plainBox{})
	owner := uuid.New()

	res, err := svc.Create(context.Background(), recruiter(owner), model.CreateWebhookReq{URL: "https://x.example", Events: []string{"*"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Deliveries(context.Background(), recruiter(uuid.New()), res.ID, 10); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected not found for foreign agency, got %v", err)
	}
	if _, err := svc.Deliveries(context.Background(), recruiter(owner), res.ID, 10); err != nil {
		t.Fatalf("deliveries: %v", err)
	}
	if err := svc.Delete(context.Background(), recruiter(uuid.New()), res.ID); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected not found deleting foreign webhook, got %v", err)
	}
	if err := svc.Delete(context.Background(), recruiter(owner), res.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestSignVerify(t *testing.T) {
	body := []byte(`{"event":"offer.sent"}`)
	sig := Sign("whsec_abc", body)
	if !Verify("whsec_abc", body, sig) {
		t.Fatalf("own signature rejected")
	}
	if Verify("whsec_other", body, sig) {
		t.Fatalf("signature accepted with wrong secret")
	}
	if Verify("whsec_abc", []byte(`{"event":"offer.sent" }`), sig) {
		t.Fatalf("signature accepted for altered body")
	}
}
