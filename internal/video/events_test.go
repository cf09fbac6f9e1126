package video

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func sign(secret, ts string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"meeting.ended","room_name":"r1"}`)
	now := time.Unix(1700000000, 0)
	good := sign("whsec", "1700000000", body)
	stale := sign("whsec", "1699999000", body)
	millis := sign("whsec", "1700000060000", body)

	tests := []struct {
		name    string
		secret  string
		ts      string
		sig     string
		wantErr bool
	}{
		{name: "valid", secret: "whsec", ts: "1700000000", sig: good},
		{name: "millisecond timestamp", secret: "whsec", ts: "1700000060000", sig: millis},
		{name: "no secret configured", secret: "", ts: "", sig: ""},
		{name: "tampered timestamp", secret: "whsec", ts: "1700000001", sig: good, wantErr: true},
		{name: "missing headers", secret: "whsec", wantErr: true},
		{name: "wrong secret", secret: "other", ts: "1700000000", sig: good, wantErr: true},
		{name: "replayed after tolerance", secret: "whsec", ts: "1699999000", sig: stale, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.secret, tt.ts, tt.sig, body, now)
			if tt.wantErr {
				if !errors.Is(err, ErrBadSignature) {
					t.Fatalf("expected ErrBadSignature, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestVerifySignatureRejectsUnparseableTimestamp(t *testing.T) {
	body := []byte(`{}`)
	err := VerifySignature("whsec", "yesterday", sign("whsec", "yesterday", body), body, time.Now())
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestParseEventLayouts(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		body      string
		typ       string
		room      string
		recording string
		duration  int
	}{
		{
			name: "flat",
			body: `{"event":"meeting.started","room_name":"client-round-1-abc"}`,
			typ:  "meeting.started", room: "client-round-1-abc",
		},
		{
			name: "legacy recording object",
			body: `{"event":"recording.ready","room_name":"r2","recording":{"id":"rec-9","duration":61.4}}`,
			typ:  "recording.ready", room: "r2", recording: "rec-9", duration: 61,
		},
		{
			name: "nested payload",
			body: `{"version":"1.0.0","type":"recording.ready-to-download","payload":{"recording_id":"rec-7","room_name":"r3","duration":1800}}`,
			typ:  "recording.ready", room: "r3", recording: "rec-7", duration: 1800,
		},
		{
			name: "nested payload short room key",
			body: `{"type":"meeting.ended","payload":{"room":"r4"}}`,
			typ:  "meeting.ended", room: "r4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.body), at)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if ev.Type != tt.typ || ev.RoomName != tt.room || ev.RecordingID != tt.recording || ev.Duration != tt.duration {
				t.Fatalf("unexpected event: %+v", ev)
			}
			if !ev.OccurredAt.Equal(at) {
				t.Fatalf("occurred_at not set")
			}
		})
	}

	if _, err := ParseEvent([]byte(`{"room_name":"x"}`), at); err == nil {
		t.Fatalf("expected error for untyped event")
	}
	if _, err := ParseEvent([]byte(`not json`), at); err == nil {
		t.Fatalf("expected decode error")
	}
}
