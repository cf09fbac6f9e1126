package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrNotConfigured = errors.New("video provider api key is not configured")

// Client talks to a Daily-style conferencing REST API.
type Client struct {
	apiKey string
	base   string
	http   *http.Client
}

func NewClient(apiKey, base string, timeout time.Duration) *Client {
	if base == "" {
		base = "https://api.daily.co/v1"
	}
	return &Client{
		apiKey: apiKey,
		base:   base,
		http:   &http.Client{Timeout: timeout},
	}
}

type RoomSpec struct {
	Name            string
	Private         bool
	ExpiresAt       time.Time
	EnableRecording bool
	MaxParticipants int
}

type Room struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Privacy string `json:"privacy"`
}

type TokenSpec struct {
	RoomName        string
	UserID          string
	UserName        string
	Owner           bool
	EnableRecording bool
	ExpiresAt       time.Time
}

type roomProperties struct {
	Exp               int64  `json:"exp"`
	MaxParticipants   int    `json:"max_participants"`
	EnableChat        bool   `json:"enable_chat"`
	EnableScreenshare bool   `json:"enable_screenshare"`
	EnableRecording   string `json:"enable_recording,omitempty"`
	EnablePrejoinUI   bool   `json:"enable_prejoin_ui"`
	EnableKnocking    bool   `json:"enable_knocking"`
	EjectAtRoomExp    bool   `json:"eject_at_room_exp"`
}

type createRoomRequest struct {
	Name       string         `json:"name"`
	Privacy    string         `json:"privacy"`
	Properties roomProperties `json:"properties"`
}

type tokenProperties struct {
	RoomName          string `json:"room_name"`
	UserID            string `json:"user_id,omitempty"`
	UserName          string `json:"user_name,omitempty"`
	IsOwner           bool   `json:"is_owner"`
	Exp               int64  `json:"exp"`
	EnableRecordingUI bool   `json:"enable_recording_ui"`
	EnableScreenshare bool   `json:"enable_screenshare"`
}

type errorBody struct {
	Error string `json:"error"`
	Info  string `json:"info"`
}

func (c *Client) CreateRoom(ctx context.Context, spec RoomSpec) (*Room, error) {
	privacy := "public"
	if spec.Private {
		privacy = "private"
	}
	maxParticipants := spec.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = 10
	}
	req := createRoomRequest{
		Name:    spec.Name,
		Privacy: privacy,
		Properties: roomProperties{
			Exp:               spec.ExpiresAt.Unix(),
			MaxParticipants:   maxParticipants,
			EnableChat:        true,
			EnableScreenshare: true,
			EjectAtRoomExp:    true,
		},
	}
	if spec.EnableRecording {
		req.Properties.EnableRecording = "cloud"
	}

	var room Room
	status, err := c.do(ctx, http.MethodPost, "/rooms", req, &room)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	if status >= 300 {
		return nil, fmt.Errorf("create room: unexpected status %d", status)
	}
	return &room, nil
}

// GetRoom returns nil without error when the provider no longer knows the room.
func (c *Client) GetRoom(ctx context.Context, name string) (*Room, error) {
	var room Room
	status, err := c.do(ctx, http.MethodGet, "/rooms/"+name, nil, &room)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &room, nil
}

// DeleteRoom treats a missing room as already deleted.
func (c *Client) DeleteRoom(ctx context.Context, name string) error {
	status, err := c.do(ctx, http.MethodDelete, "/rooms/"+name, nil, nil)
	if status == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

func (c *Client) MintToken(ctx context.Context, spec TokenSpec) (string, error) {
	body := map[string]tokenProperties{
		"properties": {
			RoomName:          spec.RoomName,
			UserID:            spec.UserID,
			UserName:          spec.UserName,
			IsOwner:           spec.Owner,
			Exp:               spec.ExpiresAt.Unix(),
			EnableRecordingUI: spec.EnableRecording,
			EnableScreenshare: true,
		},
	}
	var out struct {
		Token string `json:"token"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/meeting-tokens", body, &out); err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("mint token: empty token in response")
	}
	return out.Token, nil
}

// do sends one request and decodes a JSON response into out. The HTTP status is
// returned even when err is non-nil so callers can special-case 404.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	if c.apiKey == "" {
		return 0, ErrNotConfigured
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	r, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return 0, err
	}
	r.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(r)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.Unmarshal(bodyBytes, &eb)
		msg := eb.Info
		if msg == "" {
			msg = eb.Error
		}
		if msg == "" {
			msg = string(bodyBytes)
		}
		return resp.StatusCode, fmt.Errorf("provider api error (%d): %s", resp.StatusCode, msg)
	}

	if out != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode error: %w", err)
		}
	}
	return resp.StatusCode, nil
}
