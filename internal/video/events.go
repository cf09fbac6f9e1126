package video

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/abhishek622/hiregate/pkg/model"
)

var ErrBadSignature = errors.New("video provider signature mismatch")

// SignatureTolerance bounds how far a signed timestamp may drift from the
// receiver's clock. Older callbacks are treated as replays.
const SignatureTolerance = 5 * time.Minute

// VerifySignature checks a provider webhook signed as
// base64(hmac_sha256(secret, timestamp + "." + body)) and rejects timestamps
// more than SignatureTolerance away from now. An empty secret disables
// verification.
func VerifySignature(secret, timestamp, signature string, body []byte, now time.Time) error {
	if secret == "" {
		return nil
	}
	if signature == "" || timestamp == "" {
		return fmt.Errorf("%w: missing signature headers", ErrBadSignature)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrBadSignature
	}
	signedAt, err := parseTimestamp(timestamp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if d := now.Sub(signedAt); d > SignatureTolerance || d < -SignatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrBadSignature)
	}
	return nil
}

// parseTimestamp reads unix seconds, or milliseconds for large values.
func parseTimestamp(v string) (time.Time, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", v)
	}
	if n > 1e12 {
		return time.UnixMilli(n), nil
	}
	return time.Unix(n, 0), nil
}

type rawRecording struct {
	ID          string  `json:"id"`
	RecordingID string  `json:"recording_id"`
	RoomName    string  `json:"room_name"`
	Duration    float64 `json:"duration"`
	DownloadURL string  `json:"download_link"`
}

type rawEvent struct {
	Event       string        `json:"event"`
	Type        string        `json:"type"`
	RoomName    string        `json:"room_name"`
	RecordingID string        `json:"recording_id"`
	Duration    float64       `json:"duration"`
	Error       string        `json:"error"`
	Recording   *rawRecording `json:"recording"`
	Payload     *struct {
		RoomName     string  `json:"room"`
		RoomNameAlt  string  `json:"room_name"`
		RecordingID  string  `json:"recording_id"`
		ID           string  `json:"id"`
		Duration     float64 `json:"duration"`
		DownloadURL  string  `json:"download_link"`
		ErrorMessage string  `json:"error_msg"`
	} `json:"payload"`
}

// ParseEvent normalizes the provider's webhook body. The provider has shipped
// a flat legacy layout and a nested {"type", "payload"} layout; both map onto
// the same model.ProviderEvent.
func ParseEvent(body []byte, receivedAt time.Time) (model.ProviderEvent, error) {
	var raw rawEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.ProviderEvent{}, fmt.Errorf("decode provider event: %w", err)
	}
	ev := model.ProviderEvent{
		Type:        raw.Event,
		RoomName:    raw.RoomName,
		RecordingID: raw.RecordingID,
		Duration:    int(raw.Duration),
		Error:       raw.Error,
		OccurredAt:  receivedAt,
	}
	if ev.Type == "" {
		ev.Type = raw.Type
	}
	if ev.Type == "recording.ready-to-download" {
		ev.Type = "recording.ready"
	}
	if p := raw.Payload; p != nil {
		ev.RoomName = firstNonEmpty(ev.RoomName, p.RoomNameAlt, p.RoomName)
		ev.RecordingID = firstNonEmpty(ev.RecordingID, p.RecordingID, p.ID)
		if ev.Duration == 0 {
			ev.Duration = int(p.Duration)
		}
		ev.DownloadURL = firstNonEmpty(ev.DownloadURL, p.DownloadURL)
		ev.Error = firstNonEmpty(ev.Error, p.ErrorMessage)
	}
	if r := raw.Recording; r != nil {
		ev.RoomName = firstNonEmpty(ev.RoomName, r.RoomName)
		ev.RecordingID = firstNonEmpty(ev.RecordingID, r.ID, r.RecordingID)
		if ev.Duration == 0 {
			ev.Duration = int(r.Duration)
		}
		ev.DownloadURL = firstNonEmpty(ev.DownloadURL, r.DownloadURL)
	}
	if ev.Type == "" {
		return ev, errors.New("provider event has no type")
	}
	return ev, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
