package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/internal/video"
	"github.com/abhishek622/hiregate/pkg"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

// VideoProvider is the conferencing backend. GetRoom returns (nil, nil) for a
// room the provider no longer knows, and DeleteRoom ignores missing rooms.
type VideoProvider interface {
	CreateRoom(ctx context.Context, spec video.RoomSpec) (*video.Room, error)
	GetRoom(ctx context.Context, name string) (*video.Room, error)
	DeleteRoom(ctx context.Context, name string) error
	MintToken(ctx context.Context, spec video.TokenSpec) (string, error)
}

type VideoPolicy struct {
	RoomTTL         time.Duration
	TokenTTL        time.Duration
	ScheduledMinTTL time.Duration
	ScheduledBuffer time.Duration
	MaxParticipants int
}

func DefaultVideoPolicy() VideoPolicy {
	return VideoPolicy{
		RoomTTL:         3 * time.Hour,
		TokenTTL:        2 * time.Hour,
		ScheduledMinTTL: 7 * 24 * time.Hour,
		ScheduledBuffer: 6 * time.Hour,
		MaxParticipants: 10,
	}
}

// RoomExpiry returns when a new room should expire. Client-led calls and
// calls scheduled in the future live at least ScheduledMinTTL and until
// ScheduledBuffer past the scheduled time. A scheduled time already in the
// past is ignored.
func (p VideoPolicy) RoomExpiry(now time.Time, ct model.CallType, scheduledFor *time.Time, expiresInHours int) time.Time {
	if scheduledFor != nil && !scheduledFor.After(now) {
		scheduledFor = nil
	}
	exp := now.Add(p.RoomTTL)
	if expiresInHours > 0 {
		exp = now.Add(time.Duration(expiresInHours) * time.Hour)
	}
	if !ct.ClientLed() && scheduledFor == nil {
		return exp
	}
	if floor := now.Add(p.ScheduledMinTTL); floor.After(exp) {
		exp = floor
	}
	if scheduledFor != nil {
		if after := scheduledFor.Add(p.ScheduledBuffer); after.After(exp) {
			exp = after
		}
	}
	return exp
}

func (p VideoPolicy) tokenExpiry(now, roomExpiry time.Time) time.Time {
	exp := now.Add(p.TokenTTL)
	if roomExpiry.Before(exp) {
		return roomExpiry
	}
	return exp
}

type SessionResult struct {
	Room *model.Room `json:"room"`
	model.CredentialSet
}

func (s *Service) CreateSession(ctx context.Context, actor model.Actor, req model.CreateSessionReq) (*SessionResult, error) {
	if err := requireRole(actor, model.RoleRecruiter); err != nil {
		return nil, err
	}
	ct, ok := model.ParseCallType(req.CallType)
	if !ok {
		return nil, apperr.Invalid("invalid call type", map[string]string{"call_type": "unknown call type " + req.CallType})
	}
	if req.ExpiresInHours < 0 || req.ExpiresInHours > 24*30 {
		return nil, apperr.Invalid("invalid expiry", map[string]string{"expires_in_hours": "must be between 0 and 720"})
	}

	app, err := s.loadApplication(ctx, s.store, actor, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if app.Status.Terminal() {
		return nil, apperr.New(apperr.CodeInvalidState, fmt.Sprintf("cannot schedule a call for an application in status %s", app.Status))
	}
	if req.InterviewID != nil {
		iv, err := s.store.GetInterview(ctx, *req.InterviewID)
		if err != nil && !apperr.Is(err, apperr.CodeNotFound) {
			return nil, err
		}
		// Interviews of other applications are reported like missing ones.
		if iv == nil || iv.ApplicationID != app.ID {
			return nil, apperr.NotFound("interview")
		}
	}

	candidateName := strings.TrimSpace(req.CandidateName)
	if candidateName == "" {
		candidateName, err = s.store.CandidateName(ctx, app.CandidateID)
		if err != nil || candidateName == "" {
			candidateName = "Candidate"
		}
	}
	hostName := s.hostName(ctx, actor, req.RecruiterName)
	hostUserID := req.RecruiterUserID
	if hostUserID == nil && actor.UserID != uuid.Nil {
		hostUserID = ptr(actor.UserID)
	}
	enableRecording := req.EnableRecording == nil || *req.EnableRecording
	enableTranscription := req.EnableTranscription == nil || *req.EnableTranscription

	now := s.now()
	expiresAt := s.opts.Video.RoomExpiry(now, ct, req.ScheduledFor, req.ExpiresInHours)
	roomName := pkg.GenerateRoomName(string(ct))
	pr, err := s.provider.CreateRoom(ctx, video.RoomSpec{
		Name:            roomName,
		Private:         true,
		ExpiresAt:       expiresAt,
		EnableRecording: enableRecording,
		MaxParticipants: s.opts.Video.MaxParticipants,
	})
	if err != nil {
		return nil, apperr.Internal("create provider room", err)
	}
	if pr.Name == "" {
		pr.Name = roomName
	}

	room := &model.Room{
		ID:                  uuid.New(),
		AgencyID:            app.AgencyID,
		ApplicationID:       app.ID,
		JobID:               app.JobID,
		InterviewID:         req.InterviewID,
		CallType:            ct,
		Title:               strings.TrimSpace(req.Title),
		ProviderRoomName:    pr.Name,
		ProviderRoomURL:     pr.URL,
		HostUserID:          hostUserID,
		HostName:            hostName,
		ParticipantName:     candidateName,
		Status:              model.RoomCreated,
		ShareWithClient:     ct.ClientLed(),
		ShareWithCandidate:  ct.ClientLed(),
		EnableRecording:     enableRecording,
		EnableTranscription: enableTranscription,
		ScheduledFor:        req.ScheduledFor,
		ExpiresAt:           expiresAt,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if room.Title == "" {
		room.Title = ct.Label() + " - " + candidateName
	}

	clientName := ""
	if ct.ClientLed() || req.IncludeClientToken {
		clientName = strings.TrimSpace(req.ClientName)
		if clientName == "" {
			clientName = "Client"
		}
	}
	creds, err := s.mintCredentials(ctx, room, clientName, now)
	if err != nil {
		s.discardProviderRoom(ctx, pr.Name)
		return nil, err
	}

	err = s.commit(ctx, func(tx Store) error {
		if err := tx.CreateRoom(ctx, room); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, room.AgencyID, model.EventVideoCallCreated, roomPayload(room))
	})
	if err != nil {
		s.discardProviderRoom(ctx, pr.Name)
		return nil, err
	}

	s.record(ctx, actor, app.ID, model.ActionVideoCallCreated, fmt.Sprintf("%s scheduled", room.Title), map[string]any{
		"room_id":       room.ID.String(),
		"call_type":     string(ct),
		"scheduled_for": room.ScheduledFor,
	})
	return &SessionResult{Room: room, CredentialSet: *creds}, nil
}

func (s *Service) hostName(ctx context.Context, actor model.Actor, requested string) string {
	if n := strings.TrimSpace(requested); n != "" {
		return n
	}
	if n := strings.TrimSpace(actor.Name); n != "" {
		return n
	}
	if n, err := s.store.AgencyName(ctx, actor.AgencyID); err == nil && n != "" {
		return n
	}
	return "Host"
}

// mintCredentials issues host and participant tokens, plus a client token when
// clientName is set. Tokens are returned to the caller and never stored.
func (s *Service) mintCredentials(ctx context.Context, room *model.Room, clientName string, now time.Time) (*model.CredentialSet, error) {
	exp := s.opts.Video.tokenExpiry(now, room.ExpiresAt)
	hostID := ""
	if room.HostUserID != nil {
		hostID = room.HostUserID.String()
	}

	mint := func(role model.CredentialRole, userID, name, label string, owner bool) (model.Credential, error) {
		tok, err := s.provider.MintToken(ctx, video.TokenSpec{
			RoomName:        room.ProviderRoomName,
			UserID:          userID,
			UserName:        fmt.Sprintf("%s (%s)", name, label),
			Owner:           owner,
			EnableRecording: owner && room.EnableRecording,
			ExpiresAt:       exp,
		})
		if err != nil {
			return model.Credential{}, apperr.Internal("mint "+string(role)+" token", err)
		}
		return model.Credential{
			Role:      role,
			Name:      name,
			Token:     tok,
			JoinURL:   room.ProviderRoomURL + "?t=" + tok,
			ExpiresAt: exp,
		}, nil
	}

	var set model.CredentialSet
	var err error
	if set.Host, err = mint(model.CredentialHost, hostID, room.HostName, "Recruiter", true); err != nil {
		return nil, err
	}
	if set.Participant, err = mint(model.CredentialParticipant, "", room.ParticipantName, "Candidate", false); err != nil {
		return nil, err
	}
	if clientName != "" {
		c, err := mint(model.CredentialClient, "", clientName, "Client", false)
		if err != nil {
			return nil, err
		}
		set.Client = &c
	}
	return &set, nil
}

func (s *Service) discardProviderRoom(ctx context.Context, name string) {
	if err := s.provider.DeleteRoom(ctx, name); err != nil {
		s.log.Sugar().Warnw("provider room cleanup failed", "room_name", name, "error", err)
	}
}

func roomPayload(room *model.Room) map[string]any {
	p := map[string]any{
		"room_id":          room.ID.String(),
		"application_id":   room.ApplicationID.String(),
		"job_id":           room.JobID.String(),
		"call_type":        string(room.CallType),
		"status":           string(room.Status),
		"duration_seconds": room.DurationSeconds,
	}
	if room.Outcome != nil {
		p["outcome"] = string(*room.Outcome)
	}
	if room.ScheduledFor != nil {
		p["scheduled_for"] = room.ScheduledFor.Format(time.RFC3339)
	}
	return p
}

func (s *Service) loadRoom(ctx context.Context, st Store, actor model.Actor, id uuid.UUID) (*model.Room, error) {
	room, err := st.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.AgencyID != actor.AgencyID {
		return nil, apperr.NotFound("video call")
	}
	return room, nil
}

func (s *Service) EndSession(ctx context.Context, actor model.Actor, roomID uuid.UUID, req model.EndSessionReq) (*model.Room, error) {
	if err := requireRole(actor, model.RoleRecruiter); err != nil {
		return nil, err
	}
	if req.Outcome != nil && !req.Outcome.Valid() {
		return nil, apperr.Invalid("invalid outcome", map[string]string{"outcome": "must be successful, no_show, rescheduled, cancelled or needs_followup"})
	}
	if _, err := s.loadRoom(ctx, s.store, actor, roomID); err != nil {
		return nil, err
	}
	return s.endRoom(ctx, actor, roomID, req)
}

func (s *Service) endRoom(ctx context.Context, actor model.Actor, roomID uuid.UUID, req model.EndSessionReq) (*model.Room, error) {
	var room *model.Room
	err := s.commit(ctx, func(tx Store) error {
		var err error
		room, err = tx.LockRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if room.Status == model.RoomEnded {
			return apperr.New(apperr.CodeInvalidState, "video call already ended")
		}
		now := s.now()
		room.Status = model.RoomEnded
		room.EndedAt = &now
		room.DurationSeconds = 0
		if room.StartedAt != nil && now.After(*room.StartedAt) {
			room.DurationSeconds = int(now.Sub(*room.StartedAt).Seconds())
		}
		if req.Outcome != nil {
			room.Outcome = req.Outcome
		}
		if req.Notes != nil {
			room.Notes = req.Notes
		}
		if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
			room.Title = strings.TrimSpace(*req.Title)
		}
		room.UpdatedAt = now
		if err := tx.UpdateRoom(ctx, room); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, room.AgencyID, model.EventVideoCallEnded, roomPayload(room))
	})
	if err != nil {
		return nil, err
	}

	s.discardProviderRoom(ctx, room.ProviderRoomName)
	s.propagateOutcome(ctx, room)

	meta := map[string]any{
		"room_id":          room.ID.String(),
		"duration_seconds": room.DurationSeconds,
	}
	if room.Outcome != nil {
		meta["outcome"] = string(*room.Outcome)
	}
	s.record(ctx, actor, room.ApplicationID, model.ActionVideoCallEnded, fmt.Sprintf("%s ended", room.Title), meta)
	return room, nil
}

// propagateOutcome copies the call result onto the linked interview record.
func (s *Service) propagateOutcome(ctx context.Context, room *model.Room) {
	if room.InterviewID == nil {
		return
	}
	var outcome *string
	if room.Outcome != nil {
		if mapped, ok := room.Outcome.InterviewOutcome(); ok {
			outcome = &mapped
		}
	}
	if outcome == nil && room.Notes == nil {
		return
	}
	if err := s.store.UpdateInterviewOutcome(ctx, *room.InterviewID, room.ApplicationID, outcome, room.Notes); err != nil {
		s.log.Sugar().Warnw("interview outcome update failed",
			"room_id", room.ID,
			"interview_id", *room.InterviewID,
			"error", err,
		)
	}
}

// IssueFreshCredentials re-mints join tokens for a live room. It returns nil
// when the room has ended or the provider no longer has it.
func (s *Service) IssueFreshCredentials(ctx context.Context, actor model.Actor, roomID uuid.UUID) (*model.CredentialSet, error) {
	if err := requireRole(actor, model.RoleRecruiter); err != nil {
		return nil, err
	}
	room, err := s.loadRoom(ctx, s.store, actor, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status == model.RoomEnded {
		return nil, nil
	}
	pr, err := s.provider.GetRoom(ctx, room.ProviderRoomName)
	if err != nil {
		s.log.Sugar().Warnw("provider room lookup failed", "room_id", room.ID, "error", err)
		return nil, nil
	}
	if pr == nil {
		return nil, nil
	}
	clientName := ""
	if room.CallType.ClientLed() {
		clientName = "Client"
	}
	return s.mintCredentials(ctx, room, clientName, s.now())
}

// DeleteSession discards a room that never started. Started rooms must be ended.
func (s *Service) DeleteSession(ctx context.Context, actor model.Actor, roomID uuid.UUID) error {
	if err := requireRole(actor, model.RoleRecruiter); err != nil {
		return err
	}
	var room *model.Room
	err := s.commit(ctx, func(tx Store) error {
		var err error
		room, err = s.loadRoom(ctx, tx, actor, roomID)
		if err != nil {
			return err
		}
		if room.Status != model.RoomCreated {
			return apperr.New(apperr.CodeInvalidState, "only video calls that never started can be deleted; end the call instead")
		}
		if err := tx.DeleteRoom(ctx, room.ID); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, room.AgencyID, model.EventVideoCallDeleted, roomPayload(room))
	})
	if err != nil {
		return err
	}

	s.discardProviderRoom(ctx, room.ProviderRoomName)
	s.record(ctx, actor, room.ApplicationID, model.ActionVideoCallDeleted, fmt.Sprintf("%s deleted", room.Title), map[string]any{
		"room_id": room.ID.String(),
	})
	return nil
}

func (s *Service) ListSessions(ctx context.Context, actor model.Actor, applicationID uuid.UUID) ([]model.RoomView, error) {
	app, err := s.loadApplication(ctx, s.store, actor, applicationID)
	if err != nil {
		return nil, err
	}
	rooms, err := s.store.ListRoomDetails(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	view, err := FilterForAudience(app, rooms, AudienceFor(actor.Role))
	if err != nil {
		return nil, err
	}
	return view.Rooms, nil
}

// HandleProviderEvent applies a provider webhook. Events for unknown rooms and
// unknown event types are acknowledged and ignored.
func (s *Service) HandleProviderEvent(ctx context.Context, ev model.ProviderEvent) error {
	room, err := s.store.GetRoomByProviderName(ctx, ev.RoomName)
	if apperr.Is(err, apperr.CodeNotFound) {
		s.log.Sugar().Infow("provider event for unknown room", "event", ev.Type, "room_name", ev.RoomName)
		return nil
	}
	if err != nil {
		return err
	}
	actor := model.SystemActor(room.AgencyID)
	at := ev.OccurredAt
	if at.IsZero() {
		at = s.now()
	}

	switch ev.Type {
	case "meeting.started":
		started := false
		err := s.commit(ctx, func(tx Store) error {
			locked, err := tx.LockRoom(ctx, room.ID)
			if err != nil {
				return err
			}
			if locked.Status != model.RoomCreated {
				return nil
			}
			room = locked
			room.Status = model.RoomActive
			room.StartedAt = &at
			room.UpdatedAt = s.now()
			if err := tx.UpdateRoom(ctx, room); err != nil {
				return err
			}
			started = true
			return s.enqueue(ctx, tx, room.AgencyID, model.EventVideoCallStarted, roomPayload(room))
		})
		if err != nil || !started {
			return err
		}
		s.record(ctx, actor, room.ApplicationID, model.ActionVideoCallStarted, fmt.Sprintf("%s started", room.Title), map[string]any{
			"room_id": room.ID.String(),
		})
		return nil

	case "meeting.ended":
		if room.Status == model.RoomEnded {
			return nil
		}
		_, err := s.endRoom(ctx, actor, room.ID, model.EndSessionReq{})
		return err

	case "recording.started", "recording.ready", "recording.error":
		return s.upsertRecording(ctx, actor, room, ev)
	}
	return nil
}

func (s *Service) upsertRecording(ctx context.Context, actor model.Actor, room *model.Room, ev model.ProviderEvent) error {
	rec := &model.Recording{
		ID:                  uuid.New(),
		RoomID:              room.ID,
		Status:              model.RecordingPending,
		ProviderRecordingID: ev.RecordingID,
		SharedWithClient:    room.ShareWithClient,
		SharedWithCandidate: room.ShareWithCandidate,
		CreatedAt:           s.now(),
		UpdatedAt:           s.now(),
	}
	switch ev.Type {
	case "recording.ready":
		rec.Status = model.RecordingReady
		rec.DurationSeconds = ev.Duration
		if ev.DownloadURL != "" {
			rec.DownloadURL = ptr(ev.DownloadURL)
		}
	case "recording.error":
		rec.Status = model.RecordingError
	}

	err := s.commit(ctx, func(tx Store) error {
		locked, err := tx.LockRoom(ctx, room.ID)
		if err != nil {
			return err
		}
		rec.SharedWithClient = locked.ShareWithClient
		rec.SharedWithCandidate = locked.ShareWithCandidate
		if err := tx.UpsertRecording(ctx, rec); err != nil {
			return err
		}
		if rec.Status != model.RecordingReady {
			return nil
		}
		payload := roomPayload(room)
		payload["recording_id"] = rec.ProviderRecordingID
		payload["recording_duration"] = rec.DurationSeconds
		return s.enqueue(ctx, tx, room.AgencyID, model.EventRecordingReady, payload)
	})
	if err != nil {
		return err
	}
	if rec.Status == model.RecordingError {
		s.log.Sugar().Warnw("provider recording failed", "room_id", room.ID, "error", ev.Error)
	}
	if rec.Status == model.RecordingReady {
		s.record(ctx, actor, room.ApplicationID, model.ActionRecordingReady, fmt.Sprintf("Recording ready for %s", room.Title), map[string]any{
			"room_id":  room.ID.String(),
			"duration": rec.DurationSeconds,
		})
	}
	return nil
}

// AttachTranscript stores a transcript produced out of band. It inherits the
// room's current sharing flags.
func (s *Service) AttachTranscript(ctx context.Context, actor model.Actor, roomID uuid.UUID, req model.TranscriptReq) (*model.Transcript, error) {
	if err := requireRole(actor, model.RoleRecruiter, model.RoleSystem); err != nil {
		return nil, err
	}
	room, err := s.loadRoom(ctx, s.store, actor, roomID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	tr := &model.Transcript{
		ID:                  uuid.New(),
		RoomID:              room.ID,
		Status:              model.TranscriptPending,
		FullText:            req.FullText,
		Summary:             req.Summary,
		KeyPoints:           req.KeyPoints,
		SharedWithClient:    room.ShareWithClient,
		SharedWithCandidate: room.ShareWithCandidate,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if tr.KeyPoints == nil {
		tr.KeyPoints = []string{}
	}
	if req.FullText != nil && strings.TrimSpace(*req.FullText) != "" {
		tr.Status = model.TranscriptReady
	}

	err = s.commit(ctx, func(tx Store) error {
		locked, err := tx.LockRoom(ctx, room.ID)
		if err != nil {
			return err
		}
		tr.SharedWithClient = locked.ShareWithClient
		tr.SharedWithCandidate = locked.ShareWithCandidate
		if err := tx.UpsertTranscript(ctx, tr); err != nil {
			return err
		}
		if tr.Status != model.TranscriptReady {
			return nil
		}
		return s.enqueue(ctx, tx, room.AgencyID, model.EventTranscriptReady, roomPayload(room))
	})
	if err != nil {
		return nil, err
	}
	if tr.Status == model.TranscriptReady {
		s.record(ctx, actor, room.ApplicationID, model.ActionTranscriptReady, fmt.Sprintf("Transcript ready for %s", room.Title), map[string]any{
			"room_id": room.ID.String(),
		})
	}
	return tr, nil
}
