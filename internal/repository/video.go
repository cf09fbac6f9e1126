package repository

import (
	"context"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/internal/workflow"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const roomCols = `
	id, agency_id, application_id, job_id, interview_id, call_type, title,
	provider_room_name, provider_room_url, host_user_id, host_name, participant_name,
	status, outcome, notes, share_with_client, share_with_candidate,
	enable_recording, enable_transcription, scheduled_for, started_at, ended_at,
	duration_seconds, expires_at, created_at, updated_at`

func scanRoom(row pgx.Row) (*model.Room, error) {
	var m model.Room
	err := row.Scan(
		&m.ID, &m.AgencyID, &m.ApplicationID, &m.JobID, &m.InterviewID, &m.CallType, &m.Title,
		&m.ProviderRoomName, &m.ProviderRoomURL, &m.HostUserID, &m.HostName, &m.ParticipantName,
		&m.Status, &m.Outcome, &m.Notes, &m.ShareWithClient, &m.ShareWithCandidate,
		&m.EnableRecording, &m.EnableTranscription, &m.ScheduledFor, &m.StartedAt, &m.EndedAt,
		&m.DurationSeconds, &m.ExpiresAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *WorkflowRepository) CreateRoom(ctx context.Context, m *model.Room) error {
	const q = `
INSERT INTO video_rooms (` + roomCols + `
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
	$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
)`
	_, err := r.db.Exec(ctx, q,
		m.ID, m.AgencyID, m.ApplicationID, m.JobID, m.InterviewID, m.CallType, m.Title,
		m.ProviderRoomName, m.ProviderRoomURL, m.HostUserID, m.HostName, m.ParticipantName,
		m.Status, m.Outcome, m.Notes, m.ShareWithClient, m.ShareWithCandidate,
		m.EnableRecording, m.EnableTranscription, m.ScheduledFor, m.StartedAt, m.EndedAt,
		m.DurationSeconds, m.ExpiresAt, m.CreatedAt, m.UpdatedAt,
	)
	return dbErr(err, "video call")
}

func (r *WorkflowRepository) GetRoom(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	m, err := scanRoom(r.db.QueryRow(ctx, `SELECT`+roomCols+` FROM video_rooms WHERE id = $1`, id))
	if err != nil {
		return nil, dbErr(err, "video call")
	}
	return m, nil
}

func (r *WorkflowRepository) LockRoom(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	m, err := scanRoom(r.db.QueryRow(ctx, `SELECT`+roomCols+` FROM video_rooms WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, dbErr(err, "video call")
	}
	return m, nil
}

func (r *WorkflowRepository) GetRoomByProviderName(ctx context.Context, name string) (*model.Room, error) {
	m, err := scanRoom(r.db.QueryRow(ctx, `SELECT`+roomCols+` FROM video_rooms WHERE provider_room_name = $1`, name))
	if err != nil {
		return nil, dbErr(err, "video call")
	}
	return m, nil
}

func (r *WorkflowRepository) UpdateRoom(ctx context.Context, m *model.Room) error {
	const q = `
UPDATE video_rooms SET
	title = $2, status = $3, outcome = $4, notes = $5,
	started_at = $6, ended_at = $7, duration_seconds = $8, updated_at = $9
WHERE id = $1
`
	tag, err := r.db.Exec(ctx, q,
		m.ID, m.Title, m.Status, m.Outcome, m.Notes,
		m.StartedAt, m.EndedAt, m.DurationSeconds, m.UpdatedAt,
	)
	if err != nil {
		return dbErr(err, "video call")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("video call")
	}
	return nil
}

// DeleteRoom removes the room; recordings and transcripts go with it via
// ON DELETE CASCADE.
func (r *WorkflowRepository) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM video_rooms WHERE id = $1`, id)
	if err != nil {
		return dbErr(err, "video call")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("video call")
	}
	return nil
}

func (r *WorkflowRepository) ListRoomDetails(ctx context.Context, applicationID uuid.UUID) ([]model.RoomDetail, error) {
	rows, err := r.db.Query(ctx,
		`SELECT`+roomCols+` FROM video_rooms WHERE application_id = $1 ORDER BY created_at`, applicationID)
	if err != nil {
		return nil, dbErr(err, "video calls")
	}
	out := []model.RoomDetail{}
	index := map[uuid.UUID]int{}
	ids := []uuid.UUID{}
	for rows.Next() {
		m, err := scanRoom(rows)
		if err != nil {
			rows.Close()
			return nil, dbErr(err, "video calls")
		}
		index[m.ID] = len(out)
		ids = append(ids, m.ID)
		out = append(out, model.RoomDetail{Room: *m})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "video calls")
	}
	if len(ids) == 0 {
		return out, nil
	}

	recs, err := r.recordingsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		out[index[recs[i].RoomID]].Recording = &recs[i]
	}
	trs, err := r.transcriptsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range trs {
		out[index[trs[i].RoomID]].Transcript = &trs[i]
	}
	return out, nil
}

func (r *WorkflowRepository) recordingsFor(ctx context.Context, roomIDs []uuid.UUID) ([]model.Recording, error) {
	const q = `
SELECT id, room_id, status, duration_seconds, provider_recording_id, download_url,
	shared_with_client, shared_with_candidate, created_at, updated_at
FROM video_recordings WHERE room_id = ANY($1)
`
	rows, err := r.db.Query(ctx, q, roomIDs)
	if err != nil {
		return nil, dbErr(err, "recordings")
	}
	defer rows.Close()
	var out []model.Recording
	for rows.Next() {
		var rec model.Recording
		if err := rows.Scan(&rec.ID, &rec.RoomID, &rec.Status, &rec.DurationSeconds, &rec.ProviderRecordingID,
			&rec.DownloadURL, &rec.SharedWithClient, &rec.SharedWithCandidate, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, dbErr(err, "recordings")
		}
		out = append(out, rec)
	}
	return out, dbErr(rows.Err(), "recordings")
}

func (r *WorkflowRepository) transcriptsFor(ctx context.Context, roomIDs []uuid.UUID) ([]model.Transcript, error) {
	const q = `
SELECT id, room_id, status, full_text, summary, key_points,
	shared_with_client, shared_with_candidate, created_at, updated_at
FROM video_transcripts WHERE room_id = ANY($1)
`
	rows, err := r.db.Query(ctx, q, roomIDs)
	if err != nil {
		return nil, dbErr(err, "transcripts")
	}
	defer rows.Close()
	var out []model.Transcript
	for rows.Next() {
		var tr model.Transcript
		if err := rows.Scan(&tr.ID, &tr.RoomID, &tr.Status, &tr.FullText, &tr.Summary, &tr.KeyPoints,
			&tr.SharedWithClient, &tr.SharedWithCandidate, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
			return nil, dbErr(err, "transcripts")
		}
		out = append(out, tr)
	}
	return out, dbErr(rows.Err(), "transcripts")
}

// SetRoomSharing flips one audience flag on the room and its artifacts in a
// single transaction.
func (r *WorkflowRepository) SetRoomSharing(ctx context.Context, roomID, applicationID uuid.UUID, audience workflow.Audience, shared bool) error {
	var roomCol, artifactCol string
	switch audience {
	case workflow.AudienceClient:
		roomCol, artifactCol = "share_with_client", "shared_with_client"
	case workflow.AudienceCandidate:
		roomCol, artifactCol = "share_with_candidate", "shared_with_candidate"
	default:
		return apperr.Invalid("invalid audience", map[string]string{"audience": "must be client or candidate"})
	}

	return r.inTx(ctx, func(c conn) error {
		tag, err := c.db.Exec(ctx,
			`UPDATE video_rooms SET `+roomCol+` = $3, updated_at = now() WHERE id = $1 AND application_id = $2`,
			roomID, applicationID, shared)
		if err != nil {
			return dbErr(err, "video call")
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("video call")
		}
		if _, err := c.db.Exec(ctx,
			`UPDATE video_recordings SET `+artifactCol+` = $2, updated_at = now() WHERE room_id = $1`, roomID, shared); err != nil {
			return dbErr(err, "recording")
		}
		if _, err := c.db.Exec(ctx,
			`UPDATE video_transcripts SET `+artifactCol+` = $2, updated_at = now() WHERE room_id = $1`, roomID, shared); err != nil {
			return dbErr(err, "transcript")
		}
		return nil
	})
}

// UpsertRecording keeps one recording row per room.
func (r *WorkflowRepository) UpsertRecording(ctx context.Context, rec *model.Recording) error {
	const q = `
INSERT INTO video_recordings (
	id, room_id, status, duration_seconds, provider_recording_id, download_url,
	shared_with_client, shared_with_candidate, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (room_id) DO UPDATE SET
	status = EXCLUDED.status,
	duration_seconds = EXCLUDED.duration_seconds,
	provider_recording_id = EXCLUDED.provider_recording_id,
	download_url = EXCLUDED.download_url,
	shared_with_client = EXCLUDED.shared_with_client,
	shared_with_candidate = EXCLUDED.shared_with_candidate,
	updated_at = EXCLUDED.updated_at
RETURNING id, created_at
`
	err := r.db.QueryRow(ctx, q,
		rec.ID, rec.RoomID, rec.Status, rec.DurationSeconds, rec.ProviderRecordingID, rec.DownloadURL,
		rec.SharedWithClient, rec.SharedWithCandidate, rec.CreatedAt, rec.UpdatedAt,
	).Scan(&rec.ID, &rec.CreatedAt)
	return dbErr(err, "recording")
}

func (r *WorkflowRepository) UpsertTranscript(ctx context.Context, tr *model.Transcript) error {
	const q = `
INSERT INTO video_transcripts (
	id, room_id, status, full_text, summary, key_points,
	shared_with_client, shared_with_candidate, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (room_id) DO UPDATE SET
	status = EXCLUDED.status,
	full_text = EXCLUDED.full_text,
	summary = EXCLUDED.summary,
	key_points = EXCLUDED.key_points,
	shared_with_client = EXCLUDED.shared_with_client,
	shared_with_candidate = EXCLUDED.shared_with_candidate,
	updated_at = EXCLUDED.updated_at
RETURNING id, created_at
`
	keyPoints := tr.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}
	err := r.db.QueryRow(ctx, q,
		tr.ID, tr.RoomID, tr.Status, tr.FullText, tr.Summary, keyPoints,
		tr.SharedWithClient, tr.SharedWithCandidate, tr.CreatedAt, tr.UpdatedAt,
	).Scan(&tr.ID, &tr.CreatedAt)
	return dbErr(err, "transcript")
}

func (r *WorkflowRepository) GetInterview(ctx context.Context, id uuid.UUID) (*model.LinkedInterview, error) {
	const q = `
SELECT id, application_id, status, outcome, interviewer_notes
FROM interviews WHERE id = $1
`
	var iv model.LinkedInterview
	err := r.db.QueryRow(ctx, q, id).Scan(&iv.ID, &iv.ApplicationID, &iv.Status, &iv.Outcome, &iv.InterviewerNotes)
	if err != nil {
		return nil, dbErr(err, "interview")
	}
	return &iv, nil
}

// UpdateInterviewOutcome copies a call's outcome onto the linked interview.
// A non-nil outcome also marks the interview completed. Interviews of other
// applications are left alone and reported as not found.
func (r *WorkflowRepository) UpdateInterviewOutcome(ctx context.Context, interviewID, applicationID uuid.UUID, outcome, notes *string) error {
	const q = `
UPDATE interviews SET
	outcome = COALESCE($2, outcome),
	status = CASE WHEN $2::text IS NULL THEN status ELSE 'completed' END,
	interviewer_notes = COALESCE($3, interviewer_notes),
	updated_at = now()
WHERE id = $1 AND application_id = $4
`
	tag, err := r.db.Exec(ctx, q, interviewID, outcome, notes, applicationID)
	if err != nil {
		return dbErr(err, "interview")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("interview")
	}
	return nil
}
