package workflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/abhishek622/hiregate/internal/apperr"
	"github.com/abhishek622/hiregate/internal/video"
	"github.com/abhishek622/hiregate/pkg/model"
	"github.com/google/uuid"
)

type fakeStore struct {
	mu sync.Mutex

	apps          map[uuid.UUID]model.Application
	jobs          map[uuid.UUID]JobOwner
	candidates    map[uuid.UUID]string
	agencies      map[uuid.UUID]string
	feedback      map[uuid.UUID]model.ClientFeedback
	rooms         map[uuid.UUID]model.Room
	recordings    map[uuid.UUID]model.Recording
	transcripts   map[uuid.UUID]model.Transcript
	interviews    map[uuid.UUID]model.LinkedInterview
	offers        map[uuid.UUID]model.Offer
	counters      []model.CounterOffer
	timeline      []model.TimelineEntry
	events        []model.OutboxEvent
	notifications []model.Notification

	failSharing  map[uuid.UUID]bool
	failTimeline bool
	// afterRoomLookup runs once a provider-name lookup has returned, standing
	// in for a concurrent request that lands before the caller writes back.
	afterRoomLookup func(room model.Room)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		apps:        make(map[uuid.UUID]model.Application),
		jobs:        make(map[uuid.UUID]JobOwner),
		candidates:  make(map[uuid.UUID]string),
		agencies:    make(map[uuid.UUID]string),
		feedback:    make(map[uuid.UUID]model.ClientFeedback),
		rooms:       make(map[uuid.UUID]model.Room),
		recordings:  make(map[uuid.UUID]model.Recording),
		transcripts: make(map[uuid.UUID]model.Transcript),
		interviews:  make(map[uuid.UUID]model.LinkedInterview),
		offers:      make(map[uuid.UUID]model.Offer),
		failSharing: make(map[uuid.UUID]bool),
	}
}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(f)
}

func (f *fakeStore) GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return nil, apperr.NotFound("application")
	}
	return &app, nil
}

func (f *fakeStore) FindApplication(ctx context.Context, candidateID, jobID uuid.UUID) (*model.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, app := range f.apps {
		if app.CandidateID == candidateID && app.JobID == jobID {
			a := app
			return &a, nil
		}
	}
	return nil, apperr.NotFound("application")
}

func (f *fakeStore) ListApplications(ctx context.Context, flt ApplicationFilter) ([]model.Application, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Application{}
	for _, app := range f.apps {
		if app.AgencyID != flt.AgencyID {
			continue
		}
		if flt.ClientID != nil && app.ClientID != *flt.ClientID {
			continue
		}
		if flt.CandidateID != nil && app.CandidateID != *flt.CandidateID {
			continue
		}
		if flt.ReleasedOnly && !app.ReleasedToClient {
			continue
		}
		if flt.Status != nil && app.Status != *flt.Status {
			continue
		}
		out = append(out, app)
	}
	return out, len(out), nil
}

func (f *fakeStore) CreateApplication(ctx context.Context, app *model.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.apps {
		if a.CandidateID == app.CandidateID && a.JobID == app.JobID {
			return apperr.New(apperr.CodeConflict, "application exists")
		}
	}
	app.Version = 1
	f.apps[app.ID] = *app
	return nil
}

func (f *fakeStore) UpdateApplication(ctx context.Context, app *model.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.apps[app.ID]
	if !ok {
		return apperr.NotFound("application")
	}
	if stored.Version != app.Version {
		return apperr.New(apperr.CodeConflict, "application was modified concurrently")
	}
	app.Version++
	f.apps[app.ID] = *app
	return nil
}

func (f *fakeStore) GetJobOwner(ctx context.Context, jobID uuid.UUID) (*JobOwner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok {
		return nil, apperr.NotFound("job")
	}
	return &j, nil
}

func (f *fakeStore) CandidateName(ctx context.Context, candidateID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.candidates[candidateID]
	if !ok {
		return "", apperr.NotFound("candidate")
	}
	return n, nil
}

func (f *fakeStore) AgencyName(ctx context.Context, agencyID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.agencies[agencyID]
	if !ok {
		return "", apperr.NotFound("agency")
	}
	return n, nil
}

func (f *fakeStore) GetClientFeedback(ctx context.Context, applicationID uuid.UUID) (*model.ClientFeedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fb, ok := f.feedback[applicationID]
	if !ok {
		return nil, apperr.NotFound("client feedback")
	}
	return &fb, nil
}

func (f *fakeStore) UpsertClientFeedback(ctx context.Context, fb *model.ClientFeedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur := f.feedback[fb.ApplicationID]
	cur.ApplicationID = fb.ApplicationID
	if fb.Notes != nil {
		cur.Notes = fb.Notes
	}
	if fb.Rating != nil {
		cur.Rating = fb.Rating
	}
	cur.UpdatedBy = fb.UpdatedBy
	cur.UpdatedAt = fb.UpdatedAt
	f.feedback[fb.ApplicationID] = cur
	*fb = cur
	return nil
}

func (f *fakeStore) CreateRoom(ctx context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.ID] = *room
	return nil
}

func (f *fakeStore) GetRoom(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, apperr.NotFound("video call")
	}
	return &r, nil
}

func (f *fakeStore) LockRoom(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	return f.GetRoom(ctx, id)
}

func (f *fakeStore) GetRoomByProviderName(ctx context.Context, name string) (*model.Room, error) {
	f.mu.Lock()
	var found *model.Room
	for _, r := range f.rooms {
		if r.ProviderRoomName == name {
			room := r
			found = &room
			break
		}
	}
	hook := f.afterRoomLookup
	f.mu.Unlock()
	if found == nil {
		return nil, apperr.NotFound("video call")
	}
	if hook != nil {
		f.afterRoomLookup = nil
		hook(*found)
	}
	return found, nil
}

func (f *fakeStore) UpdateRoom(ctx context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.rooms[room.ID]
	if !ok {
		return apperr.NotFound("video call")
	}
	next := *room
	next.ShareWithClient = cur.ShareWithClient
	next.ShareWithCandidate = cur.ShareWithCandidate
	f.rooms[room.ID] = next
	return nil
}

func (f *fakeStore) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, id)
	delete(f.recordings, id)
	delete(f.transcripts, id)
	return nil
}

func (f *fakeStore) ListRoomDetails(ctx context.Context, applicationID uuid.UUID) ([]model.RoomDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.RoomDetail{}
	for _, r := range f.rooms {
		if r.ApplicationID != applicationID {
			continue
		}
		d := model.RoomDetail{Room: r}
		if rec, ok := f.recordings[r.ID]; ok {
			d.Recording = &rec
		}
		if tr, ok := f.transcripts[r.ID]; ok {
			d.Transcript = &tr
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Room.CreatedAt.Before(out[j].Room.CreatedAt) })
	return out, nil
}

func (f *fakeStore) SetRoomSharing(ctx context.Context, roomID, applicationID uuid.UUID, audience Audience, shared bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSharing[roomID] {
		return apperr.Internal("update room sharing", errors.New("connection reset"))
	}
	r, ok := f.rooms[roomID]
	if !ok || r.ApplicationID != applicationID {
		return apperr.NotFound("video call")
	}
	rec, hasRec := f.recordings[roomID]
	tr, hasTr := f.transcripts[roomID]
	switch audience {
	case AudienceClient:
		r.ShareWithClient = shared
		rec.SharedWithClient = shared
		tr.SharedWithClient = shared
	case AudienceCandidate:
		r.ShareWithCandidate = shared
		rec.SharedWithCandidate = shared
		tr.SharedWithCandidate = shared
	}
	f.rooms[roomID] = r
	if hasRec {
		f.recordings[roomID] = rec
	}
	if hasTr {
		f.transcripts[roomID] = tr
	}
	return nil
}

func (f *fakeStore) UpsertRecording(ctx context.Context, rec *model.Recording) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.recordings[rec.RoomID]; ok {
		rec.ID = cur.ID
		rec.CreatedAt = cur.CreatedAt
	}
	f.recordings[rec.RoomID] = *rec
	return nil
}

func (f *fakeStore) UpsertTranscript(ctx context.Context, tr *model.Transcript) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.transcripts[tr.RoomID]; ok {
		tr.ID = cur.ID
		tr.CreatedAt = cur.CreatedAt
	}
	f.transcripts[tr.RoomID] = *tr
	return nil
}

func (f *fakeStore) GetInterview(ctx context.Context, id uuid.UUID) (*model.LinkedInterview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv, ok := f.interviews[id]
	if !ok {
		return nil, apperr.NotFound("interview")
	}
	return &iv, nil
}

func (f *fakeStore) UpdateInterviewOutcome(ctx context.Context, interviewID, applicationID uuid.UUID, outcome, notes *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv, ok := f.interviews[interviewID]
	if !ok || iv.ApplicationID != applicationID {
		return apperr.NotFound("interview")
	}
	if outcome != nil {
		iv.Outcome = outcome
		iv.Status = "completed"
	}
	if notes != nil {
		iv.InterviewerNotes = notes
	}
	f.interviews[interviewID] = iv
	return nil
}

func (f *fakeStore) CreateOffer(ctx context.Context, offer *model.Offer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.offers {
		if o.ApplicationID == offer.ApplicationID {
			return apperr.New(apperr.CodeConflict, "offer exists")
		}
	}
	offer.Version = 1
	f.offers[offer.ID] = *offer
	return nil
}

func (f *fakeStore) GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok {
		return nil, apperr.NotFound("offer")
	}
	return &o, nil
}

func (f *fakeStore) GetOfferByApplication(ctx context.Context, applicationID uuid.UUID) (*model.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.offers {
		if o.ApplicationID == applicationID {
			offer := o
			return &offer, nil
		}
	}
	return nil, apperr.NotFound("offer")
}

func (f *fakeStore) UpdateOffer(ctx context.Context, offer *model.Offer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.offers[offer.ID]
	if !ok {
		return apperr.NotFound("offer")
	}
	if stored.Version != offer.Version {
		return apperr.New(apperr.CodeConflict, "offer was modified concurrently")
	}
	offer.Version++
	f.offers[offer.ID] = *offer
	return nil
}

func (f *fakeStore) ListExpiredOffers(ctx context.Context, now time.Time, limit int) ([]model.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Offer{}
	for _, o := range f.offers {
		if o.Status.Open() && o.ExpiresAt != nil && !o.ExpiresAt.After(now) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateCounterOffer(ctx context.Context, c *model.CounterOffer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.counters {
		if existing.OfferID == c.OfferID && existing.Status == model.CounterPending {
			return apperr.New(apperr.CodeConflict, "a counter offer is already pending")
		}
	}
	f.counters = append(f.counters, *c)
	return nil
}

func (f *fakeStore) GetCounterOffer(ctx context.Context, id uuid.UUID) (*model.CounterOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.counters {
		if c.ID == id {
			co := c
			return &co, nil
		}
	}
	return nil, apperr.NotFound("counter offer")
}

func (f *fakeStore) GetPendingCounterOffer(ctx context.Context, offerID uuid.UUID) (*model.CounterOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.counters {
		if c.OfferID == offerID && c.Status == model.CounterPending {
			co := c
			return &co, nil
		}
	}
	return nil, apperr.NotFound("counter offer")
}

func (f *fakeStore) ResolveCounterOffer(ctx context.Context, c *model.CounterOffer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.counters {
		if existing.ID != c.ID {
			continue
		}
		if existing.Status != model.CounterPending {
			return apperr.New(apperr.CodeConflict, "counter offer already resolved")
		}
		f.counters[i] = *c
		return nil
	}
	return apperr.NotFound("counter offer")
}

func (f *fakeStore) ListCounterOffers(ctx context.Context, offerID uuid.UUID) ([]model.CounterOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.CounterOffer{}
	for _, c := range f.counters {
		if c.OfferID == offerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendTimeline(ctx context.Context, e *model.TimelineEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTimeline {
		return apperr.Internal("insert timeline", errors.New("disk full"))
	}
	f.timeline = append(f.timeline, *e)
	return nil
}

func (f *fakeStore) ListTimeline(ctx context.Context, applicationID uuid.UUID) ([]model.TimelineEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.TimelineEntry{}
	for _, e := range f.timeline {
		if e.ApplicationID == applicationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) EnqueueEvent(ctx context.Context, ev *model.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeStore) timelineActions(applicationID uuid.UUID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.timeline {
		if e.ApplicationID == applicationID {
			out = append(out, e.ActionType)
		}
	}
	return out
}

func (f *fakeStore) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.EventType)
	}
	return out
}

type fakeProvider struct {
	mu sync.Mutex

	rooms     map[string]bool
	tokens    []video.TokenSpec
	deleted   []string
	createErr error
	getErr    error
	mintErrAt int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{rooms: make(map[string]bool)}
}

func (p *fakeProvider) CreateRoom(ctx context.Context, spec video.RoomSpec) (*video.Room, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.rooms[spec.Name] = true
	return &video.Room{Name: spec.Name, URL: "https://acme.daily.co/" + spec.Name, Privacy: "private"}, nil
}

func (p *fakeProvider) GetRoom(ctx context.Context, name string) (*video.Room, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return nil, p.getErr
	}
	if !p.rooms[name] {
		return nil, nil
	}
	return &video.Room{Name: name, URL: "https://acme.daily.co/" + name}, nil
}

func (p *fakeProvider) DeleteRoom(ctx context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.rooms, name)
	p.deleted = append(p.deleted, name)
	return nil
}

func (p *fakeProvider) MintToken(ctx context.Context, spec video.TokenSpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, spec)
	if p.mintErrAt > 0 && len(p.tokens) == p.mintErrAt {
		return "", errors.New("provider unavailable")
	}
	return "tok-" + spec.RoomName + "-" + uuid.NewString()[:8], nil
}

// fixture wires a service over fakes with one agency, one client, one job and
// one candidate.
type fixture struct {
	t        *testing.T
	store    *fakeStore
	provider *fakeProvider
	svc      *Service
	now      time.Time
	kicks    int

	agencyID    uuid.UUID
	clientID    uuid.UUID
	jobID       uuid.UUID
	candidateID uuid.UUID
	recruiter   model.Actor
	client      model.Actor
	candidate   model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:           t,
		store:       newFakeStore(),
		provider:    newFakeProvider(),
		now:         time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		agencyID:    uuid.New(),
		clientID:    uuid.New(),
		jobID:       uuid.New(),
		candidateID: uuid.New(),
	}
	f.recruiter = model.Actor{AgencyID: f.agencyID, UserID: uuid.New(), Role: model.RoleRecruiter, Name: "Rita"}
	f.client = model.Actor{AgencyID: f.agencyID, UserID: uuid.New(), Role: model.RoleClient, ClientID: &f.clientID}
	f.candidate = model.Actor{AgencyID: f.agencyID, UserID: f.candidateID, Role: model.RoleCandidate}

	f.store.jobs[f.jobID] = JobOwner{JobID: f.jobID, AgencyID: f.agencyID, ClientID: f.clientID}
	f.store.candidates[f.candidateID] = "Jane Cruz"
	f.store.agencies[f.agencyID] = "Acme Staffing"

	f.svc = New(f.store, f.provider, nil, Options{
		Now:  func() time.Time { return f.now },
		Kick: func() { f.kicks++ },
	})
	return f
}

func (f *fixture) advanceClock(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) seedApplication(status model.ApplicationStatus, released bool) *model.Application {
	f.t.Helper()
	app := model.Application{
		ID:               uuid.New(),
		AgencyID:         f.agencyID,
		ClientID:         f.clientID,
		CandidateID:      f.candidateID,
		JobID:            f.jobID,
		Status:           status,
		ReleasedToClient: released,
		ReleaseStatus:    model.ReleaseNone,
		Version:          1,
		CreatedAt:        f.now,
		UpdatedAt:        f.now,
	}
	if released {
		app.ReleaseStatus = model.ReleaseReleased
	}
	f.store.apps[app.ID] = app
	return &app
}

func (f *fixture) seedRoom(appID uuid.UUID, ct model.CallType, status model.RoomStatus) *model.Room {
	f.t.Helper()
	name := "room-" + uuid.NewString()[:8]
	room := model.Room{
		ID:                 uuid.New(),
		AgencyID:           f.agencyID,
		ApplicationID:      appID,
		JobID:              f.jobID,
		CallType:           ct,
		Title:              ct.Label(),
		ProviderRoomName:   name,
		ProviderRoomURL:    "https://acme.daily.co/" + name,
		HostName:           "Rita",
		ParticipantName:    "Jane Cruz",
		Status:             status,
		Notes:              ptr("strong communicator"),
		ShareWithClient:    ct.ClientLed(),
		ShareWithCandidate: ct.ClientLed(),
		EnableRecording:    true,
		ExpiresAt:          f.now.Add(3 * time.Hour),
		CreatedAt:          f.now,
		UpdatedAt:          f.now,
	}
	f.store.rooms[room.ID] = room
	f.provider.rooms[name] = true
	return &room
}

func (f *fixture) seedArtifacts(roomID uuid.UUID) {
	room := f.store.rooms[roomID]
	f.store.recordings[roomID] = model.Recording{
		ID:                  uuid.New(),
		RoomID:              roomID,
		Status:              model.RecordingReady,
		SharedWithClient:    room.ShareWithClient,
		SharedWithCandidate: room.ShareWithCandidate,
	}
	f.store.transcripts[roomID] = model.Transcript{
		ID:                  uuid.New(),
		RoomID:              roomID,
		Status:              model.TranscriptReady,
		FullText:            ptr("hello"),
		SharedWithClient:    room.ShareWithClient,
		SharedWithCandidate: room.ShareWithCandidate,
	}
}

func (f *fixture) app(id uuid.UUID) model.Application {
	return f.store.apps[id]
}

func wantCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := apperr.CodeOf(err); got != code {
		t.Fatalf("expected %s error, got %s (%v)", code, got, err)
	}
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func countOf(list []string, v string) int {
	n := 0
	for _, s := range list {
		if s == v {
			n++
		}
	}
	return n
}
