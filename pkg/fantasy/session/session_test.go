package session

import (
	"context"
	"errors"
	"io"
	"log"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pitchsix/crickpick/pkg/fantasy/api"
	"github.com/pitchsix/crickpick/pkg/fantasy/metrics"
)

type fakeBackend struct {
	mu sync.Mutex

	matches    map[int64]*api.Match
	matchErr   error
	roster     *api.Roster
	rosterErr  error
	prior      *api.StoredPrediction
	priorErr   error
	defs       []api.XFactorDefinition
	defsErr    error
	scoring    *api.ScoringMeta
	scoringErr error

	stored    *api.StoredPrediction
	createErr error
	updateErr error

	createCalls int
	updateCalls int
	lastPayload *api.PredictionPayload

	// blockMatchID makes GetMatch for that id signal entered and wait for
	// release, so tests can interleave loads.
	blockMatchID int64
	entered      chan struct{}
	release      chan struct{}
}

func (f *fakeBackend) GetMatch(ctx context.Context, matchID int64) (*api.Match, error) {
	f.mu.Lock()
	blocked := f.blockMatchID != 0 && matchID == f.blockMatchID
	f.mu.Unlock()
	if blocked {
		f.entered <- struct{}{}
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	if m, ok := f.matches[matchID]; ok {
		return m, nil
	}
	return nil, api.ErrNotFound
}

func (f *fakeBackend) GetMatchPlayers(ctx context.Context, matchID int64) (*api.Roster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	return f.roster, nil
}

func (f *fakeBackend) GetMyPrediction(ctx context.Context, matchID int64) (*api.StoredPrediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.priorErr != nil {
		return nil, f.priorErr
	}
	if f.prior == nil {
		return nil, api.ErrNotFound
	}
	return f.prior, nil
}

func (f *fakeBackend) GetXFactors(ctx context.Context) ([]api.XFactorDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.defs, f.defsErr
}

func (f *fakeBackend) GetScoringMeta(ctx context.Context) (*api.ScoringMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scoringErr != nil {
		return nil, f.scoringErr
	}
	return f.scoring, nil
}

func (f *fakeBackend) CreatePrediction(ctx context.Context, matchID int64, payload *api.PredictionPayload) (*api.StoredPrediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastPayload = payload
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.stored, nil
}

func (f *fakeBackend) UpdatePrediction(ctx context.Context, matchID int64, payload *api.PredictionPayload) (*api.StoredPrediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastPayload = payload
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.stored, nil
}

func upcomingMatch(id int64) *api.Match {
	return &api.Match{
		ID:       id,
		HomeTeam: "Mumbai Indians",
		AwayTeam: "Chennai Super Kings",
		Status:   api.StatusUpcoming,
	}
}

func completedMatch(id int64) *api.Match {
	m := upcomingMatch(id)
	m.Status = api.StatusCompleted
	return m
}

func storedPrediction() *api.StoredPrediction {
	return &api.StoredPrediction{
		ID:          7,
		MatchID:     1,
		TossWinner:  "Mumbai Indians",
		MatchWinner: "Chennai Super Kings",
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestSession(backend *fakeBackend, opts ...Option) *Session {
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(backend, opts...)
}

func TestCompletedMatchEntersResultMode(t *testing.T) {
	backend := &fakeBackend{
		matches: map[int64]*api.Match{1: completedMatch(1)},
		prior:   storedPrediction(),
	}
	s := newTestSession(backend)

	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Mode() != ModeResult {
		t.Fatalf("Mode = %s, want result", s.Mode())
	}

	if err := s.Edit(); !errors.Is(err, ErrNotEditable) {
		t.Errorf("Edit from result should fail, got %v", err)
	}
	if err := s.SetTossWinner("Mumbai Indians"); !errors.Is(err, ErrNotEditable) {
		t.Errorf("Mutation in result mode should fail, got %v", err)
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrNotEditable) {
		t.Errorf("Submit in result mode should fail, got %v", err)
	}
}

func TestUpcomingNoPriorEntersFormMode(t *testing.T) {
	backend := &fakeBackend{matches: map[int64]*api.Match{1: upcomingMatch(1)}}
	s := newTestSession(backend)

	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Mode() != ModeForm {
		t.Errorf("Mode = %s, want form", s.Mode())
	}
	if s.Prior() != nil || s.PriorUnverified() {
		t.Error("Not-found prior should yield nil prior, verified")
	}
}

func TestUpcomingWithPriorEntersLockedAndEditReopens(t *testing.T) {
	backend := &fakeBackend{
		matches: map[int64]*api.Match{1: upcomingMatch(1)},
		prior:   storedPrediction(),
	}
	s := newTestSession(backend)

	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Mode() != ModeLocked {
		t.Fatalf("Mode = %s, want locked", s.Mode())
	}

	if err := s.Edit(); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if s.Mode() != ModeForm {
		t.Errorf("Mode after edit = %s, want form", s.Mode())
	}
	if draft := s.Draft(); draft.TossWinner != "Mumbai Indians" {
		t.Errorf("Draft not seeded from stored prediction: %+v", draft)
	}
}

func TestPriorFetchFailureMarksUnverified(t *testing.T) {
	backend := &fakeBackend{
		matches:  map[int64]*api.Match{1: upcomingMatch(1)},
		priorErr: &api.APIError{StatusCode: 500, Message: "boom"},
	}
	s := newTestSession(backend)

	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Mode() != ModeForm {
		t.Errorf("Mode = %s, want form", s.Mode())
	}
	if !s.PriorUnverified() {
		t.Error("Failed prior fetch should mark the prior unverified")
	}
}

func TestReadFailuresAreIsolated(t *testing.T) {
	backend := &fakeBackend{
		matches:    map[int64]*api.Match{1: upcomingMatch(1)},
		rosterErr:  errors.New("roster down"),
		defsErr:    errors.New("catalog down"),
		scoringErr: errors.New("meta down"),
	}
	s := newTestSession(backend)

	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Degraded reads should not fail the load: %v", err)
	}
	if s.Mode() != ModeForm {
		t.Errorf("Mode = %s, want form", s.Mode())
	}
	if s.Roster() != nil || s.Scoring() != nil || s.Catalog().Len() != 0 {
		t.Error("Failed reference fetches should degrade to empty")
	}
}

func TestMatchFetchFailureFailsLoad(t *testing.T) {
	backend := &fakeBackend{matchErr: errors.New("gateway timeout")}
	s := newTestSession(backend)

	if err := s.Load(context.Background(), 1); err == nil {
		t.Fatal("Expected load error")
	}
	if s.Mode() != ModeLoading {
		t.Errorf("Mode = %s, want loading", s.Mode())
	}
}

func TestMutationsGatedOutsideForm(t *testing.T) {
	backend := &fakeBackend{
		matches: map[int64]*api.Match{1: upcomingMatch(1)},
		prior:   storedPrediction(),
	}
	s := newTestSession(backend)
	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.SetTotalWickets("12") {
		t.Error("Numeric setter should be rejected in locked mode")
	}
	if err := s.SelectRisk(api.RiskLow); !errors.Is(err, ErrNotEditable) {
		t.Errorf("Picker mutation should fail in locked mode, got %v", err)
	}
	if err := s.RemovePick(0); !errors.Is(err, ErrNotEditable) {
		t.Errorf("Pick removal should fail in locked mode, got %v", err)
	}
}

func TestSubmitCreatesWhenNoPrior(t *testing.T) {
	backend := &fakeBackend{
		matches: map[int64]*api.Match{1: upcomingMatch(1)},
		stored:  storedPrediction(),
	}
	s := newTestSession(backend)
	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var submitted *api.StoredPrediction
	s.OnSubmitted(func(p *api.StoredPrediction) { submitted = p })

	if err := s.SetTossWinner("Mumbai Indians"); err != nil {
		t.Fatalf("SetTossWinner failed: %v", err)
	}
	if err := s.SetMatchWinner("Chennai Super Kings"); err != nil {
		t.Fatalf("SetMatchWinner failed: %v", err)
	}

	stored, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if backend.createCalls != 1 || backend.updateCalls != 0 {
		t.Errorf("create/update = %d/%d, want 1/0", backend.createCalls, backend.updateCalls)
	}
	if s.Mode() != ModeLocked {
		t.Errorf("Mode after submit = %s, want locked", s.Mode())
	}
	if submitted != stored || s.Prior() != stored {
		t.Error("Canonical stored prediction should replace local state")
	}
	if s.LastSubmitError() != "" {
		t.Errorf("Submit error should be clear, got %q", s.LastSubmitError())
	}
}

func TestSubmitUpdatesWhenPriorKnown(t *testing.T) {
	backend := &fakeBackend{
		matches: map[int64]*api.Match{1: upcomingMatch(1)},
		prior:   storedPrediction(),
		stored:  storedPrediction(),
	}
	s := newTestSession(backend)
	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := s.Edit(); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if backend.createCalls != 0 || backend.updateCalls != 1 {
		t.Errorf("create/update = %d/%d, want 0/1", backend.createCalls, backend.updateCalls)
	}
}

func TestSubmitRequiresWinnersBeforeNetwork(t *testing.T) {
	backend := &fakeBackend{matches: map[int64]*api.Match{1: upcomingMatch(1)}}
	s := newTestSession(backend)
	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := s.SetTossWinner("Mumbai Indians"); err != nil {
		t.Fatalf("SetTossWinner failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrWinnersRequired) {
		t.Fatalf("Expected ErrWinnersRequired, got %v", err)
	}
	if backend.createCalls != 0 || backend.updateCalls != 0 {
		t.Error("Local validation failure must not reach the network")
	}
}

func TestSubmitRejectsUnknownTeam(t *testing.T) {
	backend := &fakeBackend{matches: map[int64]*api.Match{1: upcomingMatch(1)}}
	s := newTestSession(backend)
	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := s.SetTossWinner("Rajasthan Royals"); err != nil {
		t.Fatalf("SetTossWinner failed: %v", err)
	}
	if err := s.SetMatchWinner("Mumbai Indians"); err != nil {
		t.Fatalf("SetMatchWinner failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrUnknownTeam) {
		t.Errorf("Expected ErrUnknownTeam, got %v", err)
	}
}

func TestSubmitFailureLeavesDraftIntact(t *testing.T) {
	backend := &fakeBackend{
		matches:   map[int64]*api.Match{1: upcomingMatch(1)},
		createErr: &api.APIError{StatusCode: 400, Message: "Predictions closed for this match"},
	}
	s := newTestSession(backend)
	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := s.SetTossWinner("Mumbai Indians"); err != nil {
		t.Fatalf("SetTossWinner failed: %v", err)
	}
	if err := s.SetMatchWinner("Chennai Super Kings"); err != nil {
		t.Fatalf("SetMatchWinner failed: %v", err)
	}
	s.SetTotalWickets("12")
	before := s.Draft()

	if _, err := s.Submit(context.Background()); err == nil {
		t.Fatal("Expected submit error")
	}
	if after := s.Draft(); !reflect.DeepEqual(before, after) {
		t.Errorf("Draft changed across a failed submit:\nbefore %+v\nafter  %+v", before, after)
	}
	if s.Mode() != ModeForm {
		t.Errorf("Mode after failure = %s, want form", s.Mode())
	}
	if s.LastSubmitError() != "Predictions closed for this match" {
		t.Errorf("LastSubmitError = %q", s.LastSubmitError())
	}

	// Retry without re-entering data succeeds once the backend recovers.
	backend.mu.Lock()
	backend.createErr = nil
	backend.stored = storedPrediction()
	backend.mu.Unlock()
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if s.Mode() != ModeLocked {
		t.Errorf("Mode after retry = %s, want locked", s.Mode())
	}
}

func TestCreateConflictFallsBackToUpdate(t *testing.T) {
	backend := &fakeBackend{
		matches:   map[int64]*api.Match{1: upcomingMatch(1)},
		priorErr:  &api.APIError{StatusCode: 500, Message: "boom"},
		createErr: &api.APIError{StatusCode: 400, Message: "Prediction already submitted for this match"},
		stored:    storedPrediction(),
	}
	s := newTestSession(backend)
	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !s.PriorUnverified() {
		t.Fatal("Prior should be unverified")
	}

	if err := s.SetTossWinner("Mumbai Indians"); err != nil {
		t.Fatalf("SetTossWinner failed: %v", err)
	}
	if err := s.SetMatchWinner("Chennai Super Kings"); err != nil {
		t.Fatalf("SetMatchWinner failed: %v", err)
	}

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit should fall back to update: %v", err)
	}
	if backend.createCalls != 1 || backend.updateCalls != 1 {
		t.Errorf("create/update = %d/%d, want 1/1", backend.createCalls, backend.updateCalls)
	}
	if s.PriorUnverified() {
		t.Error("Prior should be verified after a successful submit")
	}
}

func TestPayloadStripsDisplayFields(t *testing.T) {
	backend := &fakeBackend{
		matches: map[int64]*api.Match{1: upcomingMatch(1)},
		defs: []api.XFactorDefinition{
			{ID: "C1", Risk: api.RiskLow, Description: "Takes a wicket"},
		},
		stored: storedPrediction(),
	}
	s := newTestSession(backend)
	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := s.SetTossWinner("Mumbai Indians"); err != nil {
		t.Fatalf("SetTossWinner failed: %v", err)
	}
	if err := s.SetMatchWinner("Chennai Super Kings"); err != nil {
		t.Fatalf("SetMatchWinner failed: %v", err)
	}
	if err := s.SelectRisk(api.RiskLow); err != nil {
		t.Fatalf("SelectRisk failed: %v", err)
	}
	if err := s.SelectCondition("C1"); err != nil {
		t.Fatalf("SelectCondition failed: %v", err)
	}
	if err := s.SetPickPlayer("Jasprit Bumrah"); err != nil {
		t.Fatalf("SetPickPlayer failed: %v", err)
	}
	if err := s.ConfirmPick(); err != nil {
		t.Fatalf("ConfirmPick failed: %v", err)
	}

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	picks := backend.lastPayload.XFactors
	if len(picks) != 1 {
		t.Fatalf("Expected 1 pick, got %d", len(picks))
	}
	if picks[0].XFID != "C1" || picks[0].PlayerName != "Jasprit Bumrah" {
		t.Errorf("Wrong pick on the wire: %+v", picks[0])
	}
}

func TestModeChangeCallbackSequence(t *testing.T) {
	backend := &fakeBackend{matches: map[int64]*api.Match{1: upcomingMatch(1)}}
	s := newTestSession(backend)

	var modes []Mode
	s.OnModeChange(func(m Mode) { modes = append(modes, m) })

	// The session starts in loading, so the first Load only reports the
	// computed mode.
	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(modes) != 1 || modes[0] != ModeForm {
		t.Errorf("Mode sequence = %v, want [form]", modes)
	}
}

func TestModeCallbackMayReenterSession(t *testing.T) {
	backend := &fakeBackend{
		matches: map[int64]*api.Match{1: upcomingMatch(1)},
		stored:  storedPrediction(),
	}
	s := newTestSession(backend)

	// A listener reading session state back is legal; the callback fires
	// outside the session lock.
	var seen []Mode
	s.OnModeChange(func(Mode) {
		seen = append(seen, s.Mode())
		_ = s.Draft()
	})

	done := make(chan error, 1)
	go func() {
		if err := s.Load(context.Background(), 1); err != nil {
			done <- err
			return
		}
		if err := s.SetTossWinner("Mumbai Indians"); err != nil {
			done <- err
			return
		}
		if err := s.SetMatchWinner("Chennai Super Kings"); err != nil {
			done <- err
			return
		}
		_, err := s.Submit(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Flow failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Deadlocked: mode callback could not read session state")
	}

	want := []Mode{ModeForm, ModeLocked}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("Observed modes = %v, want %v", seen, want)
	}
}

func TestSessionRecordsMetrics(t *testing.T) {
	sched := &manualScheduler{}
	backend := &fakeBackend{
		matches: map[int64]*api.Match{1: upcomingMatch(1)},
		stored:  storedPrediction(),
	}
	cm := metrics.NewClientMetrics()
	s := newTestSession(backend, WithScheduler(sched), WithMetrics(cm))
	defer s.Close()

	if got := testutil.ToFloat64(cm.SessionsByMode.WithLabelValues("loading")); got != 1 {
		t.Errorf("loading gauge = %.0f before load, want 1", got)
	}

	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := testutil.ToFloat64(cm.SessionsByMode.WithLabelValues("form")); got != 1 {
		t.Errorf("form gauge = %.0f, want 1", got)
	}
	if got := testutil.ToFloat64(cm.SessionsByMode.WithLabelValues("loading")); got != 0 {
		t.Errorf("loading gauge = %.0f after load, want 0", got)
	}

	s.SetTotalWickets("25")
	sched.fire()
	if got := testutil.ToFloat64(cm.AdvisorWarnings.WithLabelValues()); got != 1 {
		t.Errorf("advisor warnings = %.0f, want 1", got)
	}

	if err := s.SetTossWinner("Mumbai Indians"); err != nil {
		t.Fatalf("SetTossWinner failed: %v", err)
	}
	if err := s.SetMatchWinner("Chennai Super Kings"); err != nil {
		t.Fatalf("SetMatchWinner failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if got := testutil.ToFloat64(cm.SubmissionsTotal.WithLabelValues("create", "ok")); got != 1 {
		t.Errorf("create/ok submissions = %.0f, want 1", got)
	}
	if got := testutil.ToFloat64(cm.SessionsByMode.WithLabelValues("locked")); got != 1 {
		t.Errorf("locked gauge = %.0f after submit, want 1", got)
	}
	if got := testutil.ToFloat64(cm.SessionsByMode.WithLabelValues("form")); got != 0 {
		t.Errorf("form gauge = %.0f after submit, want 0", got)
	}
}

func TestSubmitFailureRecordedAsError(t *testing.T) {
	backend := &fakeBackend{
		matches:   map[int64]*api.Match{1: upcomingMatch(1)},
		createErr: &api.APIError{StatusCode: 400, Message: "Predictions closed for this match"},
	}
	cm := metrics.NewClientMetrics()
	s := newTestSession(backend, WithMetrics(cm))

	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := s.SetTossWinner("Mumbai Indians"); err != nil {
		t.Fatalf("SetTossWinner failed: %v", err)
	}
	if err := s.SetMatchWinner("Chennai Super Kings"); err != nil {
		t.Fatalf("SetMatchWinner failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err == nil {
		t.Fatal("Expected submit error")
	}

	if got := testutil.ToFloat64(cm.SubmissionsTotal.WithLabelValues("create", "error")); got != 1 {
		t.Errorf("create/error submissions = %.0f, want 1", got)
	}
	if got := testutil.ToFloat64(cm.SubmissionsTotal.WithLabelValues("create", "ok")); got != 0 {
		t.Errorf("create/ok submissions = %.0f, want 0", got)
	}
}

func TestStaleLoadResultDropped(t *testing.T) {
	backend := &fakeBackend{
		matches: map[int64]*api.Match{
			1: upcomingMatch(1),
			2: upcomingMatch(2),
		},
		blockMatchID: 1,
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	s := newTestSession(backend)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Load(context.Background(), 1)
	}()
	<-backend.entered

	if err := s.Load(context.Background(), 2); err != nil {
		t.Fatalf("Second load failed: %v", err)
	}
	close(backend.release)
	wg.Wait()

	if got := s.Match(); got == nil || got.ID != 2 {
		t.Errorf("Stale first load overwrote the session: %+v", got)
	}
	if s.Mode() != ModeForm {
		t.Errorf("Mode = %s, want form", s.Mode())
	}
}

func TestAdvisorWiredThroughSession(t *testing.T) {
	sched := &manualScheduler{}
	backend := &fakeBackend{matches: map[int64]*api.Match{1: upcomingMatch(1)}}
	s := newTestSession(backend, WithScheduler(sched))
	defer s.Close()

	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !s.SetTotalWickets("25") {
		t.Fatal("Digit input should be accepted")
	}
	if s.Warning() != "" {
		t.Error("No warning before the quiet window elapses")
	}
	sched.fire()
	if s.Warning() != "Wickets > 20 is unusual" {
		t.Errorf("Warning = %q", s.Warning())
	}

	if !s.SetTotalWickets("15") {
		t.Fatal("Digit input should be accepted")
	}
	sched.fire()
	if s.Warning() != "" {
		t.Errorf("Warning should clear, got %q", s.Warning())
	}
}

func TestRejectedNumericInputDoesNotReschedule(t *testing.T) {
	sched := &manualScheduler{}
	backend := &fakeBackend{matches: map[int64]*api.Match{1: upcomingMatch(1)}}
	s := newTestSession(backend, WithScheduler(sched), WithQuietWindow(time.Second))

	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.SetTotalWickets("25x") {
		t.Fatal("Non-digit input should be rejected")
	}
	if sched.pendingCount() != 0 {
		t.Error("Rejected input must not schedule a check")
	}
}
