// Package session implements the prediction flow for a single match: mode
// derivation, draft editing, the debounced plausibility advisor, the
// X-Factor picker, and submission.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pitchsix/crickpick/pkg/fantasy/api"
	"github.com/pitchsix/crickpick/pkg/fantasy/catalog"
	"github.com/pitchsix/crickpick/pkg/fantasy/metrics"
)

// Mode is the session's presentation state.
type Mode int

const (
	// ModeLoading means fetches are outstanding and no mutation is accepted.
	ModeLoading Mode = iota
	// ModeForm means the draft is editable and submission is possible.
	ModeForm
	// ModeLocked shows the stored prediction read-only; edit may reopen it.
	ModeLocked
	// ModeResult shows actuals for a completed match. One-way.
	ModeResult
)

func (m Mode) String() string {
	switch m {
	case ModeLoading:
		return "loading"
	case ModeForm:
		return "form"
	case ModeLocked:
		return "locked"
	case ModeResult:
		return "result"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Backend is the slice of the API client the session drives.
type Backend interface {
	GetMatch(ctx context.Context, matchID int64) (*api.Match, error)
	GetMatchPlayers(ctx context.Context, matchID int64) (*api.Roster, error)
	GetMyPrediction(ctx context.Context, matchID int64) (*api.StoredPrediction, error)
	GetXFactors(ctx context.Context) ([]api.XFactorDefinition, error)
	GetScoringMeta(ctx context.Context) (*api.ScoringMeta, error)
	CreatePrediction(ctx context.Context, matchID int64, payload *api.PredictionPayload) (*api.StoredPrediction, error)
	UpdatePrediction(ctx context.Context, matchID int64, payload *api.PredictionPayload) (*api.StoredPrediction, error)
}

// Session is the prediction flow for one selected match. Selecting a new
// match is a fresh Load; results from a superseded Load are dropped.
type Session struct {
	backend   Backend
	logger    *log.Logger
	scheduler Scheduler
	window    time.Duration
	metrics   *metrics.ClientMetrics

	mu         sync.Mutex
	generation uint64
	mode       Mode
	matchID    int64

	match   *api.Match
	roster  *api.Roster
	prior   *api.StoredPrediction
	scoring *api.ScoringMeta
	catalog *catalog.Catalog

	// priorUnverified marks a prior-prediction fetch that failed with
	// something other than not-found, so "no prior" cannot be trusted.
	priorUnverified bool

	draft   *Draft
	picker  *Picker
	advisor *Advisor

	submitErr string

	onModeChange func(Mode)
	onWarning    func(string)
	onSubmitted  func(*api.StoredPrediction)
}

// Option configures a session.
type Option func(*Session)

// WithLogger sets the logger for degraded-read and stale-load notices.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithScheduler sets the advisor's scheduler.
func WithScheduler(scheduler Scheduler) Option {
	return func(s *Session) { s.scheduler = scheduler }
}

// WithQuietWindow sets the advisor's debounce window.
func WithQuietWindow(window time.Duration) Option {
	return func(s *Session) { s.window = window }
}

// WithMetrics reports mode transitions, submissions, and raised warnings to
// the given collectors.
func WithMetrics(cm *metrics.ClientMetrics) Option {
	return func(s *Session) { s.metrics = cm }
}

// New creates a session over the given backend.
func New(backend Backend, opts ...Option) *Session {
	s := &Session{
		backend: backend,
		logger:  log.Default(),
		window:  DefaultQuietWindow,
		mode:    ModeLoading,
		draft:   NewDraft(),
		catalog: catalog.New(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.picker = NewPicker(s.catalog)
	s.advisor = NewAdvisor(s.scheduler, s.window)
	s.advisor.OnWarning(s.dispatchWarning)
	if s.metrics != nil {
		s.metrics.SetSessionMode("", s.mode.String())
	}
	return s
}

// OnModeChange sets a callback for mode transitions.
func (s *Session) OnModeChange(fn func(Mode)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onModeChange = fn
}

// OnWarning sets a callback for advisory changes.
func (s *Session) OnWarning(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWarning = fn
}

// dispatchWarning receives advisory changes from the advisor, counts raised
// warnings, and forwards to the registered callback. The advisor invokes it
// outside both its own lock and the session lock.
func (s *Session) dispatchWarning(warning string) {
	s.mu.Lock()
	fn := s.onWarning
	s.mu.Unlock()

	if warning != "" && s.metrics != nil {
		s.metrics.RecordWarning()
	}
	if fn != nil {
		fn(warning)
	}
}

// OnSubmitted sets a callback for accepted submissions.
func (s *Session) OnSubmitted(fn func(*api.StoredPrediction)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSubmitted = fn
}

type loadResult struct {
	match   *api.Match
	roster  *api.Roster
	prior   *api.StoredPrediction
	defs    []api.XFactorDefinition
	scoring *api.ScoringMeta

	priorUnverified bool
	matchErr        error
}

// Load selects a match and fetches everything the screen needs. The five
// fetches run concurrently and fail independently: reference data (roster,
// catalog, scoring) degrades to empty on error, a failed prior-prediction
// fetch other than not-found marks the prior unverified, and only a failed
// match fetch fails the Load itself. A Load started later supersedes this
// one; superseded results are dropped.
func (s *Session) Load(ctx context.Context, matchID int64) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.matchID = matchID
	notify := s.setModeLocked(ModeLoading)
	s.mu.Unlock()
	runNotify(notify)

	var (
		wg  sync.WaitGroup
		res loadResult
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		res.match, res.matchErr = s.backend.GetMatch(ctx, matchID)
	}()
	go func() {
		defer wg.Done()
		roster, err := s.backend.GetMatchPlayers(ctx, matchID)
		if err != nil {
			s.logger.Printf("session: roster fetch for match %d degraded to empty: %v", matchID, err)
			return
		}
		res.roster = roster
	}()
	go func() {
		defer wg.Done()
		prior, err := s.backend.GetMyPrediction(ctx, matchID)
		switch {
		case err == nil:
			res.prior = prior
		case errors.Is(err, api.ErrNotFound):
			// Normal: the user has not predicted this match yet.
		default:
			s.logger.Printf("session: prior prediction fetch for match %d failed, prior unverified: %v", matchID, err)
			res.priorUnverified = true
		}
	}()
	go func() {
		defer wg.Done()
		defs, err := s.backend.GetXFactors(ctx)
		if err != nil {
			s.logger.Printf("session: x-factor catalog fetch degraded to empty: %v", err)
			return
		}
		res.defs = defs
	}()
	go func() {
		defer wg.Done()
		scoring, err := s.backend.GetScoringMeta(ctx)
		if err != nil {
			s.logger.Printf("session: scoring meta fetch degraded to empty: %v", err)
			return
		}
		res.scoring = scoring
	}()
	wg.Wait()

	s.mu.Lock()

	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Printf("session: dropping stale load result for match %d", matchID)
		return nil
	}
	if res.matchErr != nil {
		s.mu.Unlock()
		return fmt.Errorf("load match %d: %w", matchID, res.matchErr)
	}

	s.match = res.match
	s.roster = res.roster
	s.prior = res.prior
	s.priorUnverified = res.priorUnverified
	s.scoring = res.scoring
	s.catalog.Replace(res.defs)
	s.picker.Reset()
	s.advisor.Reset()
	s.submitErr = ""

	switch {
	case res.match.IsCompleted():
		s.draft = NewDraft()
		notify = s.setModeLocked(ModeResult)
	case res.prior != nil:
		s.draft = newDraftFromStored(res.prior)
		notify = s.setModeLocked(ModeLocked)
	default:
		s.draft = NewDraft()
		notify = s.setModeLocked(ModeForm)
	}
	s.mu.Unlock()
	runNotify(notify)
	return nil
}

// setModeLocked updates the mode and returns the notification to run once
// the lock is released, nil when the mode is unchanged. Callers hold mu; the
// callback must never be invoked under it, so a listener may call back into
// the session.
func (s *Session) setModeLocked(mode Mode) func() {
	if s.mode == mode {
		return nil
	}
	prev := s.mode
	s.mode = mode
	fn := s.onModeChange
	cm := s.metrics
	return func() {
		if cm != nil {
			cm.SetSessionMode(prev.String(), mode.String())
		}
		if fn != nil {
			fn(mode)
		}
	}
}

func runNotify(fn func()) {
	if fn != nil {
		fn()
	}
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Match returns the loaded match, nil before a successful Load.
func (s *Session) Match() *api.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match
}

// Roster returns the loaded roster, possibly nil when degraded.
func (s *Session) Roster() *api.Roster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster
}

// Prior returns the stored prediction, nil when none is known.
func (s *Session) Prior() *api.StoredPrediction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prior
}

// PriorUnverified reports whether the prior-prediction fetch failed with
// something other than not-found, meaning "no prior" is an assumption.
func (s *Session) PriorUnverified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priorUnverified
}

// Scoring returns the scoring metadata, possibly nil when degraded.
func (s *Session) Scoring() *api.ScoringMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoring
}

// Catalog returns the X-Factor condition catalog.
func (s *Session) Catalog() *catalog.Catalog {
	return s.catalog
}

// Draft returns a copy of the current draft for display.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := *s.draft
	d.Picks = make([]api.XFactorPick, len(s.draft.Picks))
	copy(d.Picks, s.draft.Picks)
	return d
}

// Warning returns the current plausibility advisory.
func (s *Session) Warning() string {
	return s.advisor.Warning()
}

// LastSubmitError returns the display message of the most recent failed
// submission, empty after a success.
func (s *Session) LastSubmitError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitErr
}

// Edit reopens the form from the locked summary. Legal only while the match
// is still upcoming.
func (s *Session) Edit() error {
	s.mu.Lock()

	if s.mode != ModeLocked {
		s.mu.Unlock()
		return ErrNotEditable
	}
	if s.match == nil || s.match.IsCompleted() {
		s.mu.Unlock()
		return ErrNotEditable
	}
	if s.prior != nil {
		s.draft = newDraftFromStored(s.prior)
	}
	notify := s.setModeLocked(ModeForm)
	s.mu.Unlock()
	runNotify(notify)
	return nil
}

// SetTossWinner sets the toss-winner field.
func (s *Session) SetTossWinner(team string) error {
	return s.editField(func(d *Draft) { d.TossWinner = team })
}

// SetMatchWinner sets the match-winner field.
func (s *Session) SetMatchWinner(team string) error {
	return s.editField(func(d *Draft) { d.MatchWinner = team })
}

// SetTopWicketTaker sets the top-wicket-taker field.
func (s *Session) SetTopWicketTaker(player string) error {
	return s.editField(func(d *Draft) { d.TopWicketTaker = player })
}

// SetTopRunScorer sets the top-run-scorer field.
func (s *Session) SetTopRunScorer(player string) error {
	return s.editField(func(d *Draft) { d.TopRunScorer = player })
}

func (s *Session) editField(apply func(*Draft)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeForm {
		return ErrNotEditable
	}
	apply(s.draft)
	return nil
}

// SetHighestRunScored updates the highest-team-total field and reschedules
// the plausibility check. It reports whether the input was accepted;
// non-digit input is ignored.
func (s *Session) SetHighestRunScored(v string) bool {
	return s.editNumeric(func(d *Draft) bool { return d.SetHighestRunScored(v) }, true)
}

// SetPowerplayRuns updates the powerplay-runs field.
func (s *Session) SetPowerplayRuns(v string) bool {
	return s.editNumeric(func(d *Draft) bool { return d.SetPowerplayRuns(v) }, false)
}

// SetTotalWickets updates the total-wickets field and reschedules the
// plausibility check.
func (s *Session) SetTotalWickets(v string) bool {
	return s.editNumeric(func(d *Draft) bool { return d.SetTotalWickets(v) }, true)
}

func (s *Session) editNumeric(apply func(*Draft) bool, advise bool) bool {
	s.mu.Lock()
	if s.mode != ModeForm {
		s.mu.Unlock()
		return false
	}
	accepted := apply(s.draft)
	runs, wickets := s.draft.HighestRunScored, s.draft.TotalWickets
	s.mu.Unlock()

	if accepted && advise {
		s.advisor.Observe(runs, wickets)
	}
	return accepted
}

// SelectRisk chooses the X-Factor risk tier, clearing any chosen condition.
func (s *Session) SelectRisk(tier api.RiskTier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeForm {
		return ErrNotEditable
	}
	s.picker.SelectRisk(tier)
	return nil
}

// SelectCondition chooses an X-Factor condition at the selected tier.
func (s *Session) SelectCondition(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeForm {
		return ErrNotEditable
	}
	return s.picker.SelectCondition(id)
}

// SetPickPlayer records the player for the pending X-Factor pick.
func (s *Session) SetPickPlayer(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeForm {
		return ErrNotEditable
	}
	s.picker.SetPlayer(name)
	return nil
}

// Picker exposes the pending pick state for display.
func (s *Session) Picker() *Picker {
	return s.picker
}

// ConfirmPick appends the pending pick to the draft and resets the picker.
func (s *Session) ConfirmPick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeForm {
		return ErrNotEditable
	}
	if !s.picker.CanConfirm() {
		return ErrIncompletePick
	}
	pick := api.XFactorPick{
		XFID:       s.picker.Condition(),
		PlayerName: s.picker.Player(),
	}
	if err := s.draft.AddPick(pick); err != nil {
		return err
	}
	s.picker.Reset()
	return nil
}

// RemovePick deletes the draft pick at index i.
func (s *Session) RemovePick(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeForm {
		return ErrNotEditable
	}
	return s.draft.RemovePick(i)
}

// Submit serializes the draft and sends it. Create is used when no prior
// prediction is known, update otherwise; when the prior is unverified a
// create that hits a conflict falls back to update. On success the canonical
// stored prediction replaces local state and the session locks. On failure
// the draft is untouched and the message is kept for display, so the same
// submission can be retried as-is.
func (s *Session) Submit(ctx context.Context) (*api.StoredPrediction, error) {
	s.mu.Lock()
	if s.mode != ModeForm {
		s.mu.Unlock()
		return nil, ErrNotEditable
	}
	if s.match == nil {
		s.mu.Unlock()
		return nil, ErrNoMatch
	}
	match := s.match
	prior := s.prior
	priorUnverified := s.priorUnverified
	matchID := s.matchID
	payload := s.draft.Payload()
	s.mu.Unlock()

	if payload.TossWinner == "" || payload.MatchWinner == "" {
		return nil, ErrWinnersRequired
	}
	if !match.HasTeam(payload.TossWinner) || !match.HasTeam(payload.MatchWinner) {
		return nil, ErrUnknownTeam
	}
	if err := validate.Struct(payload); err != nil {
		return nil, ErrWinnersRequired
	}

	stored, op, err := s.send(ctx, matchID, payload, prior != nil, priorUnverified)
	if err != nil {
		s.recordSubmission(op, "error")
		s.mu.Lock()
		s.submitErr = displayMessage(err)
		s.mu.Unlock()
		return nil, err
	}
	s.recordSubmission(op, "ok")

	s.mu.Lock()
	s.prior = stored
	s.priorUnverified = false
	s.draft = newDraftFromStored(stored)
	s.submitErr = ""
	fn := s.onSubmitted
	notify := s.setModeLocked(ModeLocked)
	s.mu.Unlock()

	runNotify(notify)
	if fn != nil {
		fn(stored)
	}
	return stored, nil
}

// send issues the create or update and reports which operation ultimately
// ran, so failures and conflict fallbacks are attributed correctly.
func (s *Session) send(ctx context.Context, matchID int64, payload *api.PredictionPayload, havePrior, priorUnverified bool) (*api.StoredPrediction, string, error) {
	if havePrior {
		stored, err := s.backend.UpdatePrediction(ctx, matchID, payload)
		return stored, "update", err
	}

	stored, err := s.backend.CreatePrediction(ctx, matchID, payload)
	if err != nil && priorUnverified && isConflict(err) {
		s.logger.Printf("session: create conflicted for match %d, prior existed after all, updating", matchID)
		stored, err = s.backend.UpdatePrediction(ctx, matchID, payload)
		return stored, "update", err
	}
	return stored, "create", err
}

func (s *Session) recordSubmission(op, result string) {
	if s.metrics != nil {
		s.metrics.RecordSubmission(op, result)
	}
}

// isConflict recognizes "a prediction already exists" responses.
func isConflict(err error) bool {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusConflict {
		return true
	}
	return apiErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Message), "already")
}

// displayMessage extracts the message shown near the submit action.
func displayMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// Close releases the advisor's pending timer.
func (s *Session) Close() {
	s.advisor.Stop()
}
