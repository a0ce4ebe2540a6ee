package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"blindtest-service/internal/domain"
	"github.com/rs/zerolog"
)

// State is the lifecycle phase of a quiz session.
type State int

const (
	StateIdle State = iota
	StateInProgress
	StateFinished
)

// Event types broadcast to session subscribers.
const (
	EventQuestion     = "question"
	EventTick         = "tick"
	EventAnswerResult = "answerResult"
	EventComboBroken  = "comboBroken"
	EventFinished     = "finished"
)

// Event is a session update fanned out to subscribers.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// TickPayload reports the countdown once per second.
type TickPayload struct {
	QuestionIndex int `json:"questionIndex"`
	TimeRemaining int `json:"timeRemaining"`
}

// Player is the external playback capability. Implementations must be
// non-blocking beyond ordinary request latency; command failures are
// non-fatal for the quiz, which is driven by the countdown alone.
type Player interface {
	Play(ctx context.Context, uri string, positionMS int) error
	Pause(ctx context.Context) error
	SetVolume(ctx context.Context, volume float64) error
}

// questionState is replaced wholesale on every advance.
type questionState struct {
	target        domain.Track
	options       []domain.Track
	timeRemaining int
	answered      bool
	selectedID    string
}

// Session runs one quiz: Idle -> InProgress(question n) -> Finished.
// All mutable state lives behind mu; timer callbacks and answer calls both
// funnel through the answered flag so at most one scoring transition happens
// per question. Every timer is tracked and cancelled on teardown so a
// superseded session can never touch live state.
type Session struct {
	userID   string
	library  []domain.Track
	settings domain.Settings
	cfg      GameConfig
	player   Player
	scores   HighScoreRepository
	logger   zerolog.Logger
	rnd      *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	state         State
	picks         []domain.Track
	questionIndex int
	score         int
	streak        int
	q             *questionState
	stopCountdown context.CancelFunc
	advanceTimer  *time.Timer
	closed        bool
	subscribers   map[chan Event]struct{}
}

func newSession(userID string, library []domain.Track, settings domain.Settings, cfg GameConfig, player Player, scores HighScoreRepository, logger zerolog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		userID:      userID,
		library:     library,
		settings:    settings,
		cfg:         cfg,
		player:      player,
		scores:      scores,
		logger:      logger.With().Str("component", "session").Str("user_id", userID).Logger(),
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[chan Event]struct{}),
	}
}

// NewSessionForTest builds a session with a seeded RNG; timings come from cfg.
func NewSessionForTest(userID string, library []domain.Track, settings domain.Settings, cfg GameConfig, player Player, scores HighScoreRepository, seed int64) *Session {
	s := newSession(userID, library, settings, cfg, player, scores, zerolog.Nop())
	s.rnd = rand.New(rand.NewSource(seed))
	return s
}

// Start samples the quiz tracks, zeroes score and streak, and loads the
// first question.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.closed || s.state != StateIdle {
		s.mu.Unlock()
		return domain.ErrSessionFinished
	}
	picks := PickDistinct(s.rnd, s.library, "", s.settings.QuestionsPerQuiz)
	if len(picks) < s.settings.QuestionsPerQuiz || len(s.library) < s.settings.NumAnswerOptions {
		s.mu.Unlock()
		return domain.ErrInsufficientLibrary
	}
	s.picks = picks
	s.questionIndex = 0
	s.score = 0
	s.streak = 0
	s.state = StateInProgress
	uri, position := s.loadQuestionLocked(0)
	s.mu.Unlock()

	if err := s.player.SetVolume(s.ctx, s.cfg.PlayerVolume); err != nil {
		s.logger.Warn().Err(err).Msg("set volume failed")
	}
	s.play(uri, position)
	return nil
}

// Answer resolves the current question. An empty selectedID means a timeout
// or explicit pass and counts as a wrong answer. The first call wins;
// repeated calls return ErrAlreadyAnswered without touching the score.
func (s *Session) Answer(selectedID string) (domain.AnswerResult, error) {
	s.mu.Lock()
	if s.closed || s.state != StateInProgress || s.q == nil {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrNoActiveQuestion
	}
	q := s.q
	if q.answered {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrAlreadyAnswered
	}
	if selectedID != "" && !hasOption(q.options, selectedID) {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrOptionNotFound
	}

	q.answered = true
	q.selectedID = selectedID
	if s.stopCountdown != nil {
		s.stopCountdown()
		s.stopCountdown = nil
	}

	result := domain.AnswerResult{
		QuestionIndex: s.questionIndex,
		CorrectID:     q.target.ID,
		SelectedID:    selectedID,
		Multiplier:    1.0,
	}
	if selectedID == q.target.ID {
		result.Correct = true
		result.Multiplier = ComboMultiplier(s.settings.ComboTiers, s.streak)
		result.Awarded = ComputePoints(q.timeRemaining, s.streak, s.settings)
		s.score += result.Awarded
		s.streak++
	} else {
		if s.streak > 1 {
			result.ComboBroken = true
		}
		s.streak = 0
	}
	result.TotalScore = s.score
	result.Streak = s.streak
	result.Verdicts = make(map[string]domain.OptionVerdict, len(q.options))
	for _, opt := range q.options {
		result.Verdicts[opt.ID] = Classify(q.target.ID, selectedID, opt.ID)
	}

	if result.ComboBroken {
		s.broadcastLocked(Event{Type: EventComboBroken, Payload: TickPayload{QuestionIndex: s.questionIndex}})
	}
	s.broadcastLocked(Event{Type: EventAnswerResult, Payload: result})
	s.advanceTimer = time.AfterFunc(s.cfg.FeedbackDelay, s.advance)
	s.mu.Unlock()

	if err := s.player.Pause(s.ctx); err != nil {
		s.logger.Warn().Err(err).Msg("pause failed")
	}
	return result, nil
}

// Subscribe returns a channel fed with session events, starting with a
// snapshot of the current question (or the final summary). The caller must
// invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	if s.state == StateInProgress && s.q != nil {
		ch <- Event{Type: EventQuestion, Payload: s.questionViewLocked()}
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Score returns the cumulative score so far.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Question returns the client view of the current question, if any.
func (s *Session) Question() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress || s.q == nil {
		return domain.Question{}, false
	}
	return s.questionViewLocked(), true
}

// Close tears the session down: cancels the countdown, the pending advance,
// and any in-flight playback command, and closes all subscriber channels.
// Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.stopCountdown != nil {
		s.stopCountdown()
		s.stopCountdown = nil
	}
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()
	s.cancel()
}

// loadQuestionLocked builds the next question state, broadcasts it, and
// starts the countdown. It returns the playback URI and start offset so the
// caller can issue the play command outside the lock.
func (s *Session) loadQuestionLocked(index int) (string, int) {
	target := s.picks[index]
	distractors := PickDistinct(s.rnd, s.library, target.ID, s.settings.NumAnswerOptions-1)
	options := Shuffle(s.rnd, append([]domain.Track{target}, distractors...))
	s.q = &questionState{
		target:        target,
		options:       options,
		timeRemaining: s.cfg.QuizSeconds,
	}
	s.broadcastLocked(Event{Type: EventQuestion, Payload: s.questionViewLocked()})

	ctx, cancel := context.WithCancel(s.ctx)
	s.stopCountdown = cancel
	go s.runCountdown(ctx)

	// Random start offset within the part of the track that still leaves a
	// full question window. The library filter guarantees the window is
	// positive, but clamp anyway.
	position := 0
	if window := target.DurationMS - s.cfg.QuizSeconds*1000; window > 0 {
		position = s.rnd.Intn(window)
	}
	return target.URI, position
}

func (s *Session) questionViewLocked() domain.Question {
	options := make([]domain.AnswerOption, 0, len(s.q.options))
	for _, t := range s.q.options {
		options = append(options, domain.AnswerOption{ID: t.ID, Label: t.Label()})
	}
	return domain.Question{
		Index:         s.questionIndex,
		Total:         len(s.picks),
		TimeRemaining: s.q.timeRemaining,
		Options:       options,
	}
}

func (s *Session) runCountdown(ctx context.Context) {
	interval := s.cfg.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.tick() {
				// Timed out: resolves as a null answer, exactly once.
				if _, err := s.Answer(""); err != nil {
					s.logger.Debug().Err(err).Msg("timeout answer dropped")
				}
				return
			}
		}
	}
}

// tick decrements the countdown and reports whether it hit zero.
func (s *Session) tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateInProgress || s.q == nil || s.q.answered {
		return false
	}
	s.q.timeRemaining--
	if s.q.timeRemaining <= 0 {
		s.q.timeRemaining = 0
		return true
	}
	s.broadcastLocked(Event{Type: EventTick, Payload: TickPayload{
		QuestionIndex: s.questionIndex,
		TimeRemaining: s.q.timeRemaining,
	}})
	return false
}

// advance fires after the feedback delay: next question or finish.
func (s *Session) advance() {
	s.mu.Lock()
	if s.closed || s.state != StateInProgress {
		s.mu.Unlock()
		return
	}
	s.advanceTimer = nil
	next := s.questionIndex + 1
	if next < len(s.picks) {
		s.questionIndex = next
		uri, position := s.loadQuestionLocked(next)
		s.mu.Unlock()
		s.play(uri, position)
		return
	}

	s.state = StateFinished
	score := s.score
	questions := len(s.picks)
	s.mu.Unlock()

	if err := s.player.Pause(s.ctx); err != nil {
		s.logger.Warn().Err(err).Msg("pause failed")
	}

	summary := domain.Summary{UserID: s.userID, Score: score, Questions: questions, HighScore: score}
	if s.scores != nil {
		best, updated, err := s.scores.Record(s.ctx, s.userID, score)
		if err != nil {
			s.logger.Error().Err(err).Msg("record high score failed")
		} else {
			summary.HighScore = best
			summary.NewHighScore = updated
		}
	}
	s.logger.Info().Int("score", score).Int("high_score", summary.HighScore).Msg("quiz finished")

	s.mu.Lock()
	if !s.closed {
		s.broadcastLocked(Event{Type: EventFinished, Payload: summary})
	}
	s.mu.Unlock()
}

func (s *Session) play(uri string, positionMS int) {
	if err := s.player.Play(s.ctx, uri, positionMS); err != nil {
		// Non-fatal: the countdown keeps the quiz moving.
		s.logger.Warn().Err(err).Str("uri", uri).Msg("play command failed")
	}
}

func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest pending event rather than block the session
			// on a slow subscriber.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func hasOption(options []domain.Track, id string) bool {
	for _, opt := range options {
		if opt.ID == id {
			return true
		}
	}
	return false
}
