// Package quiz implements the quiz session state machine.
//
// A Session moves Idle -> InProgress -> Completed. While in progress every question
// cycles Displayed -> Answered and the caller advances with Next. The countdown is
// driven externally: the caller delivers one Tick per second carrying the TimerID that
// was current when the tick was scheduled, and ticks for any other timer are ignored.
package quiz

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/globequiz/internal/model"
)

const (
	// DefaultTimerSeconds is the countdown for each question.
	DefaultTimerSeconds = 30
	// WarningSeconds is the remaining time at which the timer is highlighted.
	WarningSeconds = 10
	// DefaultQuestions is the length of a quiz.
	DefaultQuestions = 5
)

// ErrNotCompleted is returned when a result is requested before the quiz ends.
var ErrNotCompleted = errors.New("quiz is not completed")

// State is the top-level session state.
type State int

// Session states.
const (
	StateIdle State = iota
	StateInProgress
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// Phase is the per-question sub-state while in progress.
type Phase int

// Question phases.
const (
	PhaseNone Phase = iota
	PhaseDisplayed
	PhaseAnswered
)

// QuestionSource produces the questions for a session.
type QuestionSource interface {
	Generate(category model.Category, pool []model.Country, count int) []model.Question
}

// Options tunes a session.
type Options struct {
	Questions    int
	TimerSeconds int
	Now          func() time.Time
}

// Session is one player's quiz. It is not safe for concurrent use; the owner serializes
// all events.
type Session struct {
	source QuestionSource
	pool   []model.Country
	opts   Options

	id        string
	state     State
	phase     Phase
	category  model.Category
	questions []model.Question
	index     int
	records   []model.AnswerRecord
	score     int

	remaining   int
	timerID     int64
	lastTimerID int64

	startedAt   time.Time
	endedAt     time.Time
	displayedAt time.Time
}

// New constructs an idle session over a read-only country pool.
func New(source QuestionSource, pool []model.Country, opts Options) *Session {
	if opts.Questions <= 0 {
		opts.Questions = DefaultQuestions
	}
	if opts.TimerSeconds <= 0 {
		opts.TimerSeconds = DefaultTimerSeconds
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{source: source, pool: pool, opts: opts}
}

// Start generates fresh questions for the category and shows the first one.
func (s *Session) Start(category model.Category) {
	s.reset()
	s.id = uuid.NewString()
	s.category = category
	s.state = StateInProgress
	s.startedAt = s.opts.Now()
	s.questions = s.source.Generate(category, s.pool, s.opts.Questions)
	if len(s.questions) == 0 {
		s.complete()
		return
	}
	s.display(0)
}

// Select answers the displayed question. It reports whether the selection was recorded.
func (s *Session) Select(option int) bool {
	if s.state != StateInProgress || s.phase != PhaseDisplayed {
		return false
	}
	if option < 0 || option >= len(s.questions[s.index].Options) {
		return false
	}
	s.record(option, false)
	return true
}

// Tick advances the countdown of timer id by one second. It reports whether the timer
// is still running; stale or cancelled timers are ignored.
func (s *Session) Tick(id int64) bool {
	if id == 0 || id != s.timerID || s.phase != PhaseDisplayed {
		return false
	}
	s.remaining--
	if s.remaining > 0 {
		return true
	}
	s.remaining = 0
	s.record(model.NoSelection, true)
	return false
}

// Next moves from an answered question to the next one or to completion.
func (s *Session) Next() bool {
	if s.state != StateInProgress || s.phase != PhaseAnswered {
		return false
	}
	if s.index+1 >= len(s.questions) {
		s.complete()
		return true
	}
	s.display(s.index + 1)
	return true
}

// Home cancels any pending timer and discards the session.
func (s *Session) Home() {
	s.reset()
}

// Restart replays the current category with freshly generated questions.
func (s *Session) Restart() bool {
	category := s.category
	if category == "" {
		return false
	}
	s.Start(category)
	return true
}

// Result summarizes a completed session.
func (s *Session) Result() (model.Result, error) {
	if s.state != StateCompleted {
		return model.Result{}, ErrNotCompleted
	}
	total := len(s.questions)
	pct := Percentage(s.score, total)
	records := make([]model.AnswerRecord, len(s.records))
	copy(records, s.records)
	return model.Result{
		SessionID:  s.id,
		Category:   s.category,
		Score:      s.score,
		Total:      total,
		Percentage: pct,
		Tier:       TierFor(pct),
		Answers:    s.Answers(),
		Records:    records,
		StartedAt:  s.startedAt,
		EndedAt:    s.endedAt,
	}, nil
}

// ID returns the identifier of the running session.
func (s *Session) ID() string { return s.id }

// State returns the top-level state.
func (s *Session) State() State { return s.state }

// Phase returns the per-question phase.
func (s *Session) Phase() Phase { return s.phase }

// Category returns the category of the current session.
func (s *Session) Category() model.Category { return s.category }

// Index returns the zero-based position of the current question.
func (s *Session) Index() int { return s.index }

// Total returns the number of generated questions.
func (s *Session) Total() int { return len(s.questions) }

// Score returns the number of correct answers so far.
func (s *Session) Score() int { return s.score }

// Remaining returns the seconds left on the countdown.
func (s *Session) Remaining() int { return s.remaining }

// TimerID identifies the active countdown, or 0 when none is running.
func (s *Session) TimerID() int64 { return s.timerID }

// Warning reports whether the countdown is in its final seconds.
func (s *Session) Warning() bool {
	return s.phase == PhaseDisplayed && s.remaining <= WarningSeconds
}

// Current returns the question being shown or answered.
func (s *Session) Current() (model.Question, bool) {
	if s.state != StateInProgress || s.index >= len(s.questions) {
		return model.Question{}, false
	}
	return s.questions[s.index], true
}

// IsLast reports whether the current question is the final one.
func (s *Session) IsLast() bool {
	return s.index == len(s.questions)-1
}

// Answers returns the correct/incorrect sequence recorded so far.
func (s *Session) Answers() []bool {
	out := make([]bool, len(s.records))
	for i, r := range s.records {
		out[i] = r.Correct
	}
	return out
}

// Records returns a copy of the answer records.
func (s *Session) Records() []model.AnswerRecord {
	out := make([]model.AnswerRecord, len(s.records))
	copy(out, s.records)
	return out
}

// LastRecord returns the most recent answer.
func (s *Session) LastRecord() (model.AnswerRecord, bool) {
	if len(s.records) == 0 {
		return model.AnswerRecord{}, false
	}
	return s.records[len(s.records)-1], true
}

func (s *Session) display(index int) {
	s.index = index
	s.phase = PhaseDisplayed
	s.remaining = s.opts.TimerSeconds
	s.lastTimerID++
	s.timerID = s.lastTimerID
	s.displayedAt = s.opts.Now()
}

func (s *Session) record(selected int, timedOut bool) {
	s.timerID = 0
	q := s.questions[s.index]
	correct := !timedOut && selected == q.CorrectIndex
	if correct {
		s.score++
	}
	s.records = append(s.records, model.AnswerRecord{
		Position:    s.index,
		SubjectCode: q.SubjectCode,
		Prompt:      q.Prompt,
		Selected:    selected,
		Correct:     correct,
		TimedOut:    timedOut,
		Elapsed:     s.opts.Now().Sub(s.displayedAt),
	})
	s.phase = PhaseAnswered
}

func (s *Session) complete() {
	s.state = StateCompleted
	s.phase = PhaseNone
	s.timerID = 0
	s.endedAt = s.opts.Now()
}

// reset keeps lastTimerID so ticks from a discarded session never match a new timer.
func (s *Session) reset() {
	s.id = ""
	s.state = StateIdle
	s.phase = PhaseNone
	s.category = ""
	s.questions = nil
	s.index = 0
	s.records = nil
	s.score = 0
	s.remaining = 0
	s.timerID = 0
	s.startedAt = time.Time{}
	s.endedAt = time.Time{}
	s.displayedAt = time.Time{}
}
