// Package tui provides the Bubble Tea quiz interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/globequiz/internal/generator"
	"github.com/verte-zerg/globequiz/internal/model"
	"github.com/verte-zerg/globequiz/internal/quiz"
	statsPkg "github.com/verte-zerg/globequiz/internal/stats"
	"github.com/verte-zerg/globequiz/internal/store"
)

type screen int

const (
	screenHome screen = iota
	screenQuiz
	screenResults
)

// tickMsg carries the timer it was scheduled for; the session drops it if that timer
// is no longer current.
type tickMsg struct {
	id int64
}

func tickCmd(id int64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{id: id}
	})
}

// Model implements the Bubble Tea quiz UI.
type Model struct {
	config  model.Config
	store   *store.Store
	log     *zap.Logger
	focus   *generator.Focus
	session *quiz.Session
	clip    func(string) error

	width  int
	height int

	screen screen
	cursor int
	bar    progress.Model

	result model.Result
	notice string
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warningStyle  = wrongStyle.Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// NewModel constructs a quiz TUI model. st may be nil, in which case results are not saved.
func NewModel(cfg model.Config, st *store.Store, focus *generator.Focus, pool []model.Country, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Model{
		config: cfg,
		store:  st,
		log:    log,
		focus:  focus,
		clip:   clipboard.WriteAll,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	m.session = quiz.New(focus, pool, quiz.Options{
		Questions:    cfg.Questions,
		TimerSeconds: cfg.TimerSeconds,
	})
	m.cursor = categoryIndex(cfg.Category)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width-8, 10), 60)
		return m, nil
	case tickMsg:
		if m.session.Tick(msg.id) {
			return m, tickCmd(msg.id)
		}
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenHome:
			return m.updateHome(key)
		case screenQuiz:
			return m.updateQuiz(key)
		default:
			return m.updateResults(key)
		}
	default:
		return m, nil
	}
}

func (m *Model) updateHome(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = (m.cursor + len(model.Categories) - 1) % len(model.Categories)
	case "down", "j":
		m.cursor = (m.cursor + 1) % len(model.Categories)
	case "enter", " ":
		return m, m.start(model.Categories[m.cursor])
	default:
		if idx, ok := digitIndex(key, len(model.Categories)); ok {
			m.cursor = idx
			return m, m.start(model.Categories[idx])
		}
	}
	return m, nil
}

func (m *Model) updateQuiz(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "h", "esc":
		m.goHome()
		return m, nil
	}
	if m.session.Phase() == quiz.PhaseAnswered {
		switch key {
		case "enter", " ", "n", "right":
			return m, m.next()
		}
		return m, nil
	}
	q, ok := m.session.Current()
	if !ok {
		return m, nil
	}
	switch key {
	case "up", "k":
		m.cursor = (m.cursor + len(q.Options) - 1) % len(q.Options)
	case "down", "j":
		m.cursor = (m.cursor + 1) % len(q.Options)
	case "enter", " ":
		m.session.Select(m.cursor)
	default:
		if idx, ok := digitIndex(key, len(q.Options)); ok {
			m.cursor = idx
			m.session.Select(idx)
		}
	}
	return m, nil
}

func (m *Model) updateResults(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "h", "esc":
		m.goHome()
	case "r":
		if !m.session.Restart() {
			return m, nil
		}
		return m, m.enterQuestion()
	case "s":
		m.share()
	}
	return m, nil
}

func (m *Model) start(category model.Category) tea.Cmd {
	m.session.Start(category)
	return m.enterQuestion()
}

// enterQuestion syncs the screen with a freshly displayed question or a completed session.
func (m *Model) enterQuestion() tea.Cmd {
	m.cursor = 0
	m.notice = ""
	if m.session.State() == quiz.StateCompleted {
		m.finish()
		return nil
	}
	m.screen = screenQuiz
	return tickCmd(m.session.TimerID())
}

func (m *Model) next() tea.Cmd {
	if !m.session.Next() {
		return nil
	}
	return m.enterQuestion()
}

func (m *Model) goHome() {
	category := m.session.Category()
	m.session.Home()
	m.screen = screenHome
	m.cursor = categoryIndex(category)
	m.notice = ""
}

func (m *Model) finish() {
	m.screen = screenResults
	res, err := m.session.Result()
	if err != nil {
		m.log.Error("quiz result unavailable", zap.Error(err))
		return
	}
	m.result = res
	m.log.Info("quiz completed",
		zap.String("session", res.SessionID),
		zap.String("category", string(res.Category)),
		zap.Int("score", res.Score),
		zap.Int("total", res.Total),
		zap.String("tier", res.Tier.Key()),
	)
	if m.store == nil || res.Total == 0 {
		return
	}
	if _, err := m.store.InsertSession(context.Background(), res); err != nil {
		m.log.Error("failed to save session", zap.String("session", res.SessionID), zap.Error(err))
		m.notice = "Could not save this result."
		return
	}
	if m.config.FocusMissed {
		m.refreshMissed()
	}
}

func (m *Model) refreshMissed() {
	aggs, err := m.store.GetMissedCountries(context.Background(), m.config.MissedWindow, "")
	if err != nil {
		m.log.Warn("failed to load missed countries", zap.Error(err))
		return
	}
	m.focus.Missed = statsPkg.SelectMissed(aggs, m.config.MissedTop)
	m.log.Debug("missed set refreshed", zap.Int("countries", len(m.focus.Missed)))
}

func (m *Model) share() {
	text := quiz.ShareText(m.result)
	if err := m.clip(text); err != nil {
		m.log.Warn("clipboard unavailable", zap.Error(err))
		m.notice = text
		return
	}
	m.notice = "Copied to clipboard: " + text
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.screen {
	case screenQuiz:
		content = m.renderQuiz()
	case screenResults:
		content = m.renderResults()
	default:
		content = m.renderHome()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(int(float64(m.width)*0.70), 20)
}

func (m *Model) renderHome() string {
	lines := []string{
		titleStyle.Render("Country Explorer Quiz"),
		dimStyle.Render("Choose a category"),
		"",
	}
	for i, c := range model.Categories {
		label := fmt.Sprintf("%d. %s", i+1, c.Title())
		if i == m.cursor {
			lines = append(lines, selectedStyle.Render("› "+label))
		} else {
			lines = append(lines, textStyle.Render("  "+label))
		}
	}
	if m.focus != nil && m.config.FocusMissed && len(m.focus.Missed) > 0 {
		lines = append(lines, "", dimStyle.Render(fmt.Sprintf("Focusing on %d missed countries", len(m.focus.Missed))))
	}
	lines = append(lines, "", footerStyle.Render("↑/↓ move · enter start · 1-4 pick · q quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderQuiz() string {
	q, ok := m.session.Current()
	if !ok {
		return ""
	}
	width := m.contentWidth()
	answered := m.session.Phase() == quiz.PhaseAnswered

	timer := fmt.Sprintf("⏱ %ds", m.session.Remaining())
	if m.session.Warning() {
		timer = warningStyle.Render(timer)
	} else {
		timer = dimStyle.Render(timer)
	}
	header := fmt.Sprintf("%s  ·  Question %d/%d  ·  Score %d",
		m.session.Category().Title(), m.session.Index()+1, m.session.Total(), m.session.Score())
	lines := []string{
		dimStyle.Render(header) + "  " + timer,
		m.bar.ViewAs(float64(len(m.session.Answers())) / float64(m.session.Total())),
		"",
	}
	if q.FlagEmoji != "" || q.FlagImageRef != "" {
		if q.FlagEmoji != "" {
			lines = append(lines, q.FlagEmoji)
		}
		if q.FlagImageRef != "" {
			lines = append(lines, dimStyle.Render(truncate(q.FlagImageRef, width)))
		}
		lines = append(lines, "")
	}
	for _, l := range wrapText(q.Prompt, width) {
		lines = append(lines, textStyle.Bold(true).Render(l))
	}
	lines = append(lines, "")

	rec, _ := m.session.LastRecord()
	for i, opt := range q.Options {
		label := truncate(fmt.Sprintf("%d. %s", i+1, opt), width-2)
		switch {
		case answered && i == q.CorrectIndex:
			lines = append(lines, correctStyle.Render("✓ "+label))
		case answered && i == rec.Selected:
			lines = append(lines, wrongStyle.Render("✗ "+label))
		case answered:
			lines = append(lines, dimStyle.Render("  "+label))
		case i == m.cursor:
			lines = append(lines, selectedStyle.Render("› "+label))
		default:
			lines = append(lines, textStyle.Render("  "+label))
		}
	}

	if answered {
		lines = append(lines, "", m.renderFeedback(q, rec, width))
		hint := "enter next question"
		if m.session.IsLast() {
			hint = "enter see results"
		}
		lines = append(lines, "", footerStyle.Render(hint+" · h home · q quit"))
	} else {
		lines = append(lines, "", footerStyle.Render("1-4 answer · ↑/↓ + enter · h home · q quit"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFeedback(q model.Question, rec model.AnswerRecord, width int) string {
	var title string
	style := wrongStyle
	switch {
	case rec.TimedOut:
		title = "Time's up!"
	case rec.Correct:
		title = "Correct!"
		style = correctStyle
	default:
		title = "Incorrect!"
	}
	body := []string{style.Bold(true).Render(title)}
	if !rec.Correct {
		body = append(body, textStyle.Render("Answer: "+q.CorrectOption()))
	}
	for _, l := range wrapText(q.Explanation, width-4) {
		body = append(body, dimStyle.Render(l))
	}
	return cardStyle.BorderForeground(style.GetForeground()).Render(strings.Join(body, "\n"))
}

func (m *Model) renderResults() string {
	res := m.result
	width := m.contentWidth()
	lines := []string{
		titleStyle.Render("Quiz complete!"),
		"",
		fmt.Sprintf("%s %s", res.Tier.Emoji(), selectedStyle.Render(res.Tier.Label())),
		textStyle.Render(fmt.Sprintf("Score %d/%d (%d%%)", res.Score, res.Total, res.Percentage)),
		dimStyle.Render(res.Tier.Message()),
		"",
	}
	if res.Total == 0 {
		lines = append(lines, dimStyle.Render("Not enough countries to build questions."))
	}
	correct := 0
	for i, rec := range res.Records {
		mark := wrongStyle.Render("✗")
		if rec.Correct {
			mark = correctStyle.Render("✓")
			correct++
		}
		label := truncate(rec.Prompt, width-8)
		if rec.TimedOut {
			label = truncate(rec.Prompt, width-20) + dimStyle.Render(" (timed out)")
		}
		lines = append(lines, fmt.Sprintf("Q%d %s %s", i+1, mark, label))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("%s  %s",
			correctStyle.Render(fmt.Sprintf("Correct: %d", correct)),
			wrongStyle.Render(fmt.Sprintf("Incorrect: %d", len(res.Records)-correct))),
	)
	if m.notice != "" {
		lines = append(lines, "", dimStyle.Render(truncate(m.notice, width)))
	}
	lines = append(lines, "", footerStyle.Render("r restart · s share · h home · q quit"))
	return strings.Join(lines, "\n")
}

func categoryIndex(c model.Category) int {
	for i, cat := range model.Categories {
		if cat == c {
			return i
		}
	}
	return 0
}

func digitIndex(key string, n int) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	idx := int(key[0] - '1')
	if idx >= n {
		return 0, false
	}
	return idx, true
}
