// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/globequiz/internal/model"
	"github.com/verte-zerg/globequiz/internal/quiz"
	"github.com/verte-zerg/globequiz/internal/stats"
	"github.com/verte-zerg/globequiz/internal/store"
)

const (
	tabOverview = iota
	tabCategories
	tabMissed
	tabHistory
)

const (
	missedTop        = 15
	defaultBodyWidth = 80
	minCurveWindow   = 1
	maxCurveWindow   = 200
)

const (
	fieldCategory = iota
	fieldSince
	fieldLast
	fieldWindow
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

type keyMap struct {
	Quit      key.Binding
	PrevTab   key.Binding
	NextTab   key.Binding
	Wider     key.Binding
	Narrower  key.Binding
	Settings  key.Binding
	Top       key.Binding
	Bottom    key.Binding
	NextField key.Binding
	PrevField key.Binding
	Apply     key.Binding
	Cancel    key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	PrevTab:   key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←/→", "tabs")),
	NextTab:   key.NewBinding(key.WithKeys("right", "l", "tab")),
	Wider:     key.NewBinding(key.WithKeys("=", "+"), key.WithHelp("-/=", "window")),
	Narrower:  key.NewBinding(key.WithKeys("-")),
	Settings:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "settings")),
	Top:       key.NewBinding(key.WithKeys("g", "home")),
	Bottom:    key.NewBinding(key.WithKeys("G", "end")),
	NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab", "up")),
	Apply:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
	Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig
	names map[string]string
	now   func() time.Time

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	catTable  table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a stats UI model. names maps country codes to display names and
// may be nil.
func NewModel(st *store.Store, cfg model.StatsConfig, names map[string]string) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		names: names,
		now:   time.Now,
		tabs:  []string{"Overview", "Categories", "Missed", "History"},
	}
	m.initInputs()
	m.catTable = buildCategoryTable(nil, defaultBodyWidth, 1)
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
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
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if m.filterMode {
			if msg.Type == tea.KeyCtrlC {
				return m, tea.Quit
			}
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.PrevTab):
		m.moveTab(-1)
		return m, tea.ClearScreen
	case key.Matches(msg, keys.NextTab):
		m.moveTab(1)
		return m, tea.ClearScreen
	case key.Matches(msg, keys.Wider):
		m.cfg.CurveWindow = min(m.cfg.CurveWindow+1, maxCurveWindow)
		m.refreshReport()
	case key.Matches(msg, keys.Narrower):
		m.cfg.CurveWindow = max(m.cfg.CurveWindow-1, minCurveWindow)
		m.refreshReport()
	case key.Matches(msg, keys.Settings):
		return m.startFilter()
	case key.Matches(msg, keys.Top):
		if m.activeTab == tabCategories {
			m.catTable.GotoTop()
		} else {
			m.viewports[m.activeTab].GotoTop()
		}
	case key.Matches(msg, keys.Bottom):
		if m.activeTab == tabCategories {
			m.catTable.GotoBottom()
		} else {
			m.viewports[m.activeTab].GotoBottom()
		}
	default:
		var cmd tea.Cmd
		if m.activeTab == tabCategories {
			m.catTable, cmd = m.catTable.Update(msg)
			return m, cmd
		}
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Category: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.filterInputs[fieldCategory].Placeholder = "capitals, flags, geography, population"
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[fieldCategory].SetValue(string(m.cfg.Category))
	if m.cfg.Since != nil {
		m.filterInputs[fieldSince].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[fieldSince].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[fieldLast].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[fieldLast].SetValue("")
	}
	m.filterInputs[fieldWindow].SetValue(strconv.Itoa(m.cfg.CurveWindow))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.catTable.SetWidth(m.width)
	m.catTable.SetHeight(max(bodyHeight-1, 1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabCategories {
		m.catTable.Focus()
	} else {
		m.catTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return m.renderTabs() + "\n" + m.renderFilterSummary()
}

func (m *Model) renderFilterSummary() string {
	category := string(m.cfg.Category)
	if category == "" {
		category = "any"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Settings: category=%s  since=%s  last=%s  window=%d", category, since, last, m.cfg.CurveWindow)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render(helpLine(keys.NextField, keys.Apply, keys.Cancel))
	}
	help := headerStyle.Render(helpLine(keys.PrevTab, keys.Wider, keys.Settings, keys.Quit))
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		lines := []string{"Settings (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return fitLines(strings.Join(lines, "\n"), m.width, height)
	}
	if m.activeTab == tabCategories {
		if len(m.report.Categories) == 0 {
			return fitLines("No quizzes found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.catTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) bodyWidth() int {
	if m.width <= 0 {
		return defaultBodyWidth
	}
	return m.width
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.renderTabContents()
		return
	}
	m.errMsg = ""
	m.report = report
	_, bodyHeight, _ := m.layoutHeights()
	m.catTable = buildCategoryTable(report.Categories, m.bodyWidth(), bodyHeight)
	if m.activeTab == tabCategories {
		m.catTable.Focus()
	}
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	width := m.bodyWidth()
	m.viewports[tabOverview].SetContent(renderOverview(m.report.Sessions, m.cfg.CurveWindow, width))
	m.viewports[tabMissed].SetContent(renderWith(func(buf *bytes.Buffer) error {
		return stats.RenderMissedTable(buf, m.report.Missed, m.names, missedTop)
	}))
	if len(m.report.Sessions) == 0 {
		m.viewports[tabHistory].SetContent("No quizzes found.")
		return
	}
	m.viewports[tabHistory].SetContent(renderWith(func(buf *bytes.Buffer) error {
		return stats.RenderHistory(buf, m.report.Sessions, m.now(), 0)
	}))
}

func renderOverview(sessions []model.SessionAggregate, window, width int) string {
	if len(sessions) == 0 {
		return "No quizzes found."
	}
	cards := renderSummaryCards(sessions, width)
	trend := renderWith(func(buf *bytes.Buffer) error {
		return stats.RenderTrend(buf, sessions, window, width)
	})
	return cards + "\n\n" + trend
}

func renderSummaryCards(sessions []model.SessionAggregate, width int) string {
	var totalPct, correct, questions, best int
	for _, s := range sessions {
		totalPct += s.Percentage
		correct += s.Score
		questions += s.Total
		best = max(best, s.Percentage)
	}
	last := sessions[len(sessions)-1]
	cards := []string{
		metricCard("Quizzes", strconv.Itoa(len(sessions))),
		metricCard("Avg score", fmt.Sprintf("%.1f%%", float64(totalPct)/float64(len(sessions)))),
		metricCard("Best", fmt.Sprintf("%d%%", best)),
		metricCard("Accuracy", fmt.Sprintf("%d/%d", correct, questions)),
		metricCard("Last", fmt.Sprintf("%d%% %s", last.Percentage, quiz.TierFor(last.Percentage).Emoji())),
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if lipgloss.Width(row) <= width {
		return row
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderWith(render func(buf *bytes.Buffer) error) string {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Sprintf("Failed to render: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func buildCategoryTable(aggs []model.CategoryAggregate, width, height int) table.Model {
	headers, cells := stats.CategoryRows(aggs)
	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		columns[i] = table.Column{Title: h, Width: max(len(h), 10)}
	}
	rows := make([]table.Row, len(cells))
	for i, c := range cells {
		rows[i] = table.Row(c)
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(max(height-1, 1)),
	)
	t.SetWidth(width)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.filterInputs)
	switch {
	case key.Matches(msg, keys.Cancel):
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case key.Matches(msg, keys.NextField):
		return m, m.setFilterIndex((m.filterIndex + 1) % count)
	case key.Matches(msg, keys.PrevField):
		return m, m.setFilterIndex((m.filterIndex + count - 1) % count)
	case key.Matches(msg, keys.Apply):
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.refreshReport()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == idx {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	cfg := m.cfg
	cfg.Category = ""
	if raw := strings.TrimSpace(m.filterInputs[fieldCategory].Value()); raw != "" {
		category, err := model.ParseCategory(raw)
		if err != nil {
			return err
		}
		cfg.Category = category
	}
	cfg.Since = nil
	if raw := strings.TrimSpace(m.filterInputs[fieldSince].Value()); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date: %w", err)
		}
		cfg.Since = &parsed
	}
	cfg.Last = 0
	if raw := strings.TrimSpace(m.filterInputs[fieldLast].Value()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("last must be a non-negative number")
		}
		cfg.Last = n
	}
	if raw := strings.TrimSpace(m.filterInputs[fieldWindow].Value()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minCurveWindow || n > maxCurveWindow {
			return fmt.Errorf("curve window must be between %d and %d", minCurveWindow, maxCurveWindow)
		}
		cfg.CurveWindow = n
	}
	m.cfg = cfg
	return nil
}

// fitLines clips or pads s to exactly width x height cells.
func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	clipped := lipgloss.NewStyle().MaxWidth(width).MaxHeight(height).Render(s)
	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, clipped)
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
