// Package tui renders the questionnaire in a terminal with bubbletea. The
// model drives a survey.Session directly and hands finished records to a
// survey.Submitter.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mintsurvey/survey-service/internal/survey"
)

const consentText = `MintSurvey is conducting a short survey to better understand vehicle
ownership habits, preferences and experiences.

  • All your responses will remain strictly confidential.
  • No personally identifiable information will be shared with third parties.
  • The data collected will be used only for research purposes.
  • The survey will take less than 5 minutes to complete.`

// submitDoneMsg carries the result of a submission started by BeginSubmit.
type submitDoneMsg struct {
	pending *survey.Pending
	err     error
}

type Model struct {
	ctx       context.Context
	session   *survey.Session
	submitter survey.Submitter

	input    textinput.Model
	progress progress.Model
	styles   Styles

	// question is the question focus and cursor belong to.
	question survey.QuestionID
	focus    int
	cursor   int

	width    int
	status   string
	quitting bool
}

func New(ctx context.Context, session *survey.Session, submitter survey.Submitter) Model {
	ti := textinput.New()
	ti.CharLimit = 120
	ti.Width = 48

	m := Model{
		ctx:       ctx,
		session:   session,
		submitter: submitter,
		input:     ti,
		progress:  progress.New(progress.WithDefaultGradient()),
		styles:    DefaultStyles(),
		width:     80,
	}
	m.sync()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-8, 60)
		return m, nil

	case submitDoneMsg:
		m.session.CompleteSubmit(msg.pending, msg.err)
		m.status = ""
		m.sync()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.session.Stage() {
		case survey.StageConsent:
			return m.updateConsent(msg)
		case survey.StageSurvey:
			return m.updateSurvey(msg)
		default:
			if k := msg.String(); k == "q" || k == "enter" || k == "esc" {
				m.quitting = true
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m Model) updateConsent(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.report(m.session.Agree())
		return m, m.sync()
	case "n":
		m.report(m.session.Disagree())
	case "esc", "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateSurvey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.session.View()
	if view.InFlight {
		return m, nil
	}
	q, ok := view.Current()
	if !ok || len(q.Inputs) == 0 {
		return m, nil
	}
	in := q.Inputs[clamp(m.focus, len(q.Inputs))]
	key := msg.String()

	switch key {
	case "esc":
		m.quitting = true
		return m, tea.Quit
	case "tab", "shift+tab":
		if outcome, err := m.commitText(in); outcome != survey.OutcomeStay || err != nil {
			return m.after(outcome, err)
		}
		step := 1
		if key == "shift+tab" {
			step = len(q.Inputs) - 1
		}
		m.focus = (m.focus + step) % len(q.Inputs)
		m.cursor = 0
		return m, m.loadInput()
	case "ctrl+n", "ctrl+s", "enter":
		if !isText(in.Kind) && key == "enter" {
			break
		}
		if outcome, err := m.commitText(in); outcome != survey.OutcomeStay || err != nil {
			return m.after(outcome, err)
		}
		if key == "ctrl+s" || (key == "enter" && m.session.View().ShowSubmit) {
			return m.submit()
		}
		return m.next()
	}

	if isText(in.Kind) {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	options := optionsOf(in)
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(options)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(options) == 0 {
			return m, nil
		}
		return m.choose(in, options[clamp(m.cursor, len(options))])
	}
	return m, nil
}

func (m Model) choose(in survey.Input, option string) (tea.Model, tea.Cmd) {
	var (
		outcome survey.Outcome
		err     error
	)
	switch in.Field {
	case survey.FieldPurchaseTypes:
		outcome, err = m.session.TogglePurchaseType(option)
	case survey.FieldRecommendReasons:
		outcome, err = m.session.ToggleReason(option)
	default:
		outcome, err = m.session.SetField(in.Field, option)
	}
	return m.after(outcome, err)
}

func (m Model) next() (tea.Model, tea.Cmd) {
	if !m.session.View().ShowNext && !m.session.View().ShowSubmit {
		return m, nil
	}
	return m.after(m.session.Next())
}

func (m Model) after(outcome survey.Outcome, err error) (tea.Model, tea.Cmd) {
	m.report(err)
	if outcome == survey.OutcomeSubmit {
		return m.submit()
	}
	return m, m.sync()
}

// submit starts a submission. The submitter runs as a command so the UI
// keeps drawing while the request is in flight.
func (m Model) submit() (tea.Model, tea.Cmd) {
	pending, err := m.session.BeginSubmit()
	if err != nil {
		m.report(err)
		return m, m.sync()
	}
	m.status = "Submitting…"
	ctx, submitter := m.ctx, m.submitter
	return m, func() tea.Msg {
		return submitDoneMsg{pending: pending, err: submitter.Submit(ctx, pending.Record)}
	}
}

// commitText stores the text input into the focused field when it changed.
// Completing a companion field can advance the wizard on its own.
func (m *Model) commitText(in survey.Input) (survey.Outcome, error) {
	if !isText(in.Kind) || m.input.Value() == in.Value {
		return survey.OutcomeStay, nil
	}
	return m.session.SetField(in.Field, m.input.Value())
}

// report keeps unexpected errors in the status line. Validation failures
// are already part of the view.
func (m *Model) report(err error) {
	switch {
	case err == nil, errors.Is(err, survey.ErrValidationFailed):
		m.status = ""
	default:
		m.status = err.Error()
	}
}

// sync resets focus when the current question changed and loads the focused
// input.
func (m *Model) sync() tea.Cmd {
	q, ok := m.session.View().Current()
	if !ok {
		m.input.Blur()
		return nil
	}
	if q.ID != m.question {
		m.question = q.ID
		m.focus = 0
		m.cursor = 0
	}
	return m.loadInput()
}

func (m *Model) loadInput() tea.Cmd {
	q, ok := m.session.View().Current()
	if !ok || len(q.Inputs) == 0 {
		m.input.Blur()
		return nil
	}
	in := q.Inputs[clamp(m.focus, len(q.Inputs))]
	if !isText(in.Kind) {
		m.input.Blur()
		return nil
	}
	m.input.SetValue(in.Value)
	m.input.Placeholder = in.Placeholder
	m.input.CursorEnd()
	return m.input.Focus()
}

// ===== VIEW =====

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.styles
	view := m.session.View()

	var b strings.Builder
	b.WriteString(s.Title.Render("Vehicle Ownership Survey"))
	b.WriteString("\n\n")

	switch view.Stage {
	case survey.StageConsent:
		b.WriteString(consentText)
		b.WriteString("\n\n")
		b.WriteString(s.Help.Render("y agree · n disagree · esc quit"))
	case survey.StageDeclined, survey.StageSubmitted:
		b.WriteString(m.progress.ViewAs(1))
		b.WriteString("\n\n")
		b.WriteString(s.Success.Render("Thank You for Your Feedback!"))
		b.WriteString("\nWe sincerely appreciate your time and interest.\n\n")
		b.WriteString(s.Help.Render("q quit"))
	default:
		m.renderSurvey(&b, view)
	}

	return s.Box.Render(b.String()) + "\n"
}

func (m Model) renderSurvey(b *strings.Builder, view survey.View) {
	s := m.styles
	b.WriteString(m.progress.ViewAs(float64(view.Progress) / 100))
	fmt.Fprintf(b, " %d%%\n\n", view.Progress)

	q, ok := view.Current()
	if !ok {
		return
	}
	b.WriteString(s.Prompt.Render(fmt.Sprintf("%d. %s", q.Number, q.Prompt)))
	b.WriteString("\n")
	if q.Note != "" {
		b.WriteString(s.Muted.Render(q.Note))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	focus := clamp(m.focus, len(q.Inputs))
	for i, in := range q.Inputs {
		m.renderInput(b, in, i == focus)
		if msg, ok := view.Errors[in.Field]; ok {
			b.WriteString(s.Error.Render("  " + msg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if msg, ok := view.Errors[survey.FieldForm]; ok {
		b.WriteString(s.Error.Render(msg))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(s.Muted.Render(m.status))
		b.WriteString("\n")
	}

	help := []string{"↑/↓ move", "enter choose", "tab next field"}
	if view.ShowNext {
		help = append(help, "ctrl+n next")
	}
	if view.ShowSubmit {
		help = append(help, "ctrl+s submit")
	}
	help = append(help, "esc quit")
	b.WriteString(s.Help.Render(strings.Join(help, " · ")))
}

func (m Model) renderInput(b *strings.Builder, in survey.Input, focused bool) {
	s := m.styles
	if in.Label != "" {
		b.WriteString(s.Label.Render(in.Label))
		b.WriteString("\n")
	}

	if isText(in.Kind) {
		switch {
		case focused:
			b.WriteString(m.input.View())
		case in.Value != "":
			b.WriteString(in.Value)
		default:
			b.WriteString(s.Muted.Render(in.Placeholder))
		}
		b.WriteString("\n")
		return
	}

	for i, opt := range optionsOf(in) {
		pointer := "  "
		if focused && i == clamp(m.cursor, len(optionsOf(in))) {
			pointer = s.Cursor.Render("> ")
		}
		line := marker(in, opt) + " " + opt
		if chosen(in, opt) {
			line = s.Selected.Render(line)
		}
		b.WriteString(pointer + line + "\n")
	}
}

// Run starts the wizard on the terminal and blocks until it exits.
func Run(ctx context.Context, session *survey.Session, submitter survey.Submitter, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(New(ctx, session, submitter), opts...).Run()
	return err
}

// ===== HELPERS =====

func isText(kind survey.InputKind) bool {
	return kind == survey.InputText || kind == survey.InputEmail || kind == survey.InputTel
}

// optionsOf lists the choices of a choice input. Range inputs without
// explicit options offer every integer from Min to Max.
func optionsOf(in survey.Input) []string {
	if len(in.Options) > 0 || in.Kind != survey.InputRange {
		return in.Options
	}
	opts := make([]string, 0, in.Max-in.Min+1)
	for v := in.Min; v <= in.Max; v++ {
		opts = append(opts, strconv.Itoa(v))
	}
	return opts
}

func chosen(in survey.Input, opt string) bool {
	if in.Kind == survey.InputCheckbox {
		for _, v := range in.Values {
			if v == opt {
				return true
			}
		}
		return false
	}
	return in.Value == opt
}

func marker(in survey.Input, opt string) string {
	on := chosen(in, opt)
	switch {
	case in.Kind == survey.InputCheckbox && on:
		return "[x]"
	case in.Kind == survey.InputCheckbox:
		return "[ ]"
	case on:
		return "(•)"
	default:
		return "( )"
	}
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
