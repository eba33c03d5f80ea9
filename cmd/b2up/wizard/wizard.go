package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jamesainslie/b2up/pkg/b2up/config"
)

// ErrCancelled is returned when the user aborts the wizard.
var ErrCancelled = errors.New("setup cancelled")

// Result carries the wizard outcome back to the caller.
type Result struct {
	Config     *config.Config
	Exclusions []string
	// Register is set when the user asked to register the scheduled task.
	Register bool
	// RunNow is set when the user asked for an immediate backup.
	RunNow bool
}

// Run walks the user through configuration and returns the resulting
// settings. The base config provides defaults, so re-running setup on an
// existing installation edits values in place.
func Run(base *config.Config) (*Result, error) {
	m := newModel(base)
	prog := tea.NewProgram(m)
	final, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("run setup: %w", err)
	}

	fm, ok := final.(model)
	if !ok {
		return nil, fmt.Errorf("run setup: unexpected model %T", final)
	}
	if fm.cancelled || !isYes(fm.answers["save"]) {
		return nil, ErrCancelled
	}

	cfg, exclusions, err := apply(base, fm.answers)
	if err != nil {
		return nil, err
	}
	return &Result{
		Config:     cfg,
		Exclusions: exclusions,
		Register:   isYes(fm.answers["register"]),
		RunNow:     isYes(fm.answers["run_now"]),
	}, nil
}

type model struct {
	base      *config.Config
	steps     []step
	index     int
	input     textinput.Model
	answers   map[string]string
	errMsg    string
	cancelled bool
	done      bool
}

func newModel(base *config.Config) model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 512

	m := model{
		base:    base,
		steps:   newSteps(),
		input:   ti,
		answers: make(map[string]string),
	}
	m.index = m.nextApplicable(0)
	m.prepareInput()
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.advance()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// advance validates the current answer and moves to the next step.
func (m model) advance() (tea.Model, tea.Cmd) {
	cur := m.steps[m.index]

	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		value = cur.def(m.base)
	}
	if cur.validate != nil {
		if err := cur.validate(value); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
	}
	m.errMsg = ""
	m.answers[cur.id] = value

	next := m.nextApplicable(m.index + 1)
	if next >= len(m.steps) {
		m.done = true
		return m, tea.Quit
	}
	m.index = next
	m.prepareInput()
	return m, nil
}

// nextApplicable returns the first step at or after from whose when
// condition holds for the answers collected so far.
func (m model) nextApplicable(from int) int {
	for i := from; i < len(m.steps); i++ {
		if m.steps[i].when == nil || m.steps[i].when(m.answers) {
			return i
		}
	}
	return len(m.steps)
}

func (m *model) prepareInput() {
	cur := m.steps[m.index]
	m.input.SetValue("")
	if cur.kind == kindSecret {
		m.input.EchoMode = textinput.EchoPassword
	} else {
		m.input.EchoMode = textinput.EchoNormal
	}
	m.input.Placeholder = cur.def(m.base)
}

func (m model) View() string {
	if m.done || m.cancelled {
		return ""
	}

	cur := m.steps[m.index]

	var b strings.Builder
	b.WriteString(titleStyle.Render("b2up setup"))
	b.WriteString("\n\n")
	b.WriteString(promptStyle.Render(cur.prompt))
	if def := cur.def(m.base); def != "" && cur.kind != kindSecret {
		b.WriteString(defaultStyle.Render(fmt.Sprintf(" [%s]", def)))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(stepCountStyle.Render(fmt.Sprintf("step %d of %d · esc to cancel", m.index+1, len(m.steps))))
	b.WriteString("\n")
	return b.String()
}
