package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/partage-cli/internal/application"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type bootstrapDoneMsg struct {
	snapshot application.Snapshot
}

type bootstrapStateMsg struct {
	state application.State
}

type bootstrapSpinnerModel struct {
	spinner  spinner.Model
	label    string
	start    tea.Cmd
	snapshot application.Snapshot
	done     bool
}

func newBootstrapSpinnerModel(start tea.Cmd) bootstrapSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return bootstrapSpinnerModel{
		spinner: s,
		label:   stateLabel(application.StateConnecting),
		start:   start,
	}
}

func (m bootstrapSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start)
}

func (m bootstrapSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case bootstrapStateMsg:
		if label := stateLabel(msg.state); label != "" {
			m.label = label
		}
		return m, nil
	case bootstrapDoneMsg:
		m.done = true
		m.snapshot = msg.snapshot
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m bootstrapSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func stateLabel(state application.State) string {
	switch state {
	case application.StateConnecting:
		return "Connecting to the node..."
	case application.StateResolvingAccount:
		return "Resolving the signed-in account..."
	case application.StateResolvingRole:
		return "Checking the account role..."
	case application.StateFetchingProfile:
		return "Loading the profile..."
	default:
		return ""
	}
}

// runBootstrapSpinner runs one bootstrap generation behind a spinner whose
// label follows the state machine.
func runBootstrapSpinner(ctx context.Context, output io.Writer, bootstrap *application.Bootstrap) (application.Snapshot, error) {
	startCmd := func() tea.Msg {
		return bootstrapDoneMsg{snapshot: bootstrap.Start(ctx)}
	}

	p := tea.NewProgram(
		newBootstrapSpinnerModel(startCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)
	bootstrap.Observe(func(s application.Snapshot) {
		p.Send(bootstrapStateMsg{state: s.State})
	})

	finalModel, err := p.Run()
	if err != nil {
		return bootstrap.Snapshot(), err
	}

	result, ok := finalModel.(bootstrapSpinnerModel)
	if !ok {
		return bootstrap.Snapshot(), fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.snapshot, nil
}
