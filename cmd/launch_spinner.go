package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/weibo-autopilot/internal/metrics"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

type launchDoneMsg struct {
	err error
}

type launchResult struct {
	session browserSession
	err     error
}

type launchSpinnerModel struct {
	spinner spinner.Model
	label   string
	err     error
	done    bool
}

func newLaunchSpinnerModel(label string) launchSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return launchSpinnerModel{
		spinner: s,
		label:   label,
	}
}

func (m launchSpinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m launchSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case launchDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m launchSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// runLaunchSpinner shows a spinner while launch runs. The launched session is
// only handed back once the spinner has stopped; when the program is killed
// first, it waits for launch to return and closes whatever it produced.
func runLaunchSpinner(ctx context.Context, output io.Writer, label string, launch func(context.Context) (browserSession, error)) (browserSession, error) {
	p := tea.NewProgram(
		newLaunchSpinnerModel(label),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	results := make(chan launchResult, 1)
	go func() {
		session, err := launch(ctx)
		results <- launchResult{session: session, err: err}
		p.Send(launchDoneMsg{err: err})
	}()

	_, err := p.Run()
	res := <-results
	if err == nil {
		err = res.err
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if res.session != nil {
			_ = res.session.Close()
		}
		return nil, err
	}

	return res.session, nil
}

// launchBrowser starts Chrome on startURL behind a spinner on stderr.
func (a *app) launchBrowser(cmd *cobra.Command, m *metrics.Metrics, startURL string) (browserSession, error) {
	launcher := a.launcher(a.cfg, a.logger, m)
	return runLaunchSpinner(cmd.Context(), cmd.ErrOrStderr(), "Launching browser...", func(ctx context.Context) (browserSession, error) {
		return launcher.Launch(ctx, startURL)
	})
}
