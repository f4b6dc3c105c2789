package status

import (
	"fmt"
	"io"

	"github.com/bnema/weibo-autopilot/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

// layoutMsg asks the model to lay out its single frame.
type layoutMsg struct{}

// statusModel renders one frame and quits. Status output is a snapshot, not
// a live view, so the program never waits for input.
type statusModel struct {
	snapshot application.Status
	opts     RenderOptions
	styles   styles
	frame    string
}

func (m statusModel) Init() tea.Cmd {
	return func() tea.Msg { return layoutMsg{} }
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(layoutMsg); !ok {
		return m, nil
	}
	m.frame = renderView(m.snapshot, m.opts, m.styles)
	return m, tea.Quit
}

func (m statusModel) View() string {
	return m.frame
}

// Render lays out status through a headless program and returns the frame.
func Render(status application.Status, opts RenderOptions) (string, error) {
	program := tea.NewProgram(
		statusModel{snapshot: status, opts: opts, styles: newStyles()},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("render status: %w", err)
	}
	rendered, ok := final.(statusModel)
	if !ok {
		return "", fmt.Errorf("render status: unexpected model %T", final)
	}
	return rendered.frame, nil
}
