package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	renderadapter "github.com/fcastdev/fcast-cli/internal/adapters/render/notifications"
	"github.com/fcastdev/fcast-cli/internal/notify"
	"github.com/spf13/cobra"
)

func newNotificationsWatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow notifications live (polling pauses while the terminal is unfocused)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireSession(cmd, app); err != nil {
				return err
			}
			defer app.sessions.Close()
			defer app.notifier.Stop()

			return runWatch(cmd, app)
		},
	}
}

type watchStateMsg struct {
	state notify.State
}

type watchModel struct {
	app     *app
	spinner spinner.Model
	state   notify.State
	blurred bool
}

func newWatchModel(app *app) watchModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return watchModel{app: app, spinner: s, state: app.notifier.Current()}
}

func (m watchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case watchStateMsg:
		m.state = msg.state
		return m, nil

	case tea.FocusMsg:
		m.blurred = false
		m.app.notifier.SetVisible(context.Background(), true)
		return m, nil

	case tea.BlurMsg:
		m.blurred = true
		m.app.notifier.SetVisible(context.Background(), false)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			go m.app.notifier.RefreshNotifications(context.Background())
			return m, nil
		case "a":
			go m.app.notifier.MarkAllAsRead(context.Background())
			return m, nil
		}
	}

	return m, nil
}

func (m watchModel) View() string {
	rendered, err := renderadapter.Render(m.state, renderadapter.RenderOptions{Now: m.app.now()})
	if err != nil {
		rendered = "render failed: " + err.Error()
	}

	footer := "r refresh · a mark all read · q quit"
	if m.blurred {
		footer = "paused (unfocused) · " + footer
	} else if m.state.Loading {
		footer = m.spinner.View() + " syncing · " + footer
	}

	return rendered + "\n\n" + lipgloss.NewStyle().Faint(true).Render(footer) + "\n"
}

func runWatch(cmd *cobra.Command, app *app) error {
	app.notifier.Start(cmd.Context())
	go app.notifier.RefreshNotifications(cmd.Context())

	program := tea.NewProgram(
		newWatchModel(app),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithReportFocus(),
	)

	unsubscribe := app.notifier.Subscribe(func(state notify.State) {
		program.Send(watchStateMsg{state: state})
	})
	defer unsubscribe()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run watch view: %w", err)
	}
	return nil
}
