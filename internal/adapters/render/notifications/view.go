package notifications

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fcastdev/fcast-cli/internal/notify"
)

type RenderOptions struct {
	Now     time.Time
	Verbose bool
}

func renderView(state notify.State, opts RenderOptions, s styles) string {
	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Left,
			s.title.Render("Notifications"),
			" ",
			renderBadge(state.UnreadCount, s),
		),
	}

	if state.Err != "" {
		lines = append(lines, s.softErr.Render(state.Err))
	}

	if len(state.Notifications) == 0 {
		lines = append(lines, s.empty.Render("No notifications."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, n := range state.Notifications {
		marker := "●"
		messageStyle := s.unread
		if n.Read {
			marker = " "
			messageStyle = s.read
		}

		line := fmt.Sprintf("%s %s %s %s",
			marker,
			s.kind.Render(n.Kind.Label()),
			messageStyle.Render(n.Message),
			s.when.Render(relativeTime(n.CreatedAt, opts.Now)),
		)
		if opts.Verbose {
			line += s.when.Render(" id=" + string(n.ID))
		}
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderBadge(unread int, s styles) string {
	if unread <= 0 {
		return s.empty.Render("(none unread)")
	}
	return s.badge.Render(fmt.Sprintf("(%d unread)", unread))
}

func relativeTime(at time.Time, now time.Time) string {
	if at.IsZero() {
		return ""
	}
	if now.IsZero() {
		now = time.Now()
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	}
}
