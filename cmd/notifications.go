package cmd

import (
	"fmt"

	"github.com/fcastdev/fcast-cli/internal/adapters/api"
	renderadapter "github.com/fcastdev/fcast-cli/internal/adapters/render/notifications"
	"github.com/fcastdev/fcast-cli/internal/domain"
	"github.com/fcastdev/fcast-cli/internal/notify"
	"github.com/spf13/cobra"
)

func newNotificationsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Browse and manage notifications",
	}

	cmd.AddCommand(
		newNotificationsListCmd(app),
		newNotificationsReadCmd(app),
		newNotificationsReadAllCmd(app),
		newNotificationsWatchCmd(app),
	)

	return cmd
}

func newNotificationsListCmd(app *app) *cobra.Command {
	var unreadOnly bool
	var limit int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireSession(cmd, app); err != nil {
				return err
			}

			page, err := app.client.ListNotifications(cmd.Context(), api.ListNotificationsOptions{
				UnreadOnly: unreadOnly,
				Limit:      limit,
			})
			if err != nil {
				return fmt.Errorf("fetch notifications: %w", err)
			}

			rendered, err := renderadapter.Render(notify.State{
				UnreadCount:   page.UnreadCount,
				Notifications: page.Notifications,
			}, renderadapter.RenderOptions{Now: app.now(), Verbose: verbose})
			if err != nil {
				return fmt.Errorf("render notifications: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only unread notifications")
	cmd.Flags().IntVar(&limit, "limit", notify.DefaultListLimit, "Maximum notifications to fetch")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show notification IDs")

	return cmd
}

func newNotificationsReadCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(cmd, app); err != nil {
				return err
			}

			if err := app.client.MarkNotificationRead(cmd.Context(), domain.NotificationID(args[0])); err != nil {
				return fmt.Errorf("mark notification read: %w", err)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Marked as read.")
			return err
		},
	}
}

func newNotificationsReadAllCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireSession(cmd, app); err != nil {
				return err
			}

			if err := app.client.MarkAllNotificationsRead(cmd.Context()); err != nil {
				return fmt.Errorf("mark all notifications read: %w", err)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "All notifications marked as read.")
			return err
		},
	}
}

func requireSession(cmd *cobra.Command, app *app) error {
	session, err := app.sessions.Bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	if session == nil {
		return domain.ErrNotAuthenticated
	}
	return nil
}
