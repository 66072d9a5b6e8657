package api

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/fcastdev/fcast-cli/internal/domain"
)

type ListNotificationsOptions struct {
	UnreadOnly bool
	Page       int
	Limit      int
}

type NotificationsPage struct {
	Notifications []domain.Notification
	UnreadCount   int
	Page          int
	TotalPages    int
}

type notificationPayload struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
	Meta      map[string]string `json:"meta"`
}

type paginationPayload struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

func (c *Client) ListNotifications(ctx context.Context, opts ListNotificationsOptions) (NotificationsPage, error) {
	query := url.Values{}
	if opts.UnreadOnly {
		query.Set("unread_only", "true")
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	var payload struct {
		Notifications []notificationPayload `json:"notifications"`
		UnreadCount   int                   `json:"unread_count"`
		Pagination    paginationPayload     `json:"pagination"`
	}
	if err := c.getJSON(ctx, "/notifications", query, &payload); err != nil {
		return NotificationsPage{}, err
	}

	notifications := make([]domain.Notification, 0, len(payload.Notifications))
	for _, n := range payload.Notifications {
		notifications = append(notifications, n.toDomain())
	}

	return NotificationsPage{
		Notifications: notifications,
		UnreadCount:   payload.UnreadCount,
		Page:          payload.Pagination.Page,
		TotalPages:    payload.Pagination.TotalPages,
	}, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var payload struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.getJSON(ctx, "/notifications/unread-count", nil, &payload); err != nil {
		return 0, err
	}
	return payload.UnreadCount, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id domain.NotificationID) error {
	return c.postJSON(ctx, "/notifications/"+string(id)+"/read", nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.postJSON(ctx, "/notifications/read-all", nil, nil)
}

func (n notificationPayload) toDomain() domain.Notification {
	return domain.Notification{
		ID:        domain.NotificationID(n.ID),
		Kind:      domain.NotificationKind(n.Type),
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
		Meta:      n.Meta,
	}
}
