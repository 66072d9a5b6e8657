package ports

import "context"

// SessionRefresher mints a fresh access token from the stored refresh
// token. Implementations must be safe for concurrent callers and must
// collapse overlapping attempts into one network request.
type SessionRefresher interface {
	Refresh(ctx context.Context) error
}
