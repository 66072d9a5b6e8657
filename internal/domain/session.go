package domain

type UserID string

type User struct {
	ID          UserID
	DisplayName string
	Chips       int64
	IsAdmin     bool
}

// Session is the single active authenticated identity, or absent entirely.
// It is owned by the session manager; everything else sees read-only copies.
type Session struct {
	User         User
	AccessToken  string
	RefreshToken string
}

type SessionState string

const (
	StateAnonymous      SessionState = "anonymous"
	StateAuthenticating SessionState = "authenticating"
	StateAuthenticated  SessionState = "authenticated"
)
