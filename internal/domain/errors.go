package domain

import "errors"

var (
	// ErrNoCredentials means the credential store holds no usable session.
	ErrNoCredentials = errors.New("no stored credentials")

	// ErrCredentialsRejected covers login/registration rejected by the
	// server. Recoverable: the caller may retry with different input.
	ErrCredentialsRejected = errors.New("credentials rejected")

	// ErrSessionExpired means the refresh token is dead and the session
	// cannot be repaired. Escalates to a full logout.
	ErrSessionExpired = errors.New("session expired")

	ErrNotAuthenticated = errors.New("not authenticated")
)
