package session

// Session defines a public type used by careauth APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	UserID string

	AccessToken  string
	RefreshToken string

	AccessExpiresAt  int64
	RefreshExpiresAt int64

	EstablishedAt int64
}

// Complete reports whether the record carries a full token pair. A session
// with only one of the two tokens is structurally invalid and is never
// persisted or restored.
func (s *Session) Complete() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != ""
}
