package domain

type SessionStatus string

const (
	SessionDisconnected SessionStatus = "disconnected"
	SessionConnecting   SessionStatus = "connecting"
	SessionConnected    SessionStatus = "connected"
	SessionFailed       SessionStatus = "failed"
)

type Session struct {
	AccountID     AccountID
	EndpointURL   string
	ApplicationID string
	ContextID     string
	Status        SessionStatus
}

// Authenticated reports whether AccountID may be trusted.
func (s Session) Authenticated() bool {
	return s.Status == SessionConnected && s.AccountID != ""
}
