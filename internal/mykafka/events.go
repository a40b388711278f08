package mykafka

import "time"

const (
	EventCommunityRegistered = "community_registered"
	EventGovUserCreated      = "gov_user_created"
	EventLoggedIn            = "logged_in"
	EventLoginFailed         = "login_failed"
	EventLoggedOut           = "logged_out"
)

type AuthEvent struct {
	Type    string    `json:"type"`
	Subject string    `json:"subject"`
	Role    string    `json:"role,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}

func NewAuthEvent(typ, subject, role string) AuthEvent {
	return AuthEvent{Type: typ, Subject: subject, Role: role, At: time.Now().UTC()}
}
