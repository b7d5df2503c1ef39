package models

import (
	"time"
)

// SessionContext holds the transient fields collected during a conversation
type SessionContext struct {
	CPF          string   `json:"cpf,omitempty"`
	Nomovtra     int64    `json:"nomovtra,omitempty"`
	IDText       string   `json:"id_text,omitempty"`
	IDPaths      []string `json:"id_paths,omitempty"`
	VehicleText  string   `json:"vehicle_text,omitempty"`
	VehiclePaths []string `json:"vehicle_paths,omitempty"`
}

// Session is the conversation of one sender, keyed by phone address
type Session struct {
	Key       string            `json:"key"`
	State     ConversationState `json:"-"`
	Context   SessionContext    `json:"context"`
	TenantID  int64             `json:"tenant_id"`
	MenuID    int64             `json:"menu_id"`
	MenuTitle string            `json:"menu_title"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate without touching the stored value
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Context.IDPaths = append([]string(nil), s.Context.IDPaths...)
	c.Context.VehiclePaths = append([]string(nil), s.Context.VehiclePaths...)
	return &c
}

// Reset returns the session to the root menu and drops collected data.
// A known CPF survives.
func (s *Session) Reset() {
	s.State = RootState(s.TenantID)
	s.Context = SessionContext{CPF: s.Context.CPF}
}

// Authenticated reports whether the sender's identity is known
func (s *Session) Authenticated() bool {
	return s.Context.CPF != ""
}
