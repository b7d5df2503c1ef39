package models

import "strings"

// ConversationState is where a sender currently is in the conversation:
// either a fixed ask-state or a node of the tenant's menu tree
type ConversationState interface {
	Key() string
	IsMenu() bool
}

// FixedState is a state with built-in behaviour
type FixedState string

const (
	StateIdle           FixedState = "IDLE"
	StateAwaitEntrega   FixedState = "AWAIT_ENTREGA"
	StateAwaitOco       FixedState = "AWAIT_OCO"
	StateAwaitOcoMotivo FixedState = "AWAIT_OCO_MOTIVO"
	StateAwaitCTeMedia  FixedState = "AWAIT_CTE_MEDIA"
	StateAwaitBaixa     FixedState = "AWAIT_BAIXA_CONFIRMA"
	StateAwaitIDMedia   FixedState = "AWAIT_ID_MEDIA"
	StateAwaitVehicle   FixedState = "AWAIT_VEHICLE_MEDIA"
)

var fixedStates = []FixedState{
	StateIdle,
	StateAwaitEntrega,
	StateAwaitOco,
	StateAwaitOcoMotivo,
	StateAwaitCTeMedia,
	StateAwaitBaixa,
	StateAwaitIDMedia,
	StateAwaitVehicle,
}

func (s FixedState) Key() string  { return string(s) }
func (s FixedState) IsMenu() bool { return false }

// IsMediaCollection reports whether the state accumulates uploaded documents
func (s FixedState) IsMediaCollection() bool {
	return s == StateAwaitIDMedia || s == StateAwaitVehicle || s == StateAwaitCTeMedia
}

// RootKey is the universal entry node of every menu tree
const RootKey = "root"

// MenuNode is a screen of a tenant-configured menu
type MenuNode struct {
	TenantID int64
	NodeKey  string
}

func (n MenuNode) Key() string  { return n.NodeKey }
func (n MenuNode) IsMenu() bool { return true }

// RootState returns the entry node of a tenant's menu
func RootState(tenantID int64) MenuNode {
	return MenuNode{TenantID: tenantID, NodeKey: RootKey}
}

// ParseState maps a stored key back to a state. Fixed tags match
// case-insensitively; anything else is a menu node of the tenant.
func ParseState(tenantID int64, key string) ConversationState {
	k := strings.TrimSpace(key)
	if k == "" {
		return RootState(tenantID)
	}
	for _, s := range fixedStates {
		if strings.EqualFold(k, string(s)) {
			return s
		}
	}
	return MenuNode{TenantID: tenantID, NodeKey: k}
}

// IsRoot reports whether st is the root menu node
func IsRoot(st ConversationState) bool {
	return st != nil && st.IsMenu() && st.Key() == RootKey
}
