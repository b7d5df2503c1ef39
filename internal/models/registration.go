package models

// RegistrationKind classifies a sender phone against the tenant roster
type RegistrationKind string

const (
	Registered   RegistrationKind = "registered"
	Pending      RegistrationKind = "pending"
	Unregistered RegistrationKind = "unregistered"
)

// RegistrationStatus is the outcome of a phone lookup. Identity carries the
// CPF/CNPJ digits when known.
type RegistrationStatus struct {
	Kind     RegistrationKind `json:"kind"`
	Identity string           `json:"identity,omitempty"`
}

// RegistrationRecord maps table columns to values for a pre-registration insert
type RegistrationRecord map[string]string
