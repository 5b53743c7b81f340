// Package domain contains core concepts of the messaging system.
// No storage, network, or UI logic should be added here.
package domain

// User is the external identity this core reads but never manages.
type User struct {
	ID          string
	DisplayName string
}

// Identity is the resolved per-connection identity handed over by the
// auth collaborator. The core never sees raw credentials.
type Identity struct {
	UserID          string
	DisplayName     string
	IsAuthenticated bool
}
