package models

import "github.com/google/uuid"

const (
	RoleTrainer = "trainer"
	RoleMember  = "member"
)

// Identity is the caller as vouched for by the identity service.
type Identity struct {
	ID   uuid.UUID
	Role string
}

func (i Identity) IsTrainer() bool { return i.Role == RoleTrainer }

func (i Identity) IsMember() bool { return i.Role == RoleMember }
