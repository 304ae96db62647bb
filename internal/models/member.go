package models

import "github.com/google/uuid"

type Member struct {
	ID            uuid.UUID  `json:"id"`
	TrainerID     *uuid.UUID `json:"trainer_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	SessionsTotal int        `json:"sessions_total"`
	SessionsUsed  int        `json:"sessions_used"`
}

func (m Member) SessionsRemaining() int {
	if m.SessionsUsed >= m.SessionsTotal {
		return 0
	}
	return m.SessionsTotal - m.SessionsUsed
}

type MemberInfo struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (m Member) Info() MemberInfo {
	return MemberInfo{ID: m.ID, Name: m.Name, Email: m.Email}
}
