package domain

// SubjectID identifies an authenticated account. It is the owner key of a profile.
type SubjectID string

// ProfileID is the identifier of a lawyer profile record.
type ProfileID string

// SessionID identifies a server-side session record.
type SessionID string
