package models

// User is the current user's profile. Exactly one row is cached locally;
// TipsCount is derived and not authoritative.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name" validate:"max=100"`
	Email        string `json:"email" validate:"omitempty,email"`
	Bio          string `json:"bio" validate:"max=500"`
	PhotoRef     string `json:"photoRef" validate:"max=2048"`
	TipsCount    int    `json:"tipsCount"`
	LastSyncedAt int64  `json:"lastSyncedAt"`
}

// ProfileFields are the user-editable profile parts.
type ProfileFields struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Bio      string `json:"bio" validate:"max=500"`
	PhotoRef string `json:"photoRef" validate:"max=2048"`
}
