// Package models defines the client-side records: tips, the current user
// profile, and their flat document form used by the remote store.
package models

import "strings"

// Tip is a user-authored record cached locally and mirrored remotely.
//
// ImageRef holds either a remote URL or a local file path. AuthorID,
// AuthorName and AuthorPhotoRef are a denormalized author snapshot kept
// for offline display.
type Tip struct {
	ID             string `json:"id"`
	Title          string `json:"title" validate:"notblank,max=200"`
	Description    string `json:"description" validate:"max=5000"`
	ImageRef       string `json:"imageRef" validate:"max=2048"`
	AuthorID       string `json:"authorId"`
	AuthorName     string `json:"authorName"`
	AuthorPhotoRef string `json:"authorPhotoRef"`
	CreatedAt      int64  `json:"createdAt"`
	UpdatedAt      int64  `json:"updatedAt"`
	IsSynced       bool   `json:"isSynced"`
	IsDeleted      bool   `json:"isDeleted"`
}

// TipFields are the user-editable parts of a tip.
type TipFields struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=5000"`
	ImageRef    string `json:"imageRef" validate:"max=2048"`
}

// Fields returns the editable part of t.
func (t *Tip) Fields() TipFields {
	return TipFields{Title: t.Title, Description: t.Description, ImageRef: t.ImageRef}
}

// Apply overwrites the editable fields of t.
func (t *Tip) Apply(f TipFields) {
	t.Title = strings.TrimSpace(f.Title)
	t.Description = strings.TrimSpace(f.Description)
	t.ImageRef = strings.TrimSpace(f.ImageRef)
}

// MissingAuthor reports whether the author snapshot is incomplete. Such a
// tip must not be pushed until repaired.
func (t *Tip) MissingAuthor() bool {
	return strings.TrimSpace(t.AuthorID) == "" || strings.TrimSpace(t.AuthorName) == ""
}

// SetAuthor copies the author snapshot from u.
func (t *Tip) SetAuthor(u *User) {
	if u == nil {
		return
	}
	t.AuthorID = u.ID
	t.AuthorName = u.Name
	t.AuthorPhotoRef = u.PhotoRef
}

// HasLocalImage reports whether ImageRef points at a local file rather
// than a remote URL.
func (t *Tip) HasLocalImage() bool {
	return t.ImageRef != "" && !IsRemoteRef(t.ImageRef)
}

// IsRemoteRef reports whether ref is an http(s) URL.
func IsRemoteRef(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Clone returns a copy of t.
func (t *Tip) Clone() *Tip {
	c := *t
	return &c
}
