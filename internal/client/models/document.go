package models

import (
	"encoding/json"
	"strconv"
)

// Remote field names. Every client of the document store reads and writes
// the same flat layout.
const (
	FieldTitle          = "title"
	FieldDescription    = "description"
	FieldImageURL       = "imageUrl"
	FieldAuthorID       = "authorId"
	FieldAuthorName     = "authorName"
	FieldAuthorPhotoURL = "authorPhotoUrl"
	FieldCreatedAt      = "createdAt"
	FieldUpdatedAt      = "updatedAt"

	FieldName         = "name"
	FieldEmail        = "email"
	FieldBio          = "bio"
	FieldPhotoURL     = "photoUrl"
	FieldTipsCount    = "tipsCount"
	FieldLastSyncedAt = "lastSyncedAt"
)

// ToDocument returns the remote representation of t. Sync bookkeeping
// (isSynced, isDeleted) is local-only and never leaves the device.
func (t *Tip) ToDocument() map[string]any {
	return map[string]any{
		FieldTitle:          t.Title,
		FieldDescription:    t.Description,
		FieldImageURL:       t.ImageRef,
		FieldAuthorID:       t.AuthorID,
		FieldAuthorName:     t.AuthorName,
		FieldAuthorPhotoURL: t.AuthorPhotoRef,
		FieldCreatedAt:      t.CreatedAt,
		FieldUpdatedAt:      t.UpdatedAt,
	}
}

// TipFromDocument builds a tip from a remote document. Missing fields
// become zero values; the result is marked synced.
func TipFromDocument(id string, fields map[string]any) *Tip {
	return &Tip{
		ID:             id,
		Title:          stringField(fields, FieldTitle),
		Description:    stringField(fields, FieldDescription),
		ImageRef:       stringField(fields, FieldImageURL),
		AuthorID:       stringField(fields, FieldAuthorID),
		AuthorName:     stringField(fields, FieldAuthorName),
		AuthorPhotoRef: stringField(fields, FieldAuthorPhotoURL),
		CreatedAt:      int64Field(fields, FieldCreatedAt),
		UpdatedAt:      int64Field(fields, FieldUpdatedAt),
		IsSynced:       true,
	}
}

func (u *User) ToDocument() map[string]any {
	return map[string]any{
		FieldName:         u.Name,
		FieldEmail:        u.Email,
		FieldBio:          u.Bio,
		FieldPhotoURL:     u.PhotoRef,
		FieldTipsCount:    int64(u.TipsCount),
		FieldLastSyncedAt: u.LastSyncedAt,
	}
}

func UserFromDocument(id string, fields map[string]any) *User {
	return &User{
		ID:           id,
		Name:         stringField(fields, FieldName),
		Email:        stringField(fields, FieldEmail),
		Bio:          stringField(fields, FieldBio),
		PhotoRef:     stringField(fields, FieldPhotoURL),
		TipsCount:    int(int64Field(fields, FieldTipsCount)),
		LastSyncedAt: int64Field(fields, FieldLastSyncedAt),
	}
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// int64Field accepts the numeric shapes documents arrive in: float64 from
// protobuf Struct or JSON, native ints from the in-memory store.
func int64Field(fields map[string]any, key string) int64 {
	switch v := fields[key].(type) {
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}
