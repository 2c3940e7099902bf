package models

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTip_DocumentRoundTripDropsLocalFlags(t *testing.T) {
	tip := &Tip{
		ID:             "t1",
		Title:          "Study daily",
		Description:    "30 minutes",
		ImageRef:       "https://cdn.example/img.png",
		AuthorID:       "u1",
		AuthorName:     "Ann",
		AuthorPhotoRef: "https://cdn.example/ann.png",
		CreatedAt:      1_700_000_000_000,
		UpdatedAt:      1_700_000_000_500,
		IsSynced:       false,
		IsDeleted:      true,
	}

	doc := tip.ToDocument()
	assert.NotContains(t, doc, "isSynced")
	assert.NotContains(t, doc, "isDeleted")

	// Documents coming back over protobuf carry numbers as float64.
	doc[FieldCreatedAt] = float64(tip.CreatedAt)
	doc[FieldUpdatedAt] = float64(tip.UpdatedAt)

	got := TipFromDocument("t1", doc)
	want := tip.Clone()
	want.IsSynced = true
	want.IsDeleted = false
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("TipFromDocument mismatch (-want +got):\n%s", diff)
	}
}

func TestTipFromDocument_MissingFieldsAreZero(t *testing.T) {
	got := TipFromDocument("x", map[string]any{FieldTitle: "only title", FieldCreatedAt: "42"})
	assert.Equal(t, "only title", got.Title)
	assert.Empty(t, got.AuthorID)
	assert.Equal(t, int64(42), got.CreatedAt)
	assert.Zero(t, got.UpdatedAt)
	assert.True(t, got.IsSynced)
}

func TestUser_DocumentRoundTrip(t *testing.T) {
	u := &User{ID: "u1", Name: "Ann", Email: "ann@example.com", Bio: "learner", PhotoRef: "p", TipsCount: 4, LastSyncedAt: 99}
	doc := u.ToDocument()
	doc[FieldTipsCount] = float64(4)

	if diff := cmp.Diff(u, UserFromDocument("u1", doc)); diff != "" {
		t.Fatalf("UserFromDocument mismatch (-want +got):\n%s", diff)
	}
}

func TestTip_MissingAuthorAndSetAuthor(t *testing.T) {
	tip := &Tip{AuthorID: "u1", AuthorName: "  "}
	assert.True(t, tip.MissingAuthor())

	tip.SetAuthor(&User{ID: "u2", Name: "Bob", PhotoRef: "bob.png"})
	assert.False(t, tip.MissingAuthor())
	assert.Equal(t, "u2", tip.AuthorID)
	assert.Equal(t, "bob.png", tip.AuthorPhotoRef)

	tip.SetAuthor(nil)
	assert.Equal(t, "u2", tip.AuthorID)
}

func TestTip_HasLocalImage(t *testing.T) {
	assert.False(t, (&Tip{}).HasLocalImage())
	assert.False(t, (&Tip{ImageRef: "HTTPS://cdn/x.png"}).HasLocalImage())
	assert.True(t, (&Tip{ImageRef: "/home/ann/pic.png"}).HasLocalImage())
}

func TestTip_ApplyTrims(t *testing.T) {
	tip := &Tip{}
	tip.Apply(TipFields{Title: "  t ", Description: " d\n", ImageRef: " "})
	assert.Equal(t, TipFields{Title: "t", Description: "d"}, tip.Fields())
}

func TestValidate_TipFields(t *testing.T) {
	require.NoError(t, Validate("op", TipFields{Title: "ok"}))

	err := Validate("tips.create", TipFields{Title: "   ", Description: strings.Repeat("x", 5001)})
	require.Error(t, err)
	assert.Equal(t, common.KindValidation, common.KindOf(err))
	assert.ErrorIs(t, err, common.ErrorValidation)

	typed := common.AsError(err)
	require.NotNil(t, typed)
	assert.Equal(t, "is required", typed.Details()["title"])
	assert.Equal(t, "must be at most 5000 characters", typed.Details()["description"])
}

func TestValidate_ProfileFields(t *testing.T) {
	require.NoError(t, Validate("op", ProfileFields{Name: "Ann"}))

	err := Validate("op", ProfileFields{Name: "", Bio: strings.Repeat("b", 501)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "bio must be at most 500 characters")
}

func TestValidate_UserEmail(t *testing.T) {
	require.NoError(t, Validate("op", User{Email: ""}))
	require.Error(t, Validate("op", User{Email: "not-an-email"}))
}
