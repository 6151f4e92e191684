package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
	"github.com/ericfisherdev/mailrelay/internal/domain/port/driven"
)

func makeReferral(email string) model.Referral {
	return model.Referral{
		Name:         "Ada Lovelace",
		Email:        email,
		Phone:        "+44 20 7946 0000",
		ReferrerID:   "ref-42",
		ReferrerName: "Charles Babbage",
		Message:      "You should meet them.",
	}
}

func TestReferralRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReferralRepo(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeReferral("ada@example.com"))
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, "+44 20 7946 0000", got.Phone)
	assert.Equal(t, "ref-42", got.ReferrerID)
	assert.Equal(t, "Charles Babbage", got.ReferrerName)
	assert.Equal(t, "You should meet them.", got.Message)
}

func TestReferralRepo_CreateWithoutMessage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReferralRepo(db)
	ctx := context.Background()

	ref := makeReferral("nomsg@example.com")
	ref.Message = ""
	_, err := repo.Create(ctx, ref)
	require.NoError(t, err)

	got, err := repo.GetByEmail(ctx, "nomsg@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "", got.Message)
}

func TestReferralRepo_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReferralRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, makeReferral("dup@example.com"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, makeReferral("dup@example.com"))
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrDuplicateEmail)
}

func TestReferralRepo_GetByEmailMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReferralRepo(db)

	got, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}
