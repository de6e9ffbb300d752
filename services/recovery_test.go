package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopost/models"
)

type fakeStaleStore struct {
	stale   []models.PostLog
	before  time.Time
	failErr map[string]error
	marked  []string
}

func (f *fakeStaleStore) FindStale(_ context.Context, before time.Time, limit int) ([]models.PostLog, error) {
	f.before = before
	if limit > 0 && len(f.stale) > limit {
		return f.stale[:limit], nil
	}
	return f.stale, nil
}

func (f *fakeStaleStore) MarkFailed(_ context.Context, _, postID, _ string) (bool, error) {
	if err := f.failErr[postID]; err != nil {
		return false, err
	}
	if postID == "finished-meanwhile" {
		return false, nil
	}
	f.marked = append(f.marked, postID)
	return true, nil
}

func TestRecoverStale(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	store := &fakeStaleStore{
		stale: []models.PostLog{
			{PostID: "a", Status: models.PostStatusProcessing},
			{PostID: "finished-meanwhile", Status: models.PostStatusPending},
			{PostID: "broken", Status: models.PostStatusProcessing},
			{PostID: "b", Status: models.PostStatusPending},
		},
		failErr: map[string]error{"broken": errors.New("write conflict")},
	}
	svc := NewRecoveryService(store, time.Hour)
	svc.now = func() time.Time { return now }

	n, err := svc.RecoverStale(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "b"}, store.marked)
	assert.Equal(t, now.Add(-time.Hour), store.before)
}

func TestRecoverStaleDefaultsAge(t *testing.T) {
	assert.Equal(t, 30*time.Minute, NewRecoveryService(&fakeStaleStore{}, 0).after)
}
