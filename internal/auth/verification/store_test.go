package verification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, 15*time.Minute), mr
}

func TestIssueAndConfirm(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	code, err := s.Issue(ctx, "user-1", "ana@uni.example")
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.True(t, mr.Exists("campushub:mail_code:user-1"))
	assert.Equal(t, 15*time.Minute, mr.TTL("campushub:mail_code:user-1"))

	mail, err := s.Confirm(ctx, "user-1", code)
	require.NoError(t, err)
	assert.Equal(t, "ana@uni.example", mail)
	assert.False(t, mr.Exists("campushub:mail_code:user-1"), "code is single use")

	_, err = s.Confirm(ctx, "user-1", code)
	assert.ErrorIs(t, err, ErrNoPendingCode)
}

func TestConfirmWrongCode(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	code, err := s.Issue(ctx, "user-1", "ana@uni.example")
	require.NoError(t, err)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, err = s.Confirm(ctx, "user-1", wrong)
	assert.ErrorIs(t, err, ErrCodeMismatch)

	raw, err := mr.Get("campushub:mail_code:user-1")
	require.NoError(t, err)
	var p pending
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, 1, p.Attempts)
	assert.Greater(t, mr.TTL("campushub:mail_code:user-1"), time.Duration(0), "ttl is kept")

	for i := 1; i < maxAttempts; i++ {
		_, err = s.Confirm(ctx, "user-1", wrong)
		assert.ErrorIs(t, err, ErrCodeMismatch)
	}
	assert.False(t, mr.Exists("campushub:mail_code:user-1"), "code is dropped after too many attempts")

	_, err = s.Confirm(ctx, "user-1", code)
	assert.ErrorIs(t, err, ErrNoPendingCode)
}

func TestCodeExpires(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	code, err := s.Issue(ctx, "user-1", "ana@uni.example")
	require.NoError(t, err)

	mr.FastForward(16 * time.Minute)
	_, err = s.Confirm(ctx, "user-1", code)
	assert.ErrorIs(t, err, ErrNoPendingCode)
}

func TestReissueReplacesCode(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	_, err := s.Issue(ctx, "user-1", "old@uni.example")
	require.NoError(t, err)
	code, err := s.Issue(ctx, "user-1", "new@uni.example")
	require.NoError(t, err)

	mail, err := s.Confirm(ctx, "user-1", code)
	require.NoError(t, err)
	assert.Equal(t, "new@uni.example", mail)
	assert.Empty(t, mr.Keys())
}
