// Package verification keeps short-lived mail confirmation codes in Redis.
package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix = "campushub:mail_code:" // campushub:mail_code:{user_id}
	codeDigits    = 6
	maxAttempts   = 5
)

var (
	ErrNoPendingCode = errors.New("no pending verification code")
	ErrCodeMismatch  = errors.New("verification code does not match")
)

type pending struct {
	Mail     string `json:"mail"`
	Code     string `json:"code"`
	Attempts int    `json:"attempts"`
}

// Store issues and checks one pending code per user.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Issue creates a fresh code for mail, replacing any pending one.
func (s *Store) Issue(ctx context.Context, userID, mail string) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(pending{Mail: mail, Code: code})
	if err != nil {
		return "", fmt.Errorf("failed to marshal code: %w", err)
	}
	if err := s.client.Set(ctx, key(userID), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}
	return code, nil
}

// Confirm checks code and, on success, consumes it and returns the mail it
// was issued for. After maxAttempts wrong guesses the code is dropped.
func (s *Store) Confirm(ctx context.Context, userID, code string) (string, error) {
	k := key(userID)
	raw, err := s.client.Get(ctx, k).Result()
	if err == redis.Nil {
		return "", ErrNoPendingCode
	}
	if err != nil {
		return "", fmt.Errorf("failed to read code: %w", err)
	}

	var p pending
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return "", fmt.Errorf("failed to unmarshal code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(p.Code), []byte(code)) != 1 {
		p.Attempts++
		if p.Attempts >= maxAttempts {
			_ = s.client.Del(ctx, k).Err()
			return "", ErrCodeMismatch
		}
		data, _ := json.Marshal(p)
		if err := s.client.Set(ctx, k, data, redis.KeepTTL).Err(); err != nil {
			return "", fmt.Errorf("failed to update code: %w", err)
		}
		return "", ErrCodeMismatch
	}

	if err := s.client.Del(ctx, k).Err(); err != nil {
		return "", fmt.Errorf("failed to consume code: %w", err)
	}
	return p.Mail, nil
}

func key(userID string) string { return codeKeyPrefix + userID }

func randomCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
