package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Account is a stored credential. The profile lives in the progress store.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Accounts keeps one JSON document per email in Redis.
type Accounts struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
	cost   int
}

func NewAccounts(rdb *redis.Client, prefix string) *Accounts {
	return &Accounts{rdb: rdb, prefix: prefix, now: time.Now, cost: bcrypt.DefaultCost}
}

func (a *Accounts) key(email string) string {
	return a.prefix + ":account:" + email
}

// Register validates in and creates the account. The email is claimed with
// SETNX so two concurrent registrations cannot both succeed.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (Account, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.cost)
	if err != nil {
		return Account{}, fmt.Errorf("hashing password: %w", err)
	}
	acc := Account{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    a.now().UTC(),
	}
	data, err := json.Marshal(acc)
	if err != nil {
		return Account{}, err
	}

	ok, err := a.rdb.SetNX(ctx, a.key(acc.Email), data, 0).Result()
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return Account{}, ErrEmailInUse
	}
	return acc, nil
}

// Login checks the credentials and returns the account.
func (a *Accounts) Login(ctx context.Context, in LoginInput) (Account, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return Account{}, err
	}

	data, err := a.rdb.Get(ctx, a.key(in.Email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var acc Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return Account{}, fmt.Errorf("decoding account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(in.Password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

// Remove deletes the account of email. It is used to roll back a
// registration whose profile could not be created.
func (a *Accounts) Remove(ctx context.Context, email string) error {
	return a.rdb.Del(ctx, a.key(normalizeEmail(email))).Err()
}
