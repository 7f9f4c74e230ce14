package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	signup "github.com/goliatone/go-signup"
	"github.com/uptrace/bun"
)

// ClientKVModel is a row of the durable client side key value area
type ClientKVModel struct {
	bun.BaseModel `bun:"table:client_kv"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// BunTokenStore implements signup.TokenStore on top of a bun database
type BunTokenStore struct {
	db  *bun.DB
	key string
	now func() time.Time
}

var _ signup.TokenStore = (*BunTokenStore)(nil)

// NewBunTokenStore creates a store that keeps the token under signup.TokenKey
func NewBunTokenStore(db *bun.DB) *BunTokenStore {
	return &BunTokenStore{
		db:  db,
		key: signup.TokenKey,
		now: time.Now,
	}
}

// CreateSchema creates the client_kv table if missing
func (s *BunTokenStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*ClientKVModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create client_kv table")
	}
	return nil
}

func (s *BunTokenStore) Get(ctx context.Context) (string, error) {
	var model ClientKVModel
	err := s.db.NewSelect().
		Model(&model).
		Where("? = ?", bun.Ident("key"), s.key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", signup.ErrTokenNotFound.Clone().WithMetadata(map[string]any{
				"driver": "sqlite",
			})
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read token")
	}
	return model.Value, nil
}

func (s *BunTokenStore) Save(ctx context.Context, token string) error {
	model := &ClientKVModel{
		Key:       s.key,
		Value:     token,
		UpdatedAt: s.now().UTC(),
	}

	_, err := s.db.NewInsert().
		Model(model).
		On(`CONFLICT ("key") DO UPDATE`).
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save token")
	}
	return nil
}

func (s *BunTokenStore) Delete(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*ClientKVModel)(nil)).
		Where("? = ?", bun.Ident("key"), s.key).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete token")
	}
	return nil
}
