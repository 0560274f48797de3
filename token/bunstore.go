package token

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// credential is one persisted slot, a row in a local sqlite database so
// the pair survives process restarts.
type credential struct {
	bun.BaseModel `bun:"table:credentials,alias:cred"`
	Slot          string    `bun:"slot,pk"`
	Value         string    `bun:"value,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// BunStore is the persistent Store, backed by sqlite via bun. Reads swallow
// storage errors into a missing-token result: a broken local database should
// degrade to signed-out, not crash the session.
type BunStore struct {
	db      *bun.DB
	timeout time.Duration
}

// BunStoreOption customizes the persistent store.
type BunStoreOption func(*BunStore)

// WithQueryTimeout bounds each storage operation.
func WithQueryTimeout(d time.Duration) BunStoreOption {
	return func(s *BunStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewBunStore opens (and initializes if needed) the credential database at
// path. Use ":memory:" for an ephemeral store in tests.
func NewBunStore(ctx context.Context, path string, opts ...BunStoreOption) (*BunStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open credential database")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	store := &BunStore{
		db:      db,
		timeout: 5 * time.Second,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	if _, err := db.NewCreateTable().
		Model((*credential)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		_ = db.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize credential table")
	}

	return store, nil
}

// Close releases the underlying database.
func (s *BunStore) Close() error {
	return s.db.Close()
}

func (s *BunStore) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *BunStore) Get(slot Slot) (string, bool) {
	ctx, cancel := s.opCtx()
	defer cancel()

	cred := new(credential)
	err := s.db.NewSelect().
		Model(cred).
		Where("slot = ?", string(slot)).
		Scan(ctx)
	if err != nil {
		return "", false
	}

	return cred.Value, cred.Value != ""
}

func (s *BunStore) Set(slot Slot, value string) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	return s.upsert(ctx, s.db, slot, value)
}

func (s *BunStore) Pair() (string, string) {
	access, _ := s.Get(SlotAccess)
	refresh, _ := s.Get(SlotRefresh)
	return access, refresh
}

// SetPair writes both slots in one transaction so a reader never observes a
// half-replaced pair.
func (s *BunStore) SetPair(access, refresh string) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.upsert(ctx, tx, SlotAccess, access); err != nil {
			return err
		}
		if refresh != "" {
			return s.upsert(ctx, tx, SlotRefresh, refresh)
		}
		return nil
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist credential pair")
	}

	return nil
}

func (s *BunStore) Clear() error {
	ctx, cancel := s.opCtx()
	defer cancel()

	_, err := s.db.NewDelete().
		Model((*credential)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear credentials")
	}

	return nil
}

func (s *BunStore) upsert(ctx context.Context, db bun.IDB, slot Slot, value string) error {
	cred := &credential{
		Slot:      string(slot),
		Value:     value,
		UpdatedAt: time.Now(),
	}

	_, err := db.NewInsert().
		Model(cred).
		On("CONFLICT (slot) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store credential")
	}

	return nil
}

var _ Store = (*BunStore)(nil)
var _ Store = (*MemoryStore)(nil)
