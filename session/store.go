package session

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// MemoryStore keeps the session in memory.
type MemoryStore struct {
	mu      sync.Mutex
	session Session
	ok      bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, m.ok, nil
}

func (m *MemoryStore) Save(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session, m.ok = s, true
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session, m.ok = Session{}, false
	return nil
}

// record is the single row of the sessions table.
type record struct {
	bun.BaseModel `bun:"table:sessions"`

	ID        uuid.UUID `bun:"id,pk,type:varchar(36)"`
	Username  string    `bun:"username,notnull"`
	Roles     string    `bun:"roles,notnull"`
	Token     string    `bun:"token,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// recordID is the key of the session row; the console holds one session.
var recordID = uuid.MustParse("6f1d3c2a-5b7e-4e0a-9c44-0d2b8f1a7e31")

func recordHandlers() repository.ModelHandlers[*record] {
	return repository.ModelHandlers[*record]{
		NewRecord: func() *record { return &record{} },
		GetID: func(r *record) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *record, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
	}
}

// BunStore persists the session in a SQLite database through a
// go-repository-bun repository.
type BunStore struct {
	db   *bun.DB
	repo repository.Repository[*record]
}

// OpenBunStore opens the SQLite database at dsn, e.g. "file:session.db" or
// "file::memory:?cache=shared", and creates the sessions table.
func OpenBunStore(ctx context.Context, dsn string) (*BunStore, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	store := NewBunStore(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := store.Migrate(ctx); err != nil {
		sqldb.Close()
		return nil, err
	}
	return store, nil
}

// NewBunStore wraps an existing bun database.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{
		db:   db,
		repo: repository.NewRepository[*record](db, recordHandlers()),
	}
}

// Migrate creates the sessions table if needed.
func (b *BunStore) Migrate(ctx context.Context) error {
	if _, err := b.db.NewCreateTable().Model((*record)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (b *BunStore) Load(ctx context.Context) (Session, bool, error) {
	records, _, err := b.repo.List(ctx, byRecordID)
	if err != nil {
		return Session{}, false, fmt.Errorf("load session: %w", err)
	}
	if len(records) == 0 {
		return Session{}, false, nil
	}
	rec := records[0]
	return Session{Username: rec.Username, Roles: splitRoles(rec.Roles), Token: rec.Token}, true, nil
}

func (b *BunStore) Save(ctx context.Context, s Session) error {
	rec := &record{
		ID:        recordID,
		Username:  s.Username,
		Roles:     strings.Join(s.Roles, ","),
		Token:     s.Token,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := b.repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (b *BunStore) Clear(ctx context.Context) error {
	err := b.repo.DeleteMany(ctx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("?TableAlias.id = ?", recordID)
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func byRecordID(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Where("?TableAlias.id = ?", recordID).Limit(1)
}

// Close closes the database.
func (b *BunStore) Close() error {
	return b.db.Close()
}

func splitRoles(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
