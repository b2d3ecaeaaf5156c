package console

import (
	"context"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-pos-console/api"
	"github.com/goliatone/go-pos-console/cache"
	"github.com/goliatone/go-pos-console/filter"
	"github.com/goliatone/go-pos-console/form"
	"github.com/goliatone/go-pos-console/internal/pkg/logger"
	"github.com/goliatone/go-pos-console/mutation"
	"github.com/goliatone/go-pos-console/pkg/testsupport"
	"github.com/goliatone/go-pos-console/resourcecache"
	"github.com/goliatone/go-pos-console/session"
)

type fixture struct {
	mutator  *mutation.Mutator
	notices  *Recorder
	sessions *session.Manager

	menus        *resourcecache.CachedResource[api.Menu]
	menuBackend  *testsupport.FakeBackend[api.Menu]
	tables       *resourcecache.CachedResource[api.Table]
	tableBackend *testsupport.FakeBackend[api.Table]
	users        *resourcecache.CachedResource[api.User]
	userBackend  *testsupport.FakeBackend[api.User]
	txs          *resourcecache.CachedResource[api.Transaction]
	txBackend    *testsupport.FakeBackend[api.Transaction]
}

func newFixture(t *testing.T, confirm mutation.Confirmer) *fixture {
	t.Helper()

	svc, err := cache.NewCacheService(cache.DefaultConfig())
	require.NoError(t, err)
	keys := cache.NewDefaultKeySerializer()
	log := logger.Discard()

	f := &fixture{
		mutator:  mutation.New(mutation.WithConfirmer(confirm), mutation.WithLogger(log)),
		notices:  &Recorder{},
		sessions: session.NewManager(session.NewMemoryStore(), session.WithLogger(log)),
	}

	var menus []api.Menu
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("menus.json"), &menus)
	f.menuBackend = testsupport.NewFakeBackend(testsupport.MenuAccessors(), menus...)
	f.tableBackend = testsupport.NewFakeBackend(testsupport.TableAccessors(),
		api.Table{ID: "t-1", Name: "T01"}, api.Table{ID: "t-2", Name: "T02"})
	f.userBackend = testsupport.NewFakeBackend(testsupport.UserAccessors(),
		api.User{ID: "u-1", Name: "kasir", UserAccount: api.UserAccount{Username: "kasir", IsActive: true}},
		api.User{ID: "u-2", Name: "kasir dua", UserAccount: api.UserAccount{Username: "kasir2", IsActive: true}})
	f.txBackend = testsupport.NewFakeBackend(testsupport.Accessors[api.Transaction]{
		ID:    func(tx api.Transaction) string { return tx.ID },
		SetID: func(tx api.Transaction, id string) api.Transaction { tx.ID = id; return tx },
	}, api.Transaction{
		ID:        "tx-1",
		TransDate: "2024-03-07",
		Details: []api.TransactionDetail{
			{Menu: menus[0], Qty: 2, Price: decimal.NewFromInt(30000)},
			{Menu: menus[1], Qty: 1, Price: decimal.NewFromInt(5000)},
		},
	})

	opts := []resourcecache.Option{resourcecache.WithMutator(f.mutator), resourcecache.WithLogger(log)}
	f.menus = resourcecache.New[api.Menu](filter.Menus, f.menuBackend, svc, keys, opts...)
	f.tables = resourcecache.New[api.Table](filter.Tables, f.tableBackend, svc, keys, opts...)
	f.users = resourcecache.New[api.User](filter.Users, f.userBackend, svc, keys, opts...)
	f.txs = resourcecache.New[api.Transaction](filter.Transactions, f.txBackend, svc, keys, opts...)
	f.mutator.Register(f.menus, f.tables, f.users, f.txs)

	return f
}

func (f *fixture) signIn(t *testing.T, username string) {
	t.Helper()
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(ctx, session.Session{Username: username, Roles: []string{"ROLE_ADMIN"}, Token: "opaque"}))
	f.sessions = session.NewManager(store, session.WithLogger(logger.Discard()))
	_, ok, err := f.sessions.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func location(query string) *filter.MemoryLocation {
	q, _ := url.ParseQuery(query)
	return filter.NewMemoryLocation(q)
}

type stubAuth struct {
	result api.LoginResult
	err    error
}

func (s stubAuth) Login(ctx context.Context, creds form.Credentials) (api.LoginResult, error) {
	return s.result, s.err
}
