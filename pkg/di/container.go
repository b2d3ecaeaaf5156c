package di

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/goliatone/go-pos-console/api"
	"github.com/goliatone/go-pos-console/cache"
	"github.com/goliatone/go-pos-console/cart"
	"github.com/goliatone/go-pos-console/console"
	"github.com/goliatone/go-pos-console/filter"
	"github.com/goliatone/go-pos-console/internal/pkg/config"
	"github.com/goliatone/go-pos-console/internal/pkg/logger"
	"github.com/goliatone/go-pos-console/listcache"
	"github.com/goliatone/go-pos-console/mutation"
	"github.com/goliatone/go-pos-console/resourcecache"
	"github.com/goliatone/go-pos-console/session"
)

// Option configures a Container.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	httpClient *http.Client
	confirmer  mutation.Confirmer
	notifier   console.Notifier
	store      session.Store
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient replaces the API client's HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithConfirmer sets the confirmation gateway. Without one, prompts are accepted.
func WithConfirmer(c mutation.Confirmer) Option {
	return func(o *options) { o.confirmer = c }
}

// WithNotifier sets the notification gateway. Defaults to a LogNotifier.
func WithNotifier(n console.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithSessionStore replaces the store selected by the configuration.
func WithSessionStore(s session.Store) Option {
	return func(o *options) { o.store = s }
}

// Container provides dependency injection for the console.
// It owns singleton instances of the API client, the detail cache service,
// the key serializer, the mutator, the session manager and one cached resource
// per collection.
type Container struct {
	config        *config.Config
	logger        *slog.Logger
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	client        *api.Client
	services      api.Services
	sessions      *session.Manager
	mutator       *mutation.Mutator
	notifier      console.Notifier
	app           *console.App

	menus        *resourcecache.CachedResource[api.Menu]
	tables       *resourcecache.CachedResource[api.Table]
	users        *resourcecache.CachedResource[api.User]
	transactions *resourcecache.CachedResource[api.Transaction]

	closers []func() error
}

// NewContainer wires the console from cfg. An empty session DSN keeps the
// session in memory.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Setup(cfg.App.LogLevel, cfg.App.LogFormat, nil)
	}

	cacheService, err := cache.NewCacheService(cfg.Cache)
	if err != nil {
		return nil, err
	}

	c := &Container{
		config:        cfg,
		logger:        o.logger,
		cacheService:  cacheService,
		keySerializer: cache.NewDefaultKeySerializer(),
		notifier:      o.notifier,
	}
	if c.notifier == nil {
		c.notifier = console.LogNotifier{Logger: o.logger}
	}

	store := o.store
	if store == nil {
		store, err = c.openStore(ctx)
		if err != nil {
			return nil, err
		}
	}
	c.sessions = session.NewManager(store, session.WithLogger(o.logger))
	if _, _, err := c.sessions.Restore(ctx); err != nil {
		c.Close()
		return nil, err
	}

	c.client = api.New(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	},
		api.WithHTTPClient(o.httpClient),
		api.WithTokenSource(c.sessions),
		api.WithUnauthorizedHook(c.sessions.HandleUnauthorized),
		api.WithLogger(o.logger),
	)
	c.services = api.NewServices(c.client)

	mutatorOpts := []mutation.Option{mutation.WithLogger(o.logger)}
	if o.confirmer != nil {
		mutatorOpts = append(mutatorOpts, mutation.WithConfirmer(o.confirmer))
	}
	c.mutator = mutation.New(mutatorOpts...)

	c.menus = NewCachedResource[api.Menu](c, filter.Menus, c.services.Menus.Resource)
	c.tables = NewCachedResource[api.Table](c, filter.Tables, c.services.Tables)
	c.users = NewCachedResource[api.User](c, filter.Users, c.services.Users)
	c.transactions = NewCachedResource[api.Transaction](c, filter.Transactions, c.services.Transactions.Resource)

	c.app = console.New(c.sessions, c.services.Auth,
		console.WithNotifier(c.notifier),
		console.WithValidator(c.services.Auth),
		console.WithLogger(o.logger),
	)
	c.registerScreens()

	return c, nil
}

// NewContainerWithDefaults creates a new DI container using default configuration.
// The session is kept in memory.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	cfg := config.Default()
	cfg.Session.DSN = ""
	return NewContainer(ctx, cfg, opts...)
}

// NewCachedResource decorates base with the container's detail cache and list
// cache and registers it with the mutator.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
func NewCachedResource[T any](c *Container, schema filter.Schema, base resourcecache.Backend[T]) *resourcecache.CachedResource[T] {
	res := resourcecache.New(schema, base, c.cacheService, c.keySerializer,
		resourcecache.WithMutator(c.mutator),
		resourcecache.WithLogger(c.logger),
		resourcecache.WithListOptions(listcache.WithFetchTimeout(c.config.List.FetchTimeout)),
	)
	c.mutator.Register(res)
	return res
}

func (c *Container) openStore(ctx context.Context) (session.Store, error) {
	if c.config.Session.DSN == "" {
		return session.NewMemoryStore(), nil
	}
	store, err := session.OpenBunStore(ctx, c.config.Session.DSN)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, store.Close)
	return store, nil
}

func (c *Container) registerScreens() {
	c.app.Handle(console.RouteTransactionDetail, func(ctx context.Context, m console.Match) (console.View, error) {
		return console.TransactionDetail(ctx, c.transactions, m.Param("id"))
	})
	c.app.Handle(console.RouteMenuUpdate, func(ctx context.Context, m console.Match) (console.View, error) {
		menu, err := c.menus.GetByID(ctx, m.Param("id"))
		return console.View{Name: m.Route.Name, Data: menu}, err
	})
	c.app.Handle(console.RouteTableUpdate, func(ctx context.Context, m console.Match) (console.View, error) {
		table, err := c.tables.GetByID(ctx, m.Param("id"))
		return console.View{Name: m.Route.Name, Data: table}, err
	})
	c.app.Handle(console.RouteUserUpdate, func(ctx context.Context, m console.Match) (console.View, error) {
		user, err := c.users.GetByID(ctx, m.Param("id"))
		return console.View{Name: m.Route.Name, Data: user}, err
	})
	c.app.Handle(console.RouteAccount, func(ctx context.Context, m console.Match) (console.View, error) {
		s, _ := c.sessions.Current()
		return console.View{Name: m.Route.Name, Data: s}, nil
	})
	for _, name := range []string{
		console.RouteDashboard,
		console.RouteMenuList, console.RouteMenuAdd,
		console.RouteTableList, console.RouteTableAdd,
		console.RouteUserList,
		console.RouteOrder,
		console.RouteTransactionList,
	} {
		c.app.Handle(name, func(ctx context.Context, m console.Match) (console.View, error) {
			return console.View{Name: m.Route.Name}, nil
		})
	}
}

// Config returns the configuration used by this container.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the container's logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// CacheService returns the singleton detail cache service instance.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Client returns the API client.
func (c *Container) Client() *api.Client {
	return c.client
}

// Services returns the API resources.
func (c *Container) Services() api.Services {
	return c.services
}

// Sessions returns the session manager.
func (c *Container) Sessions() *session.Manager {
	return c.sessions
}

// Mutator returns the shared mutator.
func (c *Container) Mutator() *mutation.Mutator {
	return c.mutator
}

// App returns the console.
func (c *Container) App() *console.App {
	return c.app
}

// Menus returns the cached menus resource.
func (c *Container) Menus() *resourcecache.CachedResource[api.Menu] { return c.menus }

// Tables returns the cached tables resource.
func (c *Container) Tables() *resourcecache.CachedResource[api.Table] { return c.tables }

// Users returns the cached users resource.
func (c *Container) Users() *resourcecache.CachedResource[api.User] { return c.users }

// Transactions returns the cached transactions resource.
func (c *Container) Transactions() *resourcecache.CachedResource[api.Transaction] {
	return c.transactions
}

// Editor returns the form editor configured from Mutation.KeepOpenOnFailure.
func (c *Container) Editor() *console.Editor {
	return console.NewEditor(c.notifier, c.config.Mutation.KeepOpenOnFailure)
}

// MenuScreen mounts the menu list at loc.
func (c *Container) MenuScreen(loc filter.Location) *console.ListScreen[api.Menu] {
	return console.NewListScreen(c.menus, loc, c.services.Menus, c.notifier,
		console.WithEntity("menu"), console.WithReturnTo(console.PathMenus))
}

// TableScreen mounts the table list at loc.
func (c *Container) TableScreen(loc filter.Location) *console.ListScreen[api.Table] {
	return console.NewListScreen(c.tables, loc, c.services.Tables, c.notifier,
		console.WithEntity("table"), console.WithReturnTo(console.PathTables))
}

// UserScreen mounts the user list at loc. Deleting a user deactivates the account.
func (c *Container) UserScreen(loc filter.Location) *console.ListScreen[api.User] {
	return console.NewListScreen(c.users, loc, c.services.Users, c.notifier,
		console.WithDeleteMessages(console.NoticeAccountDeleted, "Delete user failed !"),
		console.WithReturnTo(console.PathUsers))
}

// TransactionScreen mounts the transaction list at loc. Transactions cannot
// be deleted.
func (c *Container) TransactionScreen(loc filter.Location) *console.ListScreen[api.Transaction] {
	return console.NewListScreen(c.transactions, loc, nil, c.notifier, console.WithEntity("transaction"))
}

// OrderScreen mounts the order screen with an empty cart.
func (c *Container) OrderScreen() *console.OrderScreen {
	policy := cart.ClearAlways
	if c.config.Order.ClearPolicy == config.ClearOnSuccess {
		policy = cart.ClearOnSuccess
	}
	return console.NewOrderScreen(console.OrderDeps{
		Menus:        c.menus,
		Transactions: c.transactions,
		Users:        c.services.Users,
		Tables:       c.services.Tables,
		Submitter:    c.services.Transactions,
		Sessions:     c.sessions,
		Notifier:     c.notifier,
	}, console.WithClearPolicy(policy), console.WithTablePageSize(c.config.Order.TablePageSize))
}

// Close releases the session database.
func (c *Container) Close() error {
	var first error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}
