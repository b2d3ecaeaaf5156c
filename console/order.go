package console

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-pos-console/api"
	"github.com/goliatone/go-pos-console/cart"
	"github.com/goliatone/go-pos-console/filter"
	"github.com/goliatone/go-pos-console/listcache"
	"github.com/goliatone/go-pos-console/mutation"
	"github.com/goliatone/go-pos-console/resourcecache"
	"github.com/goliatone/go-pos-console/session"
)

// Notices of the order screen.
const (
	NoticeAddedToCart  = "Add to chart successfully !"
	NoticeOrderSuccess = "Add order success !"
	NoticeOrderFailed  = "Add order failed !"
)

// DefaultTablePageSize is how many tables the order screen offers.
const DefaultTablePageSize = 50

// ErrUserNotFound is returned when the signed in account has no user record.
var ErrUserNotFound = errors.New("console: no user for the signed in account")

// Lister lists one page of a collection.
type Lister[T any] interface {
	List(ctx context.Context, query url.Values) (api.ListResult[T], error)
}

// OrderDeps are the collaborators of an OrderScreen.
type OrderDeps struct {
	Menus        *resourcecache.CachedResource[api.Menu]
	Transactions *resourcecache.CachedResource[api.Transaction]
	Users        Lister[api.User]
	Tables       Lister[api.Table]
	Submitter    cart.Submitter
	Sessions     *session.Manager
	Notifier     Notifier
}

// OrderOption configures an OrderScreen.
type OrderOption func(*OrderScreen)

// WithClearPolicy sets when a submission empties the cart.
func WithClearPolicy(p cart.ClearPolicy) OrderOption {
	return func(s *OrderScreen) { s.policy = p }
}

// WithTablePageSize sets how many tables are loaded.
func WithTablePageSize(n int) OrderOption {
	return func(s *OrderScreen) {
		if n > 0 {
			s.tableSize = n
		}
	}
}

// OrderScreen composes an order in a cart and submits it as a transaction.
type OrderScreen struct {
	deps      OrderDeps
	cart      *cart.Cart
	policy    cart.ClearPolicy
	tableSize int
	menus     *listcache.Observer[api.Menu]

	mu      sync.Mutex
	userID  string
	tables  []api.Table
	tableID *string
}

// NewOrderScreen mounts the order screen with an empty cart.
func NewOrderScreen(deps OrderDeps, opts ...OrderOption) *OrderScreen {
	s := &OrderScreen{
		deps:      deps,
		cart:      cart.New(),
		policy:    cart.ClearAlways,
		tableSize: DefaultTablePageSize,
		menus:     deps.Menus.Observe(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cart returns the screen's cart.
func (s *OrderScreen) Cart() *cart.Cart {
	return s.cart
}

// Prepare resolves the signed in user's record and loads the tables.
func (s *OrderScreen) Prepare(ctx context.Context) error {
	sess, ok := s.deps.Sessions.Current()
	if !ok {
		return session.ErrNoSession
	}

	users, err := s.deps.Users.List(ctx, url.Values{"name": {sess.Username}})
	if err != nil {
		return err
	}
	userID := ""
	for _, u := range users.Data {
		if u.UserAccount.Username == sess.Username {
			userID = u.ID
			break
		}
	}
	if userID == "" {
		return ErrUserNotFound
	}

	tables, err := s.deps.Tables.List(ctx, url.Values{
		filter.PageParam: {strconv.Itoa(filter.DefaultPage)},
		filter.SizeParam: {strconv.Itoa(s.tableSize)},
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.userID, s.tables = userID, tables.Data
	s.mu.Unlock()
	return nil
}

// UserID returns the resolved user id, "" before Prepare.
func (s *OrderScreen) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Tables returns the loaded tables.
func (s *OrderScreen) Tables() []api.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Table(nil), s.tables...)
}

// SelectTable picks the table of the order. "" means take away.
func (s *OrderScreen) SelectTable(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.tableID = nil
		return
	}
	s.tableID = &id
}

// Menus reads the menu page for f through the shared list cache.
func (s *OrderScreen) Menus(ctx context.Context, f filter.FilterState) listcache.Entry[api.Menu] {
	return s.menus.Read(ctx, f, s.deps.Menus.Fetcher())
}

// WaitMenus blocks until the menu page is ready or failed.
func (s *OrderScreen) WaitMenus(ctx context.Context) (listcache.Entry[api.Menu], error) {
	return s.menus.Wait(ctx)
}

// Add puts one portion of m in the cart.
func (s *OrderScreen) Add(ctx context.Context, m api.Menu) {
	s.cart.Add(cart.Item{MenuID: m.ID, Name: m.Name, Price: m.Price, Image: m.Image})
	notify(ctx, s.deps.Notifier, &mutation.Notice{Level: mutation.LevelSuccess, Message: NoticeAddedToCart})
}

// Submit sends the cart as a transaction and returns to the transaction list.
// An empty cart or an unresolved user is rejected before the API is called.
func (s *OrderScreen) Submit(ctx context.Context) mutation.Result[api.Transaction] {
	s.mu.Lock()
	userID, tableID := s.userID, s.tableID
	s.mu.Unlock()

	out := s.deps.Transactions.Mutate(ctx, mutation.Request[api.Transaction]{
		Operation: mutation.Create,
		Input:     orderCheck{UserID: userID, Lines: s.cart.Len()},
		Call: func(ctx context.Context) (api.Transaction, error) {
			return api.Transaction{}, s.cart.Submit(ctx, s.deps.Submitter, userID, tableID, s.policy)
		},
		SuccessMessage: NoticeOrderSuccess,
		FailureMessage: NoticeOrderFailed,
		ReturnTo:       PathTransactions,
	})
	notify(ctx, s.deps.Notifier, out.Outcome.Notice)
	return out
}

// Close unmounts the screen.
func (s *OrderScreen) Close() {
	s.menus.Close()
}

type orderCheck struct {
	UserID string
	Lines  int
}

func (o orderCheck) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.UserID, validation.Required.Error("user not found")),
		validation.Field(&o.Lines, validation.Required.Error("cart is empty")),
	)
}
