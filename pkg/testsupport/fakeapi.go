package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-pos-console/api"
	"github.com/goliatone/go-pos-console/apperror"
	"github.com/goliatone/go-pos-console/cart"
	"github.com/goliatone/go-pos-console/form"
)

// FakeAPI serves the console's REST API from memory. Every route except login
// requires the bearer token returned by login.
type FakeAPI struct {
	Menus        *FakeBackend[api.Menu]
	Tables       *FakeBackend[api.Table]
	Users        *FakeBackend[api.User]
	Transactions *FakeBackend[api.Transaction]

	mu       sync.Mutex
	accounts map[string]account
	tokens   map[string]string
	now      func() time.Time
	router   *mux.Router
}

type account struct {
	password string
	roles    []api.Role
}

// NewFakeAPI returns an API with one super admin account "superadmin" /
// "password" and the given menus.
func NewFakeAPI(menus ...api.Menu) *FakeAPI {
	f := &FakeAPI{
		Menus:  NewFakeBackend(MenuAccessors(), menus...),
		Tables: NewFakeBackend(TableAccessors()),
		Users:  NewFakeBackend(UserAccessors()),
		Transactions: NewFakeBackend(Accessors[api.Transaction]{
			ID:    func(t api.Transaction) string { return t.ID },
			SetID: func(t api.Transaction, id string) api.Transaction { t.ID = id; return t },
			Match: NameContains[api.Transaction]("userName", func(t api.Transaction) string { return t.User.UserAccount.Username }),
		}),
		accounts: make(map[string]account),
		tokens:   make(map[string]string),
		now:      time.Now,
		router:   mux.NewRouter(),
	}
	f.AddAccount("superadmin", "password", "ROLE_SUPER_ADMIN", "ROLE_ADMIN")
	f.routes()
	return f
}

// AddAccount registers an account and its user record.
func (f *FakeAPI) AddAccount(username, password string, roles ...api.Role) api.User {
	f.mu.Lock()
	f.accounts[username] = account{password: password, roles: roles}
	f.mu.Unlock()

	u, _ := f.Users.Create(context.Background(), api.User{
		Name:        username,
		UserAccount: api.UserAccount{ID: uuid.NewString(), Username: username, Roles: roles, IsActive: true},
	})
	return u
}

// RevokeTokens invalidates every issued token.
func (f *FakeAPI) RevokeTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]string)
}

func (f *FakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.router.ServeHTTP(w, r)
}

func (f *FakeAPI) routes() {
	f.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, apperror.FromStatus(http.StatusNotFound, "route not found"))
	})

	f.router.HandleFunc("/auth/login", f.login).Methods(http.MethodPost)
	f.router.HandleFunc("/auth/validate-token", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, nil)
	})).Methods(http.MethodGet)
	f.router.HandleFunc("/auth/register", f.authed(f.register("ROLE_CUSTOMER"))).Methods(http.MethodPost)
	f.router.HandleFunc("/auth/register/admin", f.authed(f.register("ROLE_ADMIN"))).Methods(http.MethodPost)

	f.router.HandleFunc("/menus", f.authed(list(f.Menus))).Methods(http.MethodGet)
	f.router.HandleFunc("/menus/{id}", f.authed(get(f.Menus))).Methods(http.MethodGet)
	f.router.HandleFunc("/menus", f.authed(f.saveMenu)).Methods(http.MethodPost)
	f.router.HandleFunc("/menus", f.authed(f.saveMenu)).Methods(http.MethodPut)
	f.router.HandleFunc("/menus/{id}", f.authed(remove(f.Menus))).Methods(http.MethodDelete)

	f.router.HandleFunc("/tables", f.authed(list(f.Tables))).Methods(http.MethodGet)
	f.router.HandleFunc("/tables/{id}", f.authed(get(f.Tables))).Methods(http.MethodGet)
	f.router.HandleFunc("/tables", f.authed(write(f.Tables.Create))).Methods(http.MethodPost)
	f.router.HandleFunc("/tables", f.authed(write(f.Tables.Update))).Methods(http.MethodPut)
	f.router.HandleFunc("/tables/{id}", f.authed(remove(f.Tables))).Methods(http.MethodDelete)

	f.router.HandleFunc("/users", f.authed(list(f.Users))).Methods(http.MethodGet)
	f.router.HandleFunc("/users/{id}", f.authed(get(f.Users))).Methods(http.MethodGet)
	f.router.HandleFunc("/users", f.authed(write(f.Users.Update))).Methods(http.MethodPut)
	f.router.HandleFunc("/users/{id}", f.authed(f.deactivate)).Methods(http.MethodDelete)

	f.router.HandleFunc("/transactions", f.authed(list(f.Transactions))).Methods(http.MethodGet)
	f.router.HandleFunc("/transactions/csv", f.authed(f.export("text/csv"))).Methods(http.MethodGet)
	f.router.HandleFunc("/transactions/pdf", f.authed(f.export("application/pdf"))).Methods(http.MethodGet)
	f.router.HandleFunc("/transactions/{id}", f.authed(get(f.Transactions))).Methods(http.MethodGet)
	f.router.HandleFunc("/transactions", f.authed(f.createTransaction)).Methods(http.MethodPost)
}

func (f *FakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		_, ok := f.tokens[token]
		f.mu.Unlock()
		if !ok {
			writeError(w, apperror.FromStatus(http.StatusUnauthorized, "Unauthorized"))
			return
		}
		next(w, r)
	}
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var creds form.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, apperror.FromStatus(http.StatusBadRequest, err.Error()))
		return
	}

	f.mu.Lock()
	acc, ok := f.accounts[creds.Username]
	if !ok || acc.password != creds.Password {
		f.mu.Unlock()
		writeError(w, apperror.FromStatus(http.StatusUnauthorized, "Username or password is incorrect"))
		return
	}
	token := uuid.NewString()
	f.tokens[token] = creds.Username
	f.mu.Unlock()

	writeData(w, http.StatusOK, api.LoginResult{Username: creds.Username, Roles: acc.roles, Token: token})
}

func (f *FakeAPI) register(role api.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds form.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeError(w, apperror.FromStatus(http.StatusBadRequest, err.Error()))
			return
		}
		f.mu.Lock()
		_, taken := f.accounts[creds.Username]
		f.mu.Unlock()
		if taken {
			writeError(w, apperror.FromStatus(http.StatusBadRequest, "Data already exist"))
			return
		}
		writeData(w, http.StatusCreated, f.AddAccount(creds.Username, creds.Password, role))
	}
}

func (f *FakeAPI) saveMenu(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, apperror.FromStatus(http.StatusBadRequest, err.Error()))
		return
	}
	var in api.MenuInput
	if err := json.Unmarshal([]byte(r.FormValue("menu")), &in); err != nil {
		writeError(w, apperror.FromStatus(http.StatusBadRequest, err.Error()))
		return
	}

	menu := api.Menu{ID: in.ID, Name: in.Name, Price: in.Price}
	if file, header, err := r.FormFile("image"); err == nil {
		file.Close()
		menu.Image = header.Filename
	}

	var (
		out api.Menu
		err error
	)
	if r.Method == http.MethodPost {
		out, err = f.Menus.Create(r.Context(), menu)
	} else {
		out, err = f.Menus.Update(r.Context(), menu)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

func (f *FakeAPI) deactivate(w http.ResponseWriter, r *http.Request) {
	u, err := f.Users.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	u.UserAccount.IsActive = false
	if _, err := f.Users.Update(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (f *FakeAPI) createTransaction(w http.ResponseWriter, r *http.Request) {
	var order cart.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, apperror.FromStatus(http.StatusBadRequest, err.Error()))
		return
	}

	user, err := f.Users.GetByID(r.Context(), order.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	tx := api.Transaction{
		TransDate: f.now().Format("2006-01-02"),
		User:      user,
		TransType: api.TransType{ID: "TA", Description: "Take Away"},
	}
	if order.TableID != nil {
		table, err := f.Tables.GetByID(r.Context(), *order.TableID)
		if err != nil {
			writeError(w, err)
			return
		}
		tx.Table = &table
		tx.TransType = api.TransType{ID: "EI", Description: "Eat In"}
	}
	for _, d := range order.Details {
		menu, err := f.Menus.GetByID(r.Context(), d.MenuID)
		if err != nil {
			writeError(w, err)
			return
		}
		tx.Details = append(tx.Details, api.TransactionDetail{
			ID:    uuid.NewString(),
			Menu:  menu,
			Qty:   d.Qty,
			Price: menu.Price.Mul(decimal.NewFromInt(int64(d.Qty))),
		})
	}

	out, err := f.Transactions.Create(r.Context(), tx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, out)
}

// export writes the filtered transactions as CSV rows whatever the
// requested content type.
func (f *FakeAPI) export(contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		query.Set("size", "1000")
		res, err := f.Transactions.List(r.Context(), query)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentType)
		io.WriteString(w, "id,date,total\n")
		for _, tx := range res.Data {
			fmt.Fprintf(w, "%s,%s,%s\n", tx.ID, tx.TransDate, tx.Total())
		}
	}
}

func list[T any](b *FakeBackend[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := b.List(r.Context(), r.URL.Query())
		if err != nil {
			writeError(w, err)
			return
		}
		writeEnvelope(w, http.StatusOK, "OK", res.Data, &res.Paging)
	}
}

func get[T any](b *FakeBackend[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := b.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, row)
	}
}

func write[T any](fn func(ctx context.Context, payload any) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, apperror.FromStatus(http.StatusBadRequest, err.Error()))
			return
		}
		row, err := fn(r.Context(), payload)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, row)
	}
}

func remove[T any](b *FakeBackend[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := b.DeleteByID(r.Context(), mux.Vars(r)["id"]); err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, nil)
	}
}

type envelope struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       any         `json:"data"`
	Paging     *api.Paging `json:"paging,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any, paging *api.Paging) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{StatusCode: status, Message: message, Data: data, Paging: paging})
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, "OK", data, nil)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := err.Error()
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Status != 0 {
		status, message = appErr.Status, appErr.Message
	}
	writeEnvelope(w, status, message, nil, nil)
}
