package console

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
)

// Route names.
const (
	RouteLogin             = "login"
	RouteDashboard         = "dashboard"
	RouteMenuList          = "menu"
	RouteMenuAdd           = "menu.add"
	RouteMenuUpdate        = "menu.update"
	RouteTableList         = "table"
	RouteTableAdd          = "table.add"
	RouteTableUpdate       = "table.update"
	RouteUserList          = "user"
	RouteUserUpdate        = "user.update"
	RouteOrder             = "order"
	RouteTransactionList   = "transaction"
	RouteTransactionDetail = "transaction.detail"
	RouteAccount           = "account"
	RouteNotFound          = "not_found"
)

// Paths of the list screens, also the return targets of their modal routes.
const (
	PathLogin        = "/login"
	PathDashboard    = "/dashboard"
	PathMenus        = "/dashboard/menu"
	PathTables       = "/dashboard/table"
	PathUsers        = "/dashboard/user"
	PathOrder        = "/dashboard/order"
	PathTransactions = "/dashboard/transaction"
	PathAccount      = "/dashboard/account"
)

// Route is one entry of the route table. Modal routes name the list screen
// they are drawn over in Parent.
type Route struct {
	Name      string
	Pattern   string
	Protected bool
	Parent    string
}

// Match is a resolved path.
type Match struct {
	Route  Route
	Path   string
	Params map[string]string
}

// Param returns the named path parameter, e.g. "id".
func (m Match) Param(name string) string {
	return m.Params[name]
}

// NotFound reports whether no route matched.
func (m Match) NotFound() bool {
	return m.Route.Name == RouteNotFound
}

// Routes returns the console's route table.
func Routes() []Route {
	return []Route{
		{Name: RouteLogin, Pattern: PathLogin},
		{Name: RouteDashboard, Pattern: PathDashboard, Protected: true},
		{Name: RouteMenuList, Pattern: PathMenus, Protected: true},
		{Name: RouteMenuAdd, Pattern: PathMenus + "/add", Protected: true, Parent: RouteMenuList},
		{Name: RouteMenuUpdate, Pattern: PathMenus + "/update/{id}", Protected: true, Parent: RouteMenuList},
		{Name: RouteTableList, Pattern: PathTables, Protected: true},
		{Name: RouteTableAdd, Pattern: PathTables + "/add", Protected: true, Parent: RouteTableList},
		{Name: RouteTableUpdate, Pattern: PathTables + "/update/{id}", Protected: true, Parent: RouteTableList},
		{Name: RouteUserList, Pattern: PathUsers, Protected: true},
		{Name: RouteUserUpdate, Pattern: PathUsers + "/update/{id}", Protected: true, Parent: RouteUserList},
		{Name: RouteOrder, Pattern: PathOrder, Protected: true},
		{Name: RouteTransactionList, Pattern: PathTransactions, Protected: true},
		{Name: RouteTransactionDetail, Pattern: PathTransactions + "/detail/{id}", Protected: true, Parent: RouteTransactionList},
		{Name: RouteAccount, Pattern: PathAccount, Protected: true},
	}
}

// Router resolves paths against a route table.
type Router struct {
	routes []Route
	byName map[string]Route
	mux    *mux.Router
}

// NewRouter returns a router over routes, or over Routes() when none are given.
// Patterns use gorilla/mux syntax, e.g. "/dashboard/menu/update/{id}".
func NewRouter(routes ...Route) *Router {
	if len(routes) == 0 {
		routes = Routes()
	}
	r := &Router{
		routes: routes,
		byName: make(map[string]Route, len(routes)),
		mux:    mux.NewRouter(),
	}
	for _, route := range routes {
		r.byName[route.Name] = route
		r.mux.Path(route.Pattern).Name(route.Name)
	}
	return r
}

// Resolve matches path, ignoring its query string and a trailing slash.
// Unknown paths resolve to the not found route.
func (r *Router) Resolve(path string) Match {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "" || path == "/" {
		path = PathDashboard
	}

	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: path}}
	var rm mux.RouteMatch
	if !r.mux.Match(req, &rm) || rm.Route == nil {
		return Match{Route: Route{Name: RouteNotFound, Pattern: "*"}, Path: path}
	}
	route, ok := r.byName[rm.Route.GetName()]
	if !ok {
		return Match{Route: Route{Name: RouteNotFound, Pattern: "*"}, Path: path}
	}

	var params map[string]string
	if len(rm.Vars) > 0 {
		params = rm.Vars
	}
	return Match{Route: route, Path: path, Params: params}
}

// Lookup returns the route named name.
func (r *Router) Lookup(name string) (Route, bool) {
	route, ok := r.byName[name]
	return route, ok
}

// ReturnPath is where a modal route goes back to once its form is done.
// Non modal routes return their own path.
func (r *Router) ReturnPath(m Match) string {
	if m.Route.Parent == "" {
		return m.Path
	}
	if parent, ok := r.Lookup(m.Route.Parent); ok {
		return parent.Pattern
	}
	return PathDashboard
}

// Link fills the {params} of pattern in order.
func Link(pattern string, values ...string) string {
	parts := strings.Split(strings.Trim(pattern, "/"), "/")
	for i, p := range parts {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") && len(values) > 0 {
			parts[i], values = url.PathEscape(values[0]), values[1:]
		}
	}
	return "/" + strings.Join(parts, "/")
}
