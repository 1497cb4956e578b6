package server

import (
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/handlers"
)

// RouteHandler is a function type for HTTP handlers.
type RouteHandler func(http.ResponseWriter, *http.Request)

// MethodRouter maps HTTP methods to handlers.
type MethodRouter map[string]RouteHandler

// Allow lists the routed methods for the Allow header.
func (m MethodRouter) Allow() string {
	return strings.Join(slices.Sorted(maps.Keys(m)), ", ")
}

// RouteByMethod routes requests based on HTTP method. Unrouted methods get a
// JSON 405 naming the allowed ones.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler, ok := routes[r.Method]
	if !ok {
		w.Header().Set("Allow", routes.Allow())
		handlers.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	handler(w, r)
}

// RouteResourceCollection handles a collection: GET -> list, POST -> create.
// A nil handler leaves its method unrouted.
func RouteResourceCollection(w http.ResponseWriter, r *http.Request, list, create RouteHandler) {
	routes := make(MethodRouter)
	if list != nil {
		routes[http.MethodGet] = list
	}
	if create != nil {
		routes[http.MethodPost] = create
	}
	RouteByMethod(w, r, routes)
}

// RouteResourceItem handles one item: GET -> get, PUT -> update, DELETE -> delete.
func RouteResourceItem(w http.ResponseWriter, r *http.Request, get, update, del RouteHandler) {
	routes := make(MethodRouter)
	if get != nil {
		routes[http.MethodGet] = get
	}
	if update != nil {
		routes[http.MethodPut] = update
	}
	if del != nil {
		routes[http.MethodDelete] = del
	}
	RouteByMethod(w, r, routes)
}
