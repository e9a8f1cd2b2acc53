package handlers

import (
	"net/http"
	"sort"
	"strings"

	"codetech/internal/observability"
	"codetech/internal/version"

	"github.com/gin-gonic/gin"
)

// RouteInfo represents information about a single route
type RouteInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// RouteListing is the body served at the service root
type RouteListing struct {
	Service string      `json:"service"`
	Version string      `json:"version"`
	Routes  []RouteInfo `json:"routes"`
}

// RouteListingHandler lists the routes registered on an engine
type RouteListingHandler struct {
	serviceName string
	routes      []RouteInfo
}

// NewRouteListingHandler creates a new route listing handler
func NewRouteListingHandler(serviceName string) *RouteListingHandler {
	return &RouteListingHandler{
		serviceName: serviceName,
		routes:      []RouteInfo{},
	}
}

// CollectRoutes snapshots the engine's routes sorted by path, then method
func (h *RouteListingHandler) CollectRoutes(engine *gin.Engine) {
	h.routes = []RouteInfo{}
	for _, route := range engine.Routes() {
		if strings.HasPrefix(route.Path, "/debug/") {
			continue
		}
		h.routes = append(h.routes, RouteInfo{Method: route.Method, Path: route.Path})
	}

	sort.Slice(h.routes, func(i, j int) bool {
		if h.routes[i].Path != h.routes[j].Path {
			return h.routes[i].Path < h.routes[j].Path
		}
		return h.routes[i].Method < h.routes[j].Method
	})
}

// GetRouteListing returns the route listing as JSON
func (h *RouteListingHandler) GetRouteListing(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_route_listing")
	defer observability.FinishSpan(span, nil)

	c.JSON(http.StatusOK, RouteListing{
		Service: h.serviceName,
		Version: version.Version,
		Routes:  h.routes,
	})
}
