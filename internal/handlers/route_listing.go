package handlers

import (
	"html/template"
	"net/http"
	"sort"
	"strings"
	"time"

	"civicfeedback/internal/observability"

	"github.com/gin-gonic/gin"
)

// RouteInfo represents information about a single route
type RouteInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	HandlerName string `json:"handler_name"`
}

// RouteListingHandler generates automatic route listings
type RouteListingHandler struct {
	serviceName string
	routes      []RouteInfo
}

var routeListingTemplate = template.Must(template.New("routes").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Service}} - Available Routes</title>
    <style>
        body { font-family: sans-serif; padding: 20px; color: #212529; }
        table { border-collapse: collapse; width: 100%; }
        th, td { padding: 8px; text-align: left; border-bottom: 1px solid #dee2e6; }
        .path { font-family: monospace; color: #6f42c1; }
    </style>
</head>
<body>
    <h1>{{.Service}} - Available Routes</h1>
    <p>Generated {{.Generated}} | {{len .Routes}} routes | <a href="/?json=true">View as JSON</a></p>
    <table>
        <thead><tr><th>Method</th><th>Path</th><th>Handler</th></tr></thead>
        <tbody>
        {{- range .Routes}}
            <tr>
                <td>{{.Method}}</td>
                <td class="path">{{if eq .Method "GET"}}<a href="{{.Path}}">{{.Path}}</a>{{else}}{{.Path}}{{end}}</td>
                <td>{{.HandlerName}}</td>
            </tr>
        {{- end}}
        </tbody>
    </table>
</body>
</html>
`))

// NewRouteListingHandler creates a new route listing handler
func NewRouteListingHandler(serviceName string) *RouteListingHandler {
	return &RouteListingHandler{
		serviceName: serviceName,
		routes:      []RouteInfo{},
	}
}

// CollectRoutes extracts all routes from a Gin engine
func (h *RouteListingHandler) CollectRoutes(engine *gin.Engine) {
	h.routes = []RouteInfo{}

	for _, route := range engine.Routes() {
		if strings.HasPrefix(route.Path, "/debug/") {
			continue
		}

		h.routes = append(h.routes, RouteInfo{
			Method:      route.Method,
			Path:        route.Path,
			HandlerName: route.Handler,
		})
	}

	sort.Slice(h.routes, func(i, j int) bool {
		if h.routes[i].Path == h.routes[j].Path {
			return h.routes[i].Method < h.routes[j].Method
		}
		return h.routes[i].Path < h.routes[j].Path
	})
}

// Routes returns the collected routes
func (h *RouteListingHandler) Routes() []RouteInfo {
	return h.routes
}

// GetRouteListing serves the listing as JSON with ?json=true and as HTML otherwise
func (h *RouteListingHandler) GetRouteListing(c *gin.Context) {
	if c.Query("json") == "true" {
		h.GetRouteListingJSON(c)
		return
	}
	h.GetRouteListingPage(c)
}

// GetRouteListingPage shows all available routes as HTML
func (h *RouteListingHandler) GetRouteListingPage(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_route_listing_page")
	defer observability.FinishSpan(span, nil)

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	err := routeListingTemplate.Execute(c.Writer, map[string]interface{}{
		"Service":   h.serviceName,
		"Generated": time.Now().Format("2006-01-02 15:04:05"),
		"Routes":    h.routes,
	})
	if err != nil {
		_ = c.Error(err)
	}
}

// GetRouteListingJSON returns the route listing in a success envelope
func (h *RouteListingHandler) GetRouteListingJSON(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_route_listing_json")
	defer observability.FinishSpan(span, nil)
	RespondSuccess(c, http.StatusOK, h.routes)
}
