package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// DocsHandler handles API documentation endpoints
type DocsHandler struct {
	version string
}

// NewDocsHandler creates a new documentation handler
func NewDocsHandler(version string) *DocsHandler {
	if version == "" {
		version = "1.0.0"
	}
	return &DocsHandler{version: version}
}

// SwaggerSpec represents the OpenAPI document structure
type SwaggerSpec struct {
	OpenAPI    string                    `json:"openapi"`
	Info       SwaggerInfo               `json:"info"`
	Paths      map[string]map[string]any `json:"paths"`
	Components SwaggerComponents         `json:"components"`
}

// SwaggerInfo represents the API information
type SwaggerInfo struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// SwaggerComponents represents the reusable components
type SwaggerComponents struct {
	Schemas map[string]any `json:"schemas"`
}

// GetSwaggerJSON returns the OpenAPI document in JSON format
func (h *DocsHandler) GetSwaggerJSON(c *gin.Context) {
	c.Header("Content-Type", "application/json")
	c.JSON(http.StatusOK, h.generateSwaggerSpec())
}

// GetSwaggerUI returns the Swagger UI HTML page
func (h *DocsHandler) GetSwaggerUI(c *gin.Context) {
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Retail Analytics API</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@4.15.5/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4.15.5/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({ url: '/docs/swagger.json', dom_id: '#swagger-ui', deepLinking: true });
        };
    </script>
</body>
</html>`

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, html)
}

// OperationPath is the route of one analytics operation, e.g.
// /v1/analytics/calculate-kpis
func OperationPath(kind analytics.OperationKind) string {
	return "/v1/analytics/" + strings.ToLower(strings.ReplaceAll(kind.String(), "_", "-"))
}

func operationSummary(kind analytics.OperationKind) string {
	return cases.Title(language.English).String(strings.ToLower(strings.ReplaceAll(kind.String(), "_", " ")))
}

func ref(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

func jsonContent(schema map[string]any) map[string]any {
	return map[string]any{
		"application/json": map[string]any{"schema": schema},
	}
}

func errorResponse(description string) map[string]any {
	return map[string]any{"description": description, "content": jsonContent(ref("Error"))}
}

func (h *DocsHandler) generateSwaggerSpec() SwaggerSpec {
	paths := map[string]map[string]any{
		"/v1/health": {
			"get": map[string]any{
				"summary": "Health check",
				"tags":    []string{"System"},
				"responses": map[string]any{
					"200": map[string]any{"description": "Server is healthy"},
				},
			},
		},
		"/v1/info": {
			"get": map[string]any{
				"summary": "API information",
				"tags":    []string{"System"},
				"responses": map[string]any{
					"200": map[string]any{"description": "Service name, version and supported operations"},
				},
			},
		},
		"/v1/analytics/operations": {
			"get": map[string]any{
				"summary": "List analytics operations",
				"tags":    []string{"Analytics"},
				"responses": map[string]any{
					"200": map[string]any{"description": "Every supported operation kind"},
				},
			},
		},
		"/v1/analytics/dashboard": {
			"post": map[string]any{
				"summary":     "Portfolio dashboard",
				"description": "Computes KPIs, risk, cash flow and billing analytics concurrently. Failed sections are listed under errors.",
				"tags":        []string{"Analytics"},
				"requestBody": map[string]any{"required": true, "content": jsonContent(ref("DashboardRequest"))},
				"responses": map[string]any{
					"200": map[string]any{"description": "At least one section was computed"},
					"400": errorResponse("Invalid request body"),
					"502": errorResponse("Every section failed"),
				},
			},
		},
	}

	for _, kind := range analytics.AllOperations() {
		paths[OperationPath(kind)] = map[string]any{
			"post": map[string]any{
				"operationId": kind.String(),
				"summary":     operationSummary(kind),
				"tags":        []string{"Analytics"},
				"parameters": []map[string]any{
					{
						"name":        CacheKeyHeader,
						"in":          "header",
						"description": "Caches the result under this key for five minutes",
						"schema":      map[string]any{"type": "string"},
					},
					{
						"name":        "cache",
						"in":          "query",
						"description": "auto derives the cache key from the payload",
						"schema":      map[string]any{"type": "string", "enum": []string{"auto"}},
					},
				},
				"requestBody": map[string]any{
					"required": true,
					"content":  jsonContent(map[string]any{"type": "object"}),
				},
				"responses": map[string]any{
					"200": map[string]any{"description": "Computed result", "content": jsonContent(ref("Result"))},
					"400": errorResponse("Invalid payload"),
					"422": errorResponse("Calculation failed"),
					"503": errorResponse("Worker context unavailable"),
					"504": errorResponse("Request timed out"),
				},
			},
		}
	}

	return SwaggerSpec{
		OpenAPI: "3.0.0",
		Info: SwaggerInfo{
			Title:       "Retail Analytics API",
			Version:     h.version,
			Description: "Portfolio analytics for retail tenants computed in an isolated worker context.",
		},
		Paths: paths,
		Components: SwaggerComponents{
			Schemas: map[string]any{
				"Result": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"success": map[string]any{"type": "boolean"},
						"data":    map[string]any{"type": "object"},
						"meta": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"operation":  map[string]any{"type": "string"},
								"request_id": map[string]any{"type": "string"},
								"from_cache": map[string]any{"type": "boolean"},
								"fallback":   map[string]any{"type": "boolean"},
							},
						},
					},
				},
				"DashboardRequest": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"billing":     map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
						"delinquency": map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
						"movements":   map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
					},
				},
				"Error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"success": map[string]any{"type": "boolean"},
						"error": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"code":    map[string]any{"type": "string"},
								"message": map[string]any{"type": "string"},
								"details": map[string]any{"type": "string"},
							},
						},
					},
				},
			},
		},
	}
}
