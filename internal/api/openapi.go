package api

import (
	"encoding/json"
	"net/http"
)

// openAPIDoc describes the JSON surface. Kept as data rather than generated:
// the API is three routes and a schema.
var openAPIDoc = map[string]any{
	"openapi": "3.0.0",
	"info": map[string]any{
		"title":   "Call Transcript Analyzer API",
		"version": "1.0.0",
	},
	"paths": map[string]any{
		"/api/analyze": map[string]any{
			"post": map[string]any{
				"summary": "Analyze transcript",
				"requestBody": map[string]any{
					"required": true,
					"content": map[string]any{
						"application/json": map[string]any{
							"schema": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"transcript": map[string]any{"type": "string"},
								},
								"required": []string{"transcript"},
							},
						},
					},
				},
				"responses": map[string]any{
					"200": map[string]any{
						"description": "Success",
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"ok":         map[string]any{"type": "boolean"},
										"id":         map[string]any{"type": "string"},
										"transcript": map[string]any{"type": "string"},
										"summary":    map[string]any{"type": "string"},
										"sentiment": map[string]any{
											"type": "string",
											"enum": []string{"Positive", "Neutral", "Negative"},
										},
										"timestamp": map[string]any{"type": "string"},
										"truncated": map[string]any{"type": "boolean"},
									},
								},
							},
						},
					},
					"400": map[string]any{"description": "Validation failure"},
					"422": map[string]any{"description": "Unrecognizable sentiment"},
					"429": map[string]any{"description": "Rate limited"},
					"502": map[string]any{"description": "Upstream model failure"},
					"504": map[string]any{"description": "Upstream model timeout"},
				},
			},
		},
		"/history": map[string]any{
			"get": map[string]any{
				"summary": "List stored analyses in append order",
			},
		},
		"/download": map[string]any{
			"get": map[string]any{
				"summary": "Download the raw history CSV",
			},
		},
	},
}

func handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(openAPIDoc)
}
