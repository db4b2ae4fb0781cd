// Package api holds the OpenAPI description of the HTTP API.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI document, served as JSON at /openapi.json.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
