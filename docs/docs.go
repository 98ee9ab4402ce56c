// Package docs holds the swag-generated Swagger spec for the control
// plane. Hand-maintained here in place of running `swag init`, in the
// shape swag itself would produce: a SwaggerInfo registration plus the
// template gin-swagger serves at /swagger/*.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/api/v1/queues": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["queues"],
                "summary": "List queues",
                "responses": {"200": {"description": "ok"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["queues"],
                "summary": "Create a queue",
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/api/v1/queues/{id}/run": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["queues"],
                "summary": "Run a queue's pending items",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/api/v1/workflows": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["workflows"],
                "summary": "List saved workflow titles",
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/api/v1/streams": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["streams"],
                "summary": "List running MJPEG streams",
                "responses": {"200": {"description": "ok"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["streams"],
                "summary": "Start an MJPEG stream",
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/auth/login": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Authenticate an operator",
                "responses": {"200": {"description": "ok"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger metadata that main fills in with
// the runtime host/port before the docs route is registered.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "bqm control plane",
	Description:      "REST API for managing batch queues, workflows, and MJPEG streams",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
