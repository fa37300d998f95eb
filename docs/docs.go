// Package docs registers the OpenAPI description of the JSON endpoints with swag.
// Regenerate with `swag init -g cmd/server/main.go` after changing handler annotations.
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
        "/api/audit": {
            "get": {
                "description": "Newest first. Empty when no audit database is configured.",
                "produces": ["application/json"],
                "tags": ["audit"],
                "summary": "Recent privileged changes",
                "parameters": [
                    {"type": "integer", "default": 50, "description": "Maximum entries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AuditListResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/news/latest": {
            "get": {
                "description": "Published news with content, newest first. An unreachable backend yields an empty list.",
                "produces": ["application/json"],
                "tags": ["news"],
                "summary": "Latest news",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page", "name": "page", "in": "query"},
                    {"type": "integer", "default": 3, "description": "Items per page", "name": "perPage", "in": "query"},
                    {"type": "string", "default": "-created", "description": "Sort expression", "name": "sort", "in": "query"},
                    {"type": "string", "description": "Filter expression", "name": "filter", "in": "query"},
                    {"type": "string", "default": "tags", "description": "Relations to expand", "name": "expand", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.NewsListResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/roles/description": {
            "get": {
                "produces": ["application/json"],
                "tags": ["recruitment"],
                "summary": "Get the description of a role",
                "parameters": [
                    {"type": "string", "description": "Role name", "name": "name", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.RoleDescriptionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.RoleDescriptionResponse"}}
                }
            }
        },
        "/api/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.SessionResponse"}}
                }
            }
        },
        "/api/validate-staff": {
            "post": {
                "description": "Checks the shared staff password on the server. A success also unlocks federated login for the session.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Validate the staff password",
                "parameters": [
                    {"description": "Staff password", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ValidateStaffRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ValidateStaffResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ValidateStaffResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ValidateStaffResponse"}},
                    "405": {"description": "Method Not Allowed", "schema": {"$ref": "#/definitions/handler.ValidateStaffResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ValidateStaffResponse"}}
                }
            }
        },
        "/events/{collection}": {
            "get": {
                "description": "Server-sent events named create, update or delete, carrying the changed record. 204 when the backend is not configured.",
                "produces": ["text/event-stream"],
                "tags": ["realtime"],
                "summary": "Change notifications for a collection",
                "parameters": [
                    {"type": "string", "description": "Collection", "name": "collection", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "event stream", "schema": {"type": "string"}},
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.AuditListResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"type": "object"}}
            }
        },
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handler.NewsListResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"type": "object"}}
            }
        },
        "handler.RoleDescriptionResponse": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "handler.SessionResponse": {
            "type": "object",
            "properties": {
                "authenticated": {"type": "boolean"},
                "canManage": {"type": "boolean"},
                "staffVerified": {"type": "boolean"},
                "user": {"type": "object"}
            }
        },
        "handler.ValidateStaffRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"}
            }
        },
        "handler.ValidateStaffResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "ok": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "TLG site API",
	Description:      "JSON endpoints of the TLG website: latest news, role descriptions, session state, staff check and change notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
