// Package docs holds the OpenAPI document of the reimbursement API, served
// by echo-swagger at /swagger/*.
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
        "/auth": {
            "get": {
                "tags": ["auth"],
                "summary": "Close the current session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Open a session",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users or find one by attribute",
                "parameters": [
                    {"type": "string", "description": "any user attribute except password", "name": "username", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.User"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update a user",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/domain.User"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "boolean"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Create a user",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/domain.User"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a user by id",
                "parameters": [
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Delete a user",
                "parameters": [
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "boolean"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/reimbursements": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reimbursements"],
                "summary": "List all reimbursements",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Reimbursement"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reimbursements"],
                "summary": "Update a pending reimbursement",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.reimbursementRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "boolean"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reimbursements"],
                "summary": "Submit a reimbursement",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.reimbursementRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Reimbursement"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/reimbursements/status": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reimbursements"],
                "summary": "Approve or deny a reimbursement",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.resolutionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "boolean"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/reimbursements/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reimbursements"],
                "summary": "Get a reimbursement by id",
                "parameters": [
                    {"type": "integer", "description": "Reimbursement id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Reimbursement"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/reimbursements/{id}/events": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reimbursements"],
                "summary": "Audit trail of a reimbursement",
                "parameters": [
                    {"type": "integer", "description": "Reimbursement id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.ReimbursementEvent"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/reimbursements/myreimb/{authorId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reimbursements"],
                "summary": "List the reimbursements of an author",
                "parameters": [
                    {"type": "integer", "description": "Author user id", "name": "authorId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Reimbursement"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/reimbursements/filtertype/{type}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reimbursements"],
                "summary": "Filter reimbursements by type",
                "parameters": [
                    {"type": "integer", "description": "1 lodging, 2 travel, 3 food, 4 other", "name": "type", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Reimbursement"}}}
                }
            }
        },
        "/reimbursements/filterstatus/{status}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reimbursements"],
                "summary": "Filter reimbursements by status",
                "parameters": [
                    {"type": "integer", "description": "1 pending, 2 approved, 3 denied", "name": "status", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Reimbursement"}}}
                }
            }
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "domain.Principal": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "role": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "domain.Reimbursement": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "author": {"type": "integer"},
                "description": {"type": "string"},
                "id": {"type": "integer"},
                "resolved": {"type": "string"},
                "resolver": {"type": "integer"},
                "status": {"type": "integer", "enum": [1, 2, 3]},
                "submitted": {"type": "string"},
                "type": {"type": "integer", "enum": [1, 2, 3, 4]}
            }
        },
        "domain.ReimbursementEvent": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "actor_id": {"type": "integer"},
                "occurred_at": {"type": "string"},
                "reimbursement_id": {"type": "integer"},
                "status": {"type": "integer"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "id": {"type": "integer"},
                "last_name": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {
                "principal": {"$ref": "#/definitions/domain.Principal"},
                "token": {"type": "string"}
            }
        },
        "handler.reimbursementRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "author": {"type": "integer"},
                "description": {"type": "string"},
                "id": {"type": "integer"},
                "type": {"type": "integer"}
            }
        },
        "handler.resolutionRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "resolver": {"type": "integer"},
                "status": {"type": "integer"}
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

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Employee Reimbursement API",
	Description:      "Users submit reimbursements, managers resolve them and admins manage users.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
