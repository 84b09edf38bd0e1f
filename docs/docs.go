// Package docs registers the OpenAPI document served at /swagger. It follows
// the layout produced by swag init from the handler annotations.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "VoterAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "CronSecret": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new admin", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"tags": ["auth"], "summary": "Logout", "responses": {"204": {"description": "No Content"}}}},
        "/auth/password/forgot": {"post": {"tags": ["auth"], "summary": "Request a password reset", "responses": {"202": {"description": "Accepted"}}}},
        "/auth/password/reset": {"post": {"tags": ["auth"], "summary": "Reset password", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/auth/verification": {"post": {"tags": ["auth"], "summary": "Send an email verification code", "responses": {"202": {"description": "Accepted"}, "409": {"description": "Conflict"}}}},
        "/auth/verification/confirm": {"post": {"tags": ["auth"], "summary": "Confirm an email verification code", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/v1/elections": {
            "get": {"tags": ["elections"], "summary": "List the admin's elections", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["elections"], "summary": "Create an election", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}
        },
        "/v1/elections/{id}": {
            "get": {"tags": ["elections"], "summary": "Get an election", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["elections"], "summary": "Replace an election's configuration", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}},
            "delete": {"tags": ["elections"], "summary": "Delete an election", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}}}
        },
        "/v1/elections/{id}/results": {"get": {"tags": ["elections"], "summary": "Get the tally of a completed election", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/v1/elections/{id}/notifications": {"post": {"tags": ["elections"], "summary": "Email access keys to the voter roll", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"202": {"description": "Accepted"}}}},
        "/v1/elections/{id}/voters/login": {"post": {"tags": ["voting"], "summary": "Voter login", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "409": {"description": "Conflict"}}}},
        "/v1/elections/{id}/ballot": {"get": {"tags": ["voting"], "summary": "Get the ballot", "security": [{"VoterAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/v1/elections/{id}/votes": {"post": {"tags": ["voting"], "summary": "Submit a ballot", "security": [{"VoterAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/internal/status/reconcile": {"post": {"tags": ["internal"], "summary": "Reconcile election statuses", "security": [{"CronSecret": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Election System API",
	Description:      "Election lifecycle, voter credentials and ballot recording.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
