package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIAKAD Dosen API",
        "description": "Lecturer dashboard aggregation service for the academic portal",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Dashboard", "description": "Lecturer dashboard aggregation"},
        {"name": "Export", "description": "Asynchronous roster exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/dashboard/dosen": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Consolidated lecturer dashboard",
                "description": "Opportunistically syncs the lecturer profile and advisee roster from SIMAK, then aggregates the dashboard statistics. Internal failures degrade to defaults instead of failing the request.",
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "X-Simak-Token",
                        "in": "header",
                        "required": false,
                        "type": "string",
                        "description": "Bearer credential forwarded to SIMAK for sync"
                    }
                ],
                "responses": {
                    "200": {"description": "Dashboard payload (possibly degraded)", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Caller is not a lecturer"},
                    "404": {"description": "No lecturer profile for caller"}
                }
            }
        },
        "/dashboard/dosen/mahasiswa/export": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Export the advisee roster",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {
                        "name": "format",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "enum": ["csv", "pdf"]
                    }
                ],
                "responses": {
                    "200": {"description": "Roster file"},
                    "403": {"description": "Caller is not a lecturer"},
                    "404": {"description": "No lecturer profile for caller"}
                }
            }
        },
        "/dashboard/dosen/mahasiswa/export-jobs": {
            "post": {
                "tags": ["Export"],
                "summary": "Start an asynchronous roster export",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {"$ref": "#/definitions/ExportJobRequest"}
                    }
                ],
                "responses": {
                    "202": {"description": "Job accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Caller is not a lecturer"}
                }
            }
        },
        "/dashboard/dosen/mahasiswa/export-jobs/{id}": {
            "get": {
                "tags": ["Export"],
                "summary": "Poll an export job",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Job status with a signed download URL once finished", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Job belongs to another lecturer"},
                    "404": {"description": "Unknown job"}
                }
            }
        },
        "/dashboard/dosen/mahasiswa/exports/{token}": {
            "get": {
                "tags": ["Export"],
                "summary": "Download a finished export",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Roster file"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ExportJobRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
