// Package swagger holds the OpenAPI document for the admin API.
// Kept in the layout `swag init -g cmd/processor/main.go -o docs/swagger` emits
// so it can be regenerated from the handler annotations.
package swagger

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
        "/api/v1/records": {
            "get": {
                "description": "Get the most recently stored delivery records, newest first",
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "List recent delivery records",
                "parameters": [
                    {
                        "type": "integer",
                        "default": 50,
                        "description": "Maximum number of records (1-1000)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RecordListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/stats": {
            "get": {
                "description": "Router, listener and broker counters plus the stored record count",
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Pipeline statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.StatsResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Invalid request"},
                "message": {"type": "string", "example": "limit must be between 1 and 1000"},
                "timestamp": {"type": "string", "example": "2025-01-18T12:34:56Z"}
            }
        },
        "dto.RecordListResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer", "example": 50},
                "records": {"type": "array", "items": {"$ref": "#/definitions/dto.RecordResponse"}},
                "total": {"type": "integer", "example": 1234}
            }
        },
        "dto.RecordResponse": {
            "type": "object",
            "properties": {
                "content": {},
                "id": {"type": "string", "example": "665f1c2e9b1e8a3d4c5b6a79"},
                "timestamp": {"type": "string", "example": "2025-01-18T12:34:56Z"}
            }
        },
        "dto.StatsResponse": {
            "type": "object",
            "properties": {
                "broker": {"$ref": "#/definitions/mq.QueueStats"},
                "listeners": {"type": "array", "items": {"$ref": "#/definitions/listener.Stats"}},
                "record_count": {"type": "integer"},
                "router": {"$ref": "#/definitions/router.Stats"},
                "timestamp": {"type": "string"}
            }
        },
        "listener.Stats": {
            "type": "object",
            "properties": {
                "messages_received": {"type": "integer"},
                "panics": {"type": "integer"},
                "persist_errors": {"type": "integer"},
                "queue": {"type": "string"},
                "receive_errors": {"type": "integer"},
                "records_stored": {"type": "integer"}
            }
        },
        "mq.QueueStats": {
            "type": "object",
            "properties": {
                "open_receivers": {"type": "integer"},
                "total_completed": {"type": "integer"},
                "total_delivered": {"type": "integer"},
                "total_errors": {"type": "integer"},
                "total_published": {"type": "integer"}
            }
        },
        "router.Stats": {
            "type": "object",
            "properties": {
                "batches_received": {"type": "integer"},
                "events_received": {"type": "integer"},
                "events_routed": {"type": "integer"},
                "send_errors": {"type": "integer"},
                "state": {"type": "string"},
                "stream_errors": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Event Hub Data Processor Admin API",
	Description:      "Internal admin API exposing routing statistics and stored delivery records",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
