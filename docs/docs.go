// Package docs registers the OpenAPI document served at /swagger.
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
        "/commands": {
            "post": {
                "description": "Resolves a natural-language command against the home and returns the response. Failures are reported in the response text, never as HTTP errors.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["commands"],
                "summary": "Run a command",
                "parameters": [
                    {
                        "description": "Command text",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.CommandRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CommandResponse"}},
                    "400": {"description": "Missing command", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/commands/last": {
            "get": {
                "description": "Returns the observation of the most recently finished command",
                "produces": ["application/json"],
                "tags": ["commands"],
                "summary": "Last command",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CommandResponse"}},
                    "404": {"description": "No command processed yet", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/commands/memory": {
            "get": {
                "description": "Returns the rolling user/assistant conversation, oldest first",
                "produces": ["application/json"],
                "tags": ["commands"],
                "summary": "Conversation memory",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/pipeline.Message"}}}
                }
            }
        },
        "/devices": {
            "get": {
                "description": "Returns every device, optionally filtered by room or type",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List devices",
                "parameters": [
                    {"type": "string", "description": "Room name, synonyms accepted", "name": "room", "in": "query"},
                    {"type": "string", "description": "Device type", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListDevicesResponse"}},
                    "400": {"description": "Unknown device type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/devices/{id}": {
            "get": {
                "description": "Returns one device with its status and state schema",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Get device details",
                "parameters": [{"type": "string", "description": "Device id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DeviceResponse"}},
                    "404": {"description": "Device not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/devices/{id}/state": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Get device state",
                "parameters": [{"type": "string", "description": "Device id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StateResponse"}},
                    "404": {"description": "Device not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Merges a JSON object into the device state after validating it against the device type schema. The change is recorded in the command history.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Patch device state",
                "parameters": [
                    {"type": "string", "description": "Device id", "name": "id", "in": "path", "required": true},
                    {"description": "State fields to set", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StateResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Device not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/events": {
            "get": {
                "description": "Server-Sent Events stream with one \"state\" event per device state change",
                "produces": ["text/event-stream"],
                "tags": ["devices"],
                "summary": "Subscribe to device changes",
                "responses": {"200": {"description": "SSE event stream", "schema": {"type": "string"}}}
            }
        },
        "/health": {
            "get": {
                "description": "Returns the health of the API and the reachability of the completion backend",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service is healthy", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "503": {"description": "Completion backend unreachable", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Command history",
                "parameters": [{"type": "integer", "description": "Most recent entries to return (default 50)", "name": "limit", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HistoryResponse"}},
                    "400": {"description": "Invalid limit", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/history/patterns": {
            "get": {
                "description": "Commands of the recent history bucketed by hour of day. Empty until enough history exists.",
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Usage patterns",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PatternsResponse"}}}
            }
        },
        "/rooms": {
            "get": {
                "description": "Returns every known room with the ids of its devices",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List rooms",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.RoomsResponse"}}}
            }
        },
        "/tools": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tools"],
                "summary": "List tools",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ToolsResponse"}}}
            }
        },
        "/tools/{name}": {
            "post": {
                "description": "Runs one tool with the given arguments. A failed tool is still a 200 with success=false.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tools"],
                "summary": "Invoke a tool",
                "parameters": [
                    {"type": "string", "description": "Tool name", "name": "name", "in": "path", "required": true},
                    {"description": "Tool arguments", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/types.InvokeToolRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/tools.Result"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Unknown tool", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "pipeline.Message": {
            "type": "object",
            "properties": {
                "at": {"type": "string"},
                "role": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "tools.Param": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "enum": {"type": "array", "items": {"type": "string"}},
                "name": {"type": "string"},
                "required": {"type": "boolean"},
                "type": {"type": "string"}
            }
        },
        "tools.Descriptor": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "name": {"type": "string"},
                "params": {"type": "array", "items": {"$ref": "#/definitions/tools.Param"}}
            }
        },
        "tools.Result": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "command": {"type": "string"},
                "devices": {"type": "array", "items": {"type": "string"}},
                "message": {"type": "string"},
                "success": {"type": "boolean"},
                "tool": {"type": "string"}
            }
        },
        "history.Entry": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "command": {"type": "string"},
                "devices": {"type": "array", "items": {"type": "string"}},
                "id": {"type": "string"},
                "success": {"type": "boolean"},
                "timestamp": {"type": "string"}
            }
        },
        "types.CommandRequest": {
            "type": "object",
            "required": ["command"],
            "properties": {"command": {"type": "string"}}
        },
        "types.CommandResponse": {
            "type": "object",
            "properties": {
                "at": {"type": "string"},
                "command": {"type": "string"},
                "intent": {"type": "object"},
                "response": {"type": "string"},
                "steps": {"type": "array", "items": {"type": "object"}},
                "tier": {"type": "string"},
                "tool_results": {"type": "array", "items": {"$ref": "#/definitions/tools.Result"}}
            }
        },
        "types.DeviceView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "last_updated": {"type": "string"},
                "name": {"type": "string"},
                "room": {"type": "string"},
                "state": {"type": "object", "additionalProperties": true},
                "state_schema": {"type": "object"},
                "status": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "types.DeviceResponse": {
            "type": "object",
            "properties": {"device": {"$ref": "#/definitions/types.DeviceView"}}
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "capability": {"type": "string"},
                "devices": {"type": "integer"},
                "mode": {"type": "string"},
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "types.HistoryResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "entries": {"type": "array", "items": {"$ref": "#/definitions/history.Entry"}}
            }
        },
        "types.InvokeToolRequest": {
            "type": "object",
            "properties": {"arguments": {"type": "object", "additionalProperties": true}}
        },
        "types.ListDevicesResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "devices": {"type": "array", "items": {"$ref": "#/definitions/types.DeviceView"}}
            }
        },
        "types.PatternsResponse": {
            "type": "object",
            "properties": {
                "patterns": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
            }
        },
        "types.RoomView": {
            "type": "object",
            "properties": {
                "devices": {"type": "array", "items": {"type": "string"}},
                "name": {"type": "string"}
            }
        },
        "types.RoomsResponse": {
            "type": "object",
            "properties": {"rooms": {"type": "array", "items": {"$ref": "#/definitions/types.RoomView"}}}
        },
        "types.StateResponse": {
            "type": "object",
            "properties": {
                "device": {"type": "string"},
                "message": {"type": "string"},
                "state": {"type": "object", "additionalProperties": true},
                "timestamp": {"type": "string"}
            }
        },
        "types.ToolsResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "tools": {"type": "array", "items": {"$ref": "#/definitions/tools.Descriptor"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "homeagent API",
	Description:      "Natural-language control of a simulated smart home",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
