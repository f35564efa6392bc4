package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CampusHub API",
        "description": "Ownership-scoped campus data access and live synchronization",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Registration, login, token refresh"},
        {"name": "Schedules", "description": "Personal schedules and the merged day view"},
        {"name": "Notifications", "description": "Owner-scoped notification inbox"},
        {"name": "Feed", "description": "Live change feed over server-sent events"},
        {"name": "Updates", "description": "Campus-wide and class-targeted announcements"},
        {"name": "Reports", "description": "Lecturer student reports and exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in with email and password",
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/schedules/day-view": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Merged day view of personal schedules and class timetable",
                "parameters": [
                    {"name": "dayOfWeek", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Merged items in start-time order", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/notifications/unread-count": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Count the caller's unread notifications",
                "responses": {
                    "200": {"description": "Unread total", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/feed/{collection}": {
            "get": {
                "tags": ["Feed"],
                "summary": "Stream inserts of a collection as server-sent events",
                "parameters": [
                    {"name": "collection", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Event stream"},
                    "400": {"description": "Unknown collection"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
