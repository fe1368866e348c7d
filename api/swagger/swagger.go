package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "StaffLink Finance API",
        "description": "Financial consistency and invoicing core for healthcare staffing",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Financial", "description": "Pre-invoice validation, edit gating and drift detection"},
        {"name": "Invoices", "description": "Invoice generation, sending and lookup"},
        {"name": "Workflows", "description": "Auto-raised admin tasks"},
        {"name": "ChangeLogs", "description": "Append-only audit trail"}
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
        "/financial/validate": {
            "post": {
                "tags": ["Financial"],
                "summary": "Run a financial consistency check",
                "description": "Dispatches on operation_type: pre_invoice, edit_validation or detect_drift",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/invoices/generate": {
            "post": {
                "tags": ["Invoices"],
                "summary": "Generate draft invoices from approved timesheets",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateInvoicesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/invoices": {
            "get": {
                "tags": ["Invoices"],
                "summary": "List invoices",
                "parameters": [
                    {"name": "client_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "period_start", "in": "query", "type": "string"},
                    {"name": "period_end", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/invoices/{id}": {
            "get": {
                "tags": ["Invoices"],
                "summary": "Fetch one invoice",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/invoices/{id}/send": {
            "post": {
                "tags": ["Invoices"],
                "summary": "Send a draft invoice and lock its timesheets",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Concurrent send or already sent"}
                }
            }
        },
        "/workflows": {
            "get": {
                "tags": ["Workflows"],
                "summary": "List admin workflows",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "priority", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/change-logs": {
            "get": {
                "tags": ["ChangeLogs"],
                "summary": "List audit trail entries",
                "parameters": [
                    {"name": "entity_type", "in": "query", "type": "string"},
                    {"name": "entity_id", "in": "query", "type": "string"},
                    {"name": "risk_level", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ValidateRequest": {
            "type": "object",
            "properties": {
                "operation_type": {"type": "string", "enum": ["pre_invoice", "edit_validation", "detect_drift"]},
                "timesheet_ids": {"type": "array", "items": {"type": "string"}},
                "entity_type": {"type": "string"},
                "entity_id": {"type": "string"},
                "proposed_changes": {"type": "object"},
                "invoice_id": {"type": "string"}
            },
            "required": ["operation_type"]
        },
        "GenerateInvoicesRequest": {
            "type": "object",
            "properties": {
                "timesheet_ids": {"type": "array", "items": {"type": "string"}},
                "auto_mode": {"type": "boolean"},
                "client_id": {"type": "string"},
                "period_start": {"type": "string"},
                "period_end": {"type": "string"}
            }
        },
        "FinancialIssue": {
            "type": "object",
            "properties": {
                "severity": {"type": "string"},
                "issue": {"type": "string"},
                "message": {"type": "string"},
                "timesheet_id": {"type": "string"},
                "shift_id": {"type": "string"}
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
