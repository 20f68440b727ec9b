// Package docs is generated by swaggo/swag from the handler annotations.
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
        "/calendar": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Hedef kapanış takvimi",
                "parameters": [
                    {"type": "integer", "name": "year", "in": "query"},
                    {"type": "integer", "name": "month", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/views.Calendar"}}}
            }
        },
        "/customers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Müşteri rehberi",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/views.CustomerSummary"}}}}
            }
        },
        "/kanban": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Kanban panosu",
                "parameters": [
                    {"type": "string", "description": "Fırsat veya müşteri adı", "name": "q", "in": "query"},
                    {"type": "number", "description": "En düşük tutar", "name": "min_amount", "in": "query"},
                    {"type": "boolean", "description": "Bu ay oluşturulanlar", "name": "this_month", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/views.Board"}}}
            }
        },
        "/opportunities": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Opportunities"],
                "summary": "Fırsat listesi",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Opportunity"}}}}
            },
            "post": {
                "description": "Fırsatı \"Teklif verildi\" aşamasında oluşturur",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Opportunities"],
                "summary": "Yeni fırsat",
                "parameters": [
                    {"description": "Fırsat", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.NewOpportunityInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Opportunity"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/opportunities/{id}/status": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Opportunities"],
                "summary": "Aşama değiştir",
                "parameters": [
                    {"type": "string", "description": "Fırsat ID", "name": "id", "in": "path", "required": true},
                    {"description": "Yeni aşama", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.statusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Opportunity"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/reports/analytics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Satış analizi",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/views.Analytics"}}}
            }
        }
    },
    "definitions": {
        "handlers.statusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {"status": {"type": "string"}}
        },
        "models.ContactPerson": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "models.Opportunity": {
            "type": "object",
            "properties": {
                "activities": {"type": "array", "items": {"type": "object"}},
                "assignee": {"type": "string"},
                "contact": {"$ref": "#/definitions/models.ContactPerson"},
                "createdAt": {"type": "string"},
                "customerName": {"type": "string"},
                "id": {"type": "string"},
                "lastUpdatedAt": {"type": "string"},
                "name": {"type": "string"},
                "notes": {"type": "string"},
                "status": {"type": "string"},
                "targetCloseDate": {"type": "string"},
                "tasks": {"type": "array", "items": {"type": "object"}},
                "totalAmount": {"type": "number"},
                "trainings": {"type": "array", "items": {"type": "object"}}
            }
        },
        "services.NewOpportunityInput": {
            "type": "object",
            "properties": {
                "assignee": {"type": "string"},
                "contact": {"$ref": "#/definitions/models.ContactPerson"},
                "customerName": {"type": "string"},
                "name": {"type": "string"},
                "notes": {"type": "string"},
                "targetCloseDate": {"type": "string"},
                "trainings": {"type": "array", "items": {"type": "object"}}
            }
        },
        "views.Analytics": {"type": "object"},
        "views.Board": {"type": "object"},
        "views.Calendar": {"type": "object"},
        "views.CustomerSummary": {"type": "object"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Eğitim CRM API",
	Description:      "Training-sales pipeline: opportunities, kanban, analytics, customers and calendar.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
