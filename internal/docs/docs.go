// Package docs registers the OpenAPI description served under /swagger.
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
        "/{user_id}/categories/create": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Create a category",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CategoryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Category created", "schema": {"$ref": "#/definitions/handlers.CreateCategoryResponse"}},
                    "400": {"description": "Empty name or invalid input", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Duplicate name", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/{user_id}/categories": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Get categories",
                "parameters": [{"type": "string", "name": "user_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Categories", "schema": {"type": "array", "items": {"$ref": "#/definitions/handlers.CategoryResponse"}}}
                }
            }
        },
        "/{user_id}/categories/{category_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Get category",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "path", "required": true},
                    {"type": "string", "name": "category_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Category", "schema": {"$ref": "#/definitions/handlers.CategoryResponse"}},
                    "404": {"description": "Category not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/{user_id}/categories/{category_id}/update": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Rename category",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "path", "required": true},
                    {"type": "string", "name": "category_id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CategoryRequest"}}
                ],
                "responses": {
                    "200": {"description": "Category updated", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            }
        },
        "/{user_id}/categories/{category_id}/delete": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Delete category",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "path", "required": true},
                    {"type": "string", "name": "category_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Category deleted", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            }
        },
        "/{user_id}/budgets/upsert": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["budgets"],
                "summary": "Upsert a budget",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.BudgetRequest"}}
                ],
                "responses": {
                    "200": {"description": "Budget created or updated", "schema": {"$ref": "#/definitions/handlers.UpsertBudgetResponse"}}
                }
            }
        },
        "/{user_id}/budgets": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["budgets"],
                "summary": "Get budgets",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "path", "required": true},
                    {"type": "string", "name": "month", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Paginated budgets"}
                }
            }
        },
        "/{user_id}/budgets/{budget_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["budgets"],
                "summary": "Get budget",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "path", "required": true},
                    {"type": "string", "name": "budget_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Budget", "schema": {"$ref": "#/definitions/handlers.BudgetResponse"}}
                }
            }
        },
        "/{user_id}/budgets/{budget_id}/progress": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["budgets"],
                "summary": "Get budget progress",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "path", "required": true},
                    {"type": "string", "name": "budget_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Budget progress"}
                }
            }
        },
        "/{user_id}/budgets/{budget_id}/update": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["budgets"],
                "summary": "Update budget",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "path", "required": true},
                    {"type": "string", "name": "budget_id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.BudgetRequest"}}
                ],
                "responses": {
                    "200": {"description": "Budget updated", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            }
        },
        "/{user_id}/budgets/{budget_id}/delete": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["budgets"],
                "summary": "Delete budget",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "path", "required": true},
                    {"type": "string", "name": "budget_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Budget deleted", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.CategoryRequest": {
            "type": "object",
            "properties": {"name": {"type": "string"}}
        },
        "handlers.CategoryResponse": {
            "type": "object",
            "properties": {
                "category_id": {"type": "string"},
                "name": {"type": "string"},
                "items": {"type": "array", "items": {"type": "object"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handlers.CreateCategoryResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "category_id": {"type": "string"},
                "name": {"type": "string"},
                "items": {"type": "array", "items": {"type": "object"}},
                "discovered": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.BudgetRequest": {
            "type": "object",
            "properties": {
                "month": {"type": "string"},
                "category_id": {"type": "string"},
                "limit": {"type": "number"}
            }
        },
        "handlers.BudgetResponse": {
            "type": "object",
            "properties": {
                "budget_id": {"type": "string"},
                "month": {"type": "string"},
                "category_id": {"type": "string"},
                "limit": {"type": "number"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handlers.UpsertBudgetResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "budget_id": {"type": "string"}
            }
        },
        "handlers.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"}
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Budgeteer API",
	Description:      "Budgeteer keeps per-user spending categories in step with the expense service and tracks monthly budgets against them.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
