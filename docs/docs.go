// Package docs holds the OpenAPI description served under /swagger.
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
        "/api/products": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Products"],
                "summary": "list products",
                "parameters": [
                    {"type": "string", "description": "category filter (food, snack, tea, juice, all)", "name": "category", "in": "query"},
                    {"type": "string", "description": "locale code", "name": "lang", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ProductCollection"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}}
                }
            }
        },
        "/api/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Products"],
                "summary": "get a product",
                "parameters": [
                    {"type": "string", "description": "product id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "locale code", "name": "lang", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ProductEntry"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}}
                }
            }
        },
        "/api/languages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Translation"],
                "summary": "list supported languages",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/translate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Translation"],
                "summary": "translate texts",
                "parameters": [
                    {"description": "texts and target locale", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/adminapi.translateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "admin login",
                "parameters": [
                    {"description": "credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/adminapi.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "admin logout",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/admin/products": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "create a product",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.ProductEntry"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}}
                }
            }
        },
        "/api/admin/products/{id}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "update a product",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "string", "description": "product id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ProductEntry"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}}
                }
            },
            "delete": {
                "tags": ["Admin"],
                "summary": "delete a product",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "string", "description": "product id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}}
                }
            }
        },
        "/api/admin/products/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "export the catalog as csv or xlsx",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "string", "description": "csv or xlsx", "name": "format", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "get the background job list",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/admin/jobs/{name}/run": {
            "post": {
                "tags": ["Admin"],
                "summary": "run a background job now",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "string", "description": "job name", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}}
                }
            }
        },
        "/api/admin/upload": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "upload a product image",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "file", "description": "image file", "name": "files", "in": "formData", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Image"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/webserver.ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Image": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "url": {"type": "string"}}
        },
        "domain.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "documentId": {"type": "string"},
                "name": {"type": "string"},
                "price": {"type": "number"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "orderFormUrl": {"type": "string"},
                "image": {"$ref": "#/definitions/domain.Image"},
                "locale": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.ProductCollection": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}},
                "meta": {
                    "type": "object",
                    "properties": {"source": {"type": "string"}, "backend": {"type": "string"}, "count": {"type": "integer"}}
                }
            }
        },
        "domain.ProductEntry": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/domain.Product"},
                "meta": {
                    "type": "object",
                    "properties": {"source": {"type": "string"}, "backend": {"type": "string"}}
                }
            }
        },
        "adminapi.translateRequest": {
            "type": "object",
            "properties": {
                "targetLang": {"type": "string"},
                "sourceLang": {"type": "string"},
                "texts": {"type": "array", "items": {"type": "string"}}
            }
        },
        "adminapi.loginRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "webserver.ErrorBody": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "message": {"type": "string"}, "detail": {}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Product catalog with durable CMS or database storage, in-memory fallback and machine translation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
