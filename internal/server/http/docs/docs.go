// Package docs registers the OpenAPI description of the checkout HTTP API with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerToken": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/api/user/register": {
            "post": {
                "summary": "Create a payer account and issue a token",
                "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}],
                "responses": {"200": {"description": "registered", "schema": {"$ref": "#/definitions/TokenResponse"}}, "400": {"description": "invalid credentials"}, "409": {"description": "login taken"}}
            }
        },
        "/api/user/login": {
            "post": {
                "summary": "Authenticate and issue a token",
                "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/AuthRequest"}}],
                "responses": {"200": {"description": "authenticated", "schema": {"$ref": "#/definitions/TokenResponse"}}, "401": {"description": "invalid credentials"}}
            }
        },
        "/api/checkout": {
            "post": {
                "summary": "Price a cart, persist the order and open a payment session",
                "security": [{"BearerToken": []}],
                "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CheckoutRequest"}}],
                "responses": {
                    "201": {"description": "order created", "schema": {"$ref": "#/definitions/CheckoutResponse"}},
                    "400": {"description": "invalid cart, address or payment method"},
                    "422": {"description": "unknown or inactive product"},
                    "502": {"description": "order persisted, payment session failed", "schema": {"$ref": "#/definitions/PaymentErrorResponse"}}
                }
            }
        },
        "/api/user/orders": {
            "get": {
                "summary": "List the caller's orders, newest first",
                "security": [{"BearerToken": []}],
                "responses": {"200": {"description": "orders"}, "204": {"description": "no orders"}}
            }
        },
        "/payment/order/{orderId}": {
            "get": {
                "summary": "Fetch one of the caller's orders",
                "security": [{"BearerToken": []}],
                "parameters": [{"in": "path", "name": "orderId", "required": true, "type": "string"}],
                "responses": {"200": {"description": "order"}, "403": {"description": "not the owner"}, "404": {"description": "unknown order"}}
            }
        },
        "/payment/order/{orderId}/retry": {
            "post": {
                "summary": "Open a new payment session for a pending gateway order",
                "security": [{"BearerToken": []}],
                "parameters": [{"in": "path", "name": "orderId", "required": true, "type": "string"}],
                "responses": {"200": {"description": "new payment url"}, "409": {"description": "payment already settled"}, "502": {"description": "gateway failure"}}
            }
        },
        "/payment/success-redirect/{orderId}": {
            "post": {
                "summary": "Gateway success redirect; validates server-side and redirects to the storefront",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [{"in": "path", "name": "orderId", "required": true, "type": "string"}, {"in": "formData", "name": "val_id", "type": "string"}],
                "responses": {"303": {"description": "redirect to storefront"}}
            }
        },
        "/payment/fail-redirect/{orderId}": {
            "post": {
                "summary": "Gateway failure redirect",
                "parameters": [{"in": "path", "name": "orderId", "required": true, "type": "string"}],
                "responses": {"303": {"description": "redirect to storefront"}}
            }
        },
        "/payment/cancel-redirect/{orderId}": {
            "post": {
                "summary": "Gateway cancel redirect",
                "parameters": [{"in": "path", "name": "orderId", "required": true, "type": "string"}],
                "responses": {"303": {"description": "redirect to storefront"}}
            }
        },
        "/payment/ipn": {
            "post": {
                "summary": "Instant payment notification",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [{"in": "formData", "name": "tran_id", "type": "string"}, {"in": "formData", "name": "val_id", "type": "string"}, {"in": "formData", "name": "status", "type": "string"}],
                "responses": {"200": {"description": "always acknowledged"}}
            }
        },
        "/api/admin/orders/{orderId}/status": {
            "patch": {
                "summary": "Move an order through the fulfilment lifecycle",
                "security": [{"BearerToken": []}],
                "parameters": [{"in": "path", "name": "orderId", "required": true, "type": "string"}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/StatusChangeRequest"}}],
                "responses": {"200": {"description": "updated order"}, "403": {"description": "not an administrator"}, "404": {"description": "unknown order"}, "409": {"description": "illegal transition"}}
            }
        },
        "/api/admin/orders/{orderId}/cash-collected": {
            "post": {
                "summary": "Record cash collected for a cash-on-delivery order",
                "security": [{"BearerToken": []}],
                "parameters": [{"in": "path", "name": "orderId", "required": true, "type": "string"}],
                "responses": {"200": {"description": "updated order"}, "409": {"description": "illegal transition"}}
            }
        },
        "/healthz": {
            "get": {
                "summary": "Database connectivity probe",
                "responses": {"200": {"description": "healthy"}, "503": {"description": "database unreachable"}}
            }
        }
    },
    "definitions": {
        "AuthRequest": {"type": "object", "properties": {"login": {"type": "string"}, "password": {"type": "string"}}},
        "RegisterRequest": {"type": "object", "properties": {"login": {"type": "string"}, "password": {"type": "string"}, "name": {"type": "string"}, "phone": {"type": "string"}}},
        "TokenResponse": {"type": "object", "properties": {"token": {"type": "string"}}},
        "CartItem": {"type": "object", "properties": {"productRef": {"type": "string"}, "quantity": {"type": "integer"}}},
        "Address": {"type": "object", "properties": {"fullName": {"type": "string"}, "phone": {"type": "string"}, "email": {"type": "string"}, "line1": {"type": "string"}, "line2": {"type": "string"}, "city": {"type": "string"}, "postalCode": {"type": "string"}, "country": {"type": "string"}}},
        "CheckoutRequest": {"type": "object", "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/CartItem"}}, "shippingAddress": {"$ref": "#/definitions/Address"}, "paymentMethod": {"type": "string", "enum": ["cash_on_delivery", "card", "mobile_banking", "net_banking"]}, "customerNotes": {"type": "string"}}},
        "CheckoutResponse": {"type": "object", "properties": {"orderId": {"type": "string"}, "status": {"type": "string"}, "paymentStatus": {"type": "string"}, "total": {"type": "string"}, "paymentUrl": {"type": "string"}}},
        "PaymentErrorResponse": {"type": "object", "properties": {"orderId": {"type": "string"}, "error": {"type": "string"}}},
        "StatusChangeRequest": {"type": "object", "properties": {"status": {"type": "string"}, "note": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Checkout API",
	Description:      "Cart checkout and gateway payment settlement.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
