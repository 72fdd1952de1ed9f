// Package docs holds the OpenAPI document served at /swagger. Keep it in step
// with the @Router annotations on the handlers.
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
        "/auth/token": {
            "post": {
                "description": "Exchanges operator credentials for a JWT.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Issue a bearer token",
                "parameters": [
                    {
                        "description": "Operator credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/auth.TokenRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/auth.TokenResponse"
                        }
                    },
                    "400": {
                        "description": "Missing credentials",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unknown operator or wrong password",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/health": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "monitoring"
                ],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "503": {
                        "description": "A dependency is down",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/monitoring/stats": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "monitoring"
                ],
                "summary": "Listener processing stats",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/database.Stats"
                        }
                    }
                }
            }
        },
        "/stock": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "stock"
                ],
                "summary": "List stock levels",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Item id",
                        "name": "itemId",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Warehouse id",
                        "name": "warehouseId",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "stockLevels and count",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "400": {
                        "description": "Malformed id",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Missing or invalid bearer token",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/stock/increase": {
            "post": {
                "description": "Adds units at a unit cost, creating the stock level on first receipt. Writes an IN ledger entry.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "stock"
                ],
                "summary": "Increase stock",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Replays the stored response for a repeated key",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "description": "Stock key, quantity and unit cost",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.IncreaseStockRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.StockLevelResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid body or stock key",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Missing or invalid bearer token",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/stock/write-down": {
            "post": {
                "description": "Removes damaged or lost units. Only unreserved units can be written down.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "stock"
                ],
                "summary": "Write down stock",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "description": "Stock key and quantity",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.WriteDownRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.StockLevelResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid body or stock key",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Stock level not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Not enough unreserved stock",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/stock/count": {
            "post": {
                "description": "Sets on hand to the counted quantity and writes an ADJUSTMENT entry for the difference.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "stock"
                ],
                "summary": "Record a cycle count",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "description": "Stock key and counted quantity",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.CountRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.StockLevelResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid body or stock key",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Count below committed stock",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/stock/relocate": {
            "post": {
                "description": "Moves a level to another location, bin, lot or serial. Quantities do not change.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "stock"
                ],
                "summary": "Relocate a stock level",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "description": "Level id and new assignments",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.RelocateRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.StockLevelResponse"
                        }
                    },
                    "400": {
                        "description": "Target key already holds a level",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Stock level not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/stock/reserve": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "reservations"
                ],
                "summary": "Reserve stock",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "description": "Stock key, quantity and reservation type",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.ReserveRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handlers.ReservationResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid body or reservation type",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Stock level not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Insufficient available stock",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reservations/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "reservations"
                ],
                "summary": "Get a reservation",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Reservation id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ReservationResponse"
                        }
                    },
                    "404": {
                        "description": "Reservation not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reservations/{id}/allocate": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "reservations"
                ],
                "summary": "Allocate a reservation",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Reservation id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Optional reason and operator",
                        "name": "request",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/handlers.ReservationActionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ReservationResponse"
                        }
                    },
                    "404": {
                        "description": "Reservation not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Reservation is not active",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reservations/{id}/release": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "reservations"
                ],
                "summary": "Release a reservation",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Reservation id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Optional reason and operator",
                        "name": "request",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/handlers.ReservationActionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ReservationResponse"
                        }
                    },
                    "404": {
                        "description": "Reservation not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Reservation is already closed",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reservations/{id}/cancel": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "reservations"
                ],
                "summary": "Cancel a reservation",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Reservation id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Optional reason and operator",
                        "name": "request",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/handlers.ReservationActionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ReservationResponse"
                        }
                    },
                    "404": {
                        "description": "Reservation not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Reservation is already closed",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reservations/{id}/pick": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "reservations"
                ],
                "summary": "Pick a reservation",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Reservation id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Optional reason and operator",
                        "name": "request",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/handlers.ReservationActionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.ReservationResponse"
                        }
                    },
                    "404": {
                        "description": "Reservation not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Reservation is not allocated",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/ledger": {
            "get": {
                "description": "Entries are ordered by transaction date, then sequence.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "ledger"
                ],
                "summary": "List ledger entries",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Item id",
                        "name": "itemId",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Warehouse id",
                        "name": "warehouseId",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Page size (max 500)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "entries and count",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "400": {
                        "description": "Malformed filter",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reconciliation": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "ledger"
                ],
                "summary": "Reconcile ledger against stock levels",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Item id",
                        "name": "itemId",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Warehouse id",
                        "name": "warehouseId",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ledger.Report"
                        }
                    }
                }
            }
        },
        "/receipts": {
            "post": {
                "description": "Applies a completed goods receipt to purchase order lines, stock levels and the ledger in one transaction. Over-receipts follow the configured policy and are listed in overages.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "receiving"
                ],
                "summary": "Process a goods receipt",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "description": "Completed goods receipt",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.GoodsReceipt"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Duplicate or empty receipt",
                        "schema": {
                            "$ref": "#/definitions/receiving.Result"
                        }
                    },
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/receiving.Result"
                        }
                    },
                    "400": {
                        "description": "Invalid receipt",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Over-receipt rejected",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/purchase-orders/{id}/recompute": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "receiving"
                ],
                "summary": "Recompute purchase order status",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Purchase order id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "orderId, status and transition",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Purchase order not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/purchase-orders/{id}/fulfillment": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "receiving"
                ],
                "summary": "Purchase order fulfillment",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Purchase order id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/receiving.Fulfillment"
                        }
                    },
                    "404": {
                        "description": "Purchase order not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string",
                    "example": "InsufficientStock"
                },
                "message": {
                    "type": "string"
                },
                "details": {
                    "type": "string"
                }
            }
        },
        "handlers.IncreaseStockRequest": {
            "type": "object",
            "required": [
                "itemId",
                "warehouseId",
                "quantity"
            ],
            "properties": {
                "itemId": {
                    "type": "string",
                    "format": "uuid"
                },
                "warehouseId": {
                    "type": "string",
                    "format": "uuid"
                },
                "locationId": {
                    "type": "string",
                    "format": "uuid"
                },
                "binId": {
                    "type": "string",
                    "format": "uuid"
                },
                "lotNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "serialNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantity": {
                    "type": "integer",
                    "format": "int64"
                },
                "unitCost": {
                    "type": "string",
                    "example": "4.50"
                },
                "reference": {
                    "type": "string"
                },
                "performedBy": {
                    "type": "string"
                }
            }
        },
        "handlers.WriteDownRequest": {
            "type": "object",
            "required": [
                "itemId",
                "warehouseId",
                "quantity"
            ],
            "properties": {
                "itemId": {
                    "type": "string",
                    "format": "uuid"
                },
                "warehouseId": {
                    "type": "string",
                    "format": "uuid"
                },
                "locationId": {
                    "type": "string",
                    "format": "uuid"
                },
                "binId": {
                    "type": "string",
                    "format": "uuid"
                },
                "lotNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "serialNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantity": {
                    "type": "integer",
                    "format": "int64"
                },
                "reference": {
                    "type": "string"
                },
                "performedBy": {
                    "type": "string"
                }
            }
        },
        "handlers.CountRequest": {
            "type": "object",
            "required": [
                "itemId",
                "warehouseId",
                "counted"
            ],
            "properties": {
                "itemId": {
                    "type": "string",
                    "format": "uuid"
                },
                "warehouseId": {
                    "type": "string",
                    "format": "uuid"
                },
                "locationId": {
                    "type": "string",
                    "format": "uuid"
                },
                "binId": {
                    "type": "string",
                    "format": "uuid"
                },
                "lotNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "serialNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "counted": {
                    "type": "integer",
                    "format": "int64"
                },
                "reference": {
                    "type": "string"
                },
                "performedBy": {
                    "type": "string"
                }
            }
        },
        "handlers.RelocateRequest": {
            "type": "object",
            "required": [
                "stockLevelId"
            ],
            "properties": {
                "stockLevelId": {
                    "type": "string",
                    "format": "uuid"
                },
                "locationId": {
                    "type": "string",
                    "format": "uuid"
                },
                "binId": {
                    "type": "string",
                    "format": "uuid"
                },
                "lotNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "serialNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "performedBy": {
                    "type": "string"
                }
            }
        },
        "handlers.ReserveRequest": {
            "type": "object",
            "required": [
                "itemId",
                "warehouseId",
                "quantity",
                "type"
            ],
            "properties": {
                "itemId": {
                    "type": "string",
                    "format": "uuid"
                },
                "warehouseId": {
                    "type": "string",
                    "format": "uuid"
                },
                "locationId": {
                    "type": "string",
                    "format": "uuid"
                },
                "binId": {
                    "type": "string",
                    "format": "uuid"
                },
                "lotNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "serialNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantity": {
                    "type": "integer",
                    "format": "int64"
                },
                "type": {
                    "type": "string",
                    "enum": [
                        "ORDER",
                        "TRANSFER",
                        "PRODUCTION"
                    ]
                },
                "reference": {
                    "type": "string"
                },
                "reservedBy": {
                    "type": "string"
                },
                "ttlSeconds": {
                    "type": "integer",
                    "format": "int64"
                }
            }
        },
        "handlers.ReservationActionRequest": {
            "type": "object",
            "properties": {
                "reason": {
                    "type": "string"
                },
                "performedBy": {
                    "type": "string"
                }
            }
        },
        "handlers.StockLevelResponse": {
            "type": "object",
            "required": [
                "itemId",
                "warehouseId"
            ],
            "properties": {
                "itemId": {
                    "type": "string",
                    "format": "uuid"
                },
                "warehouseId": {
                    "type": "string",
                    "format": "uuid"
                },
                "locationId": {
                    "type": "string",
                    "format": "uuid"
                },
                "binId": {
                    "type": "string",
                    "format": "uuid"
                },
                "lotNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "serialNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantityOnHand": {
                    "type": "integer",
                    "format": "int64"
                },
                "quantityReserved": {
                    "type": "integer",
                    "format": "int64"
                },
                "quantityAllocated": {
                    "type": "integer",
                    "format": "int64"
                },
                "quantityAvailable": {
                    "type": "integer",
                    "format": "int64"
                },
                "lastMovementAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "lastCountedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "updatedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "version": {
                    "type": "integer",
                    "format": "int64"
                }
            }
        },
        "handlers.ReservationResponse": {
            "type": "object",
            "required": [
                "itemId",
                "warehouseId"
            ],
            "properties": {
                "itemId": {
                    "type": "string",
                    "format": "uuid"
                },
                "warehouseId": {
                    "type": "string",
                    "format": "uuid"
                },
                "locationId": {
                    "type": "string",
                    "format": "uuid"
                },
                "binId": {
                    "type": "string",
                    "format": "uuid"
                },
                "lotNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "serialNumberId": {
                    "type": "string",
                    "format": "uuid"
                },
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "reservationNumber": {
                    "type": "string",
                    "example": "RES-20261019-00000001"
                },
                "stockLevelId": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantity": {
                    "type": "integer",
                    "format": "int64"
                },
                "type": {
                    "type": "string",
                    "example": "Order"
                },
                "status": {
                    "type": "string",
                    "example": "Active"
                },
                "reference": {
                    "type": "string"
                },
                "reservedBy": {
                    "type": "string"
                },
                "reservedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "expiresAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "completedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "releaseReason": {
                    "type": "string"
                }
            }
        },
        "handlers.LedgerEntryResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "transactionNumber": {
                    "type": "string",
                    "example": "TXN-GR-20261019-00000001"
                },
                "stockLevelId": {
                    "type": "string",
                    "format": "uuid"
                },
                "itemId": {
                    "type": "string",
                    "format": "uuid"
                },
                "warehouseId": {
                    "type": "string",
                    "format": "uuid"
                },
                "locationId": {
                    "type": "string",
                    "format": "uuid"
                },
                "purchaseOrderId": {
                    "type": "string",
                    "format": "uuid"
                },
                "transactionType": {
                    "type": "string",
                    "example": "IN"
                },
                "reason": {
                    "type": "string",
                    "example": "GOODS_RECEIPT"
                },
                "quantity": {
                    "type": "integer",
                    "format": "int64"
                },
                "quantityBefore": {
                    "type": "integer",
                    "format": "int64"
                },
                "unitCost": {
                    "type": "string",
                    "example": "4.50"
                },
                "totalCost": {
                    "type": "string",
                    "example": "4.50"
                },
                "transactionDate": {
                    "type": "string",
                    "format": "date-time"
                },
                "reference": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "performedBy": {
                    "type": "string"
                },
                "isApproved": {
                    "type": "boolean"
                }
            }
        },
        "auth.TokenRequest": {
            "type": "object",
            "required": [
                "username",
                "password"
            ],
            "properties": {
                "username": {
                    "type": "string",
                    "example": "picker-7"
                },
                "password": {
                    "type": "string",
                    "example": "secret"
                }
            }
        },
        "auth.TokenResponse": {
            "type": "object",
            "properties": {
                "token": {
                    "type": "string"
                },
                "type": {
                    "type": "string",
                    "example": "Bearer"
                },
                "expiresIn": {
                    "type": "integer",
                    "example": 600
                },
                "expiresAt": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "domain.GoodsReceiptItem": {
            "type": "object",
            "required": [
                "itemId",
                "quantity"
            ],
            "properties": {
                "itemId": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantity": {
                    "type": "integer",
                    "format": "int64"
                },
                "unitCost": {
                    "type": "string",
                    "example": "4.50"
                },
                "purchaseOrderItemId": {
                    "type": "string",
                    "format": "uuid"
                }
            }
        },
        "domain.GoodsReceipt": {
            "type": "object",
            "required": [
                "id",
                "receiptNumber",
                "warehouseId"
            ],
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "receiptNumber": {
                    "type": "string",
                    "example": "GRN-1001"
                },
                "warehouseId": {
                    "type": "string",
                    "format": "uuid"
                },
                "locationId": {
                    "type": "string",
                    "format": "uuid"
                },
                "purchaseOrderId": {
                    "type": "string",
                    "format": "uuid"
                },
                "receivedDate": {
                    "type": "string",
                    "format": "date-time"
                },
                "performedBy": {
                    "type": "string"
                },
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.GoodsReceiptItem"
                    }
                }
            }
        },
        "receiving.Transition": {
            "type": "object",
            "properties": {
                "orderId": {
                    "type": "string",
                    "format": "uuid"
                },
                "orderNumber": {
                    "type": "string"
                },
                "from": {
                    "type": "string",
                    "example": "Sent"
                },
                "to": {
                    "type": "string",
                    "example": "PartiallyReceived"
                }
            }
        },
        "receiving.Overage": {
            "type": "object",
            "properties": {
                "line": {
                    "type": "integer"
                },
                "purchaseOrderId": {
                    "type": "string",
                    "format": "uuid"
                },
                "purchaseOrderItemId": {
                    "type": "string",
                    "format": "uuid"
                },
                "itemId": {
                    "type": "string",
                    "format": "uuid"
                },
                "ordered": {
                    "type": "integer",
                    "format": "int64"
                },
                "quantity": {
                    "type": "integer",
                    "format": "int64"
                },
                "overage": {
                    "type": "integer",
                    "format": "int64"
                },
                "policy": {
                    "type": "string",
                    "example": "cap"
                }
            }
        },
        "receiving.Result": {
            "type": "object",
            "properties": {
                "receiptId": {
                    "type": "string",
                    "format": "uuid"
                },
                "receiptNumber": {
                    "type": "string"
                },
                "duplicate": {
                    "type": "boolean"
                },
                "skipped": {
                    "type": "boolean"
                },
                "transactionNumbers": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "transitions": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/receiving.Transition"
                    }
                },
                "overages": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/receiving.Overage"
                    }
                }
            }
        },
        "receiving.LineFulfillment": {
            "type": "object",
            "properties": {
                "lineId": {
                    "type": "string",
                    "format": "uuid"
                },
                "itemId": {
                    "type": "string",
                    "format": "uuid"
                },
                "ordered": {
                    "type": "integer",
                    "format": "int64"
                },
                "received": {
                    "type": "integer",
                    "format": "int64"
                },
                "outstanding": {
                    "type": "integer",
                    "format": "int64"
                },
                "state": {
                    "type": "string",
                    "example": "PartiallyReceived"
                }
            }
        },
        "receiving.Fulfillment": {
            "type": "object",
            "properties": {
                "orderId": {
                    "type": "string",
                    "format": "uuid"
                },
                "orderNumber": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "fullyReceived": {
                    "type": "boolean"
                },
                "lines": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/receiving.LineFulfillment"
                    }
                }
            }
        },
        "ledger.Balance": {
            "type": "object",
            "properties": {
                "itemId": {
                    "type": "string",
                    "format": "uuid"
                },
                "warehouseId": {
                    "type": "string",
                    "format": "uuid"
                },
                "onHand": {
                    "type": "integer",
                    "format": "int64"
                },
                "ledgerTotal": {
                    "type": "integer",
                    "format": "int64"
                },
                "entries": {
                    "type": "integer"
                }
            }
        },
        "ledger.Report": {
            "type": "object",
            "properties": {
                "checkedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "balances": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ledger.Balance"
                    }
                },
                "drifted": {
                    "type": "integer"
                }
            }
        },
        "database.Stats": {
            "type": "object",
            "properties": {
                "processed": {
                    "type": "integer",
                    "format": "int64"
                },
                "failed": {
                    "type": "integer",
                    "format": "int64"
                },
                "lastProcessed": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the token from /auth/token.",
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
	Schemes:          []string{"http", "https"},
	Title:            "Warehouse Ledger API",
	Description:      "Stock levels, reservations, goods receipts and the append-only inventory ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
