// Package docs registra el documento OpenAPI armado desde las anotaciones de los handlers.
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
    "/elderly/{elderlyID}/doses": {
        "get": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "doses"
            ],
            "summary": "Historial de dosis",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "elderlyID",
                    "in": "path",
                    "required": true,
                    "type": "string"
                },
                {
                    "name": "limit",
                    "in": "query",
                    "required": false,
                    "type": "integer"
                },
                {
                    "name": "statuses",
                    "in": "query",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "from",
                    "in": "query",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "to",
                    "in": "query",
                    "required": false,
                    "type": "string"
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/elderly": {
        "post": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "elderly"
            ],
            "summary": "Registrar paciente",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "payload",
                    "in": "body",
                    "required": true,
                    "schema": {
                        "type": "object"
                    }
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        },
        "get": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "elderly"
            ],
            "summary": "Listar pacientes del cuidador",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/elderly/{elderlyID}": {
        "get": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "elderly"
            ],
            "summary": "Perfil de paciente",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "elderlyID",
                    "in": "path",
                    "required": true,
                    "type": "string"
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        },
        "patch": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "elderly"
            ],
            "summary": "Actualizar paciente",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "elderlyID",
                    "in": "path",
                    "required": true,
                    "type": "string"
                },
                {
                    "name": "payload",
                    "in": "body",
                    "required": true,
                    "schema": {
                        "type": "object"
                    }
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/medications": {
        "post": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "medications"
            ],
            "summary": "Crear medicación",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "payload",
                    "in": "body",
                    "required": true,
                    "schema": {
                        "type": "object"
                    }
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/medications/{medicationID}": {
        "get": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "medications"
            ],
            "summary": "Detalle de medicación",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "medicationID",
                    "in": "path",
                    "required": true,
                    "type": "string"
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        },
        "patch": {
            "consumes": [
                "application/json"
            ],
            "produces": [
                "application/json"
            ],
            "tags": [
                "medications"
            ],
            "summary": "Editar medicación",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "medicationID",
                    "in": "path",
                    "required": true,
                    "type": "string"
                },
                {
                    "name": "payload",
                    "in": "body",
                    "required": true,
                    "schema": {
                        "type": "object"
                    }
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/elderly/{elderlyID}/medications": {
        "get": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "medications"
            ],
            "summary": "Medicaciones de un paciente",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "elderlyID",
                    "in": "path",
                    "required": true,
                    "type": "string"
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/medications/log-taken": {
        "post": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "medications"
            ],
            "summary": "Registrar toma",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "payload",
                    "in": "body",
                    "required": true,
                    "schema": {
                        "type": "object"
                    }
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/medications/{medicationID}/skip": {
        "post": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "medications"
            ],
            "summary": "Omitir dosis",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "medicationID",
                    "in": "path",
                    "required": true,
                    "type": "string"
                },
                {
                    "name": "payload",
                    "in": "body",
                    "required": false,
                    "schema": {
                        "type": "object"
                    }
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/medications/{medicationID}/status": {
        "patch": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "medications"
            ],
            "summary": "Pausar o reactivar medicación",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "medicationID",
                    "in": "path",
                    "required": true,
                    "type": "string"
                },
                {
                    "name": "payload",
                    "in": "body",
                    "required": true,
                    "schema": {
                        "type": "object"
                    }
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/medications/upcoming": {
        "get": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "medications"
            ],
            "summary": "Próximas dosis",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "hours",
                    "in": "query",
                    "required": false,
                    "type": "integer"
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/elderly/{elderlyID}/adherence": {
        "get": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "reports"
            ],
            "summary": "Adherencia de un paciente",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "elderlyID",
                    "in": "path",
                    "required": true,
                    "type": "string"
                },
                {
                    "name": "from",
                    "in": "query",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "to",
                    "in": "query",
                    "required": false,
                    "type": "string"
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/medications/{medicationID}/adherence": {
        "get": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "reports"
            ],
            "summary": "Adherencia de una medicación",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "medicationID",
                    "in": "path",
                    "required": true,
                    "type": "string"
                },
                {
                    "name": "from",
                    "in": "query",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "to",
                    "in": "query",
                    "required": false,
                    "type": "string"
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/elderly/{elderlyID}/adherence/trend": {
        "get": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "reports"
            ],
            "summary": "Tendencia diaria de adherencia",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "elderlyID",
                    "in": "path",
                    "required": true,
                    "type": "string"
                },
                {
                    "name": "days",
                    "in": "query",
                    "required": false,
                    "type": "integer"
                },
                {
                    "name": "end",
                    "in": "query",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "tz",
                    "in": "query",
                    "required": false,
                    "type": "string"
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    },
    "/elderly/{elderlyID}/alerts": {
        "get": {
            "produces": [
                "application/json"
            ],
            "tags": [
                "reports"
            ],
            "summary": "Alertas de dosis",
            "parameters": [
                {
                    "name": "X-Debug-Caregiver-ID",
                    "in": "header",
                    "required": false,
                    "type": "string"
                },
                {
                    "name": "elderlyID",
                    "in": "path",
                    "required": true,
                    "type": "string"
                },
                {
                    "name": "since_hours",
                    "in": "query",
                    "required": false,
                    "type": "integer"
                },
                {
                    "name": "min_severity",
                    "in": "query",
                    "required": false,
                    "type": "string"
                }
            ],
            "responses": {
                "200": {
                    "description": "OK"
                }
            }
        }
    }
}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Medicare Adherence API",
	Description:      "Seguimiento de adherencia a medicación y alertas por severidad.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
