package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GAC Quitus API",
        "description": "Workflow de validation des dossiers et génération du quitus",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Dossiers", "description": "Gestion des dossiers soumis"},
        {"name": "Workflow", "description": "Transitions de statut d'un dossier"},
        {"name": "Validations", "description": "Enregistrement des checklists de validation"},
        {"name": "Quitus", "description": "Génération et consultation du quitus"},
        {"name": "Reports", "description": "Rapports de vérification consolidés"},
        {"name": "Checklists", "description": "Catalogues de points de contrôle"}
    ],
    "paths": {
        "/dossiers": {
            "get": {
                "tags": ["Dossiers"],
                "summary": "List dossiers",
                "parameters": [
                    {"name": "statut", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Dossiers"],
                "summary": "Submit a new dossier",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDossierRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dossiers/{id}": {
            "get": {
                "tags": ["Dossiers"],
                "summary": "Get dossier detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Dossiers"],
                "summary": "Correct and resubmit a rejected dossier",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateDossierRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Dossier not in a correctable state"}
                }
            },
            "delete": {
                "tags": ["Dossiers"],
                "summary": "Delete a pending or rejected dossier",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "412": {"description": "Dossier already under review"}
                }
            }
        },
        "/dossiers/{id}/validation-type-operation": {
            "post": {
                "tags": ["Validations"],
                "summary": "Record the CB operation-type validation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OperationTypeValidationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dossiers/{id}/validation-controles-fond": {
            "post": {
                "tags": ["Validations"],
                "summary": "Record the CB substantive-controls validation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ControlsValidationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dossiers/{id}/rejet-cb": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Reject a dossier during budget review",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectDossierRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Invalid transition"}
                }
            }
        },
        "/dossiers/{id}/verifications-ordonnateur": {
            "post": {
                "tags": ["Validations"],
                "summary": "Record the ordonnateur verifications",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OrdonnateurVerificationsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dossiers/{id}/ordonnancement": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Ordonnance a dossier",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OrdonnanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Ordonnateur verifications missing or not validated"}
                }
            }
        },
        "/dossiers/{id}/validation-definitive": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Grant final accounting clearance",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Invalid transition"}
                }
            }
        },
        "/dossiers/{id}/quitus": {
            "get": {
                "tags": ["Quitus"],
                "summary": "Get the quitus of a dossier",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Quitus not generated"}
                }
            },
            "post": {
                "tags": ["Quitus"],
                "summary": "Generate the quitus",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Already generated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Dossier not definitively validated"}
                }
            }
        },
        "/dossiers/{id}/quitus/pdf": {
            "get": {
                "tags": ["Quitus"],
                "summary": "Download the quitus as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        },
        "/dossiers/{id}/rapport-verification": {
            "get": {
                "tags": ["Reports"],
                "summary": "Get the consolidated verification report",
                "produces": ["application/json", "text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/checklists/{domain}": {
            "get": {
                "tags": ["Checklists"],
                "summary": "Get the checklist catalog for a validation domain",
                "parameters": [
                    {"name": "domain", "in": "path", "required": true, "type": "string", "enum": ["TYPE_OPERATION", "CONTROLES_FOND", "VERIFICATIONS_ORDONNATEUR"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateDossierRequest": {
            "type": "object",
            "properties": {
                "numero": {"type": "string"},
                "objet": {"type": "string"},
                "beneficiaire": {"type": "string"},
                "montantDemande": {"type": "number"}
            },
            "required": ["numero", "objet", "beneficiaire"]
        },
        "UpdateDossierRequest": {
            "type": "object",
            "properties": {
                "objet": {"type": "string"},
                "beneficiaire": {"type": "string"},
                "montantDemande": {"type": "number"}
            }
        },
        "RejectDossierRequest": {
            "type": "object",
            "properties": {
                "motif": {"type": "string"},
                "details": {"type": "string"}
            },
            "required": ["motif"]
        },
        "OrdonnanceRequest": {
            "type": "object",
            "properties": {
                "montant": {"type": "number"},
                "commentaire": {"type": "string"}
            }
        },
        "ItemDecision": {
            "type": "object",
            "properties": {
                "itemId": {"type": "string"},
                "valid": {"type": "boolean"},
                "comment": {"type": "string"}
            },
            "required": ["itemId", "valid"]
        },
        "OperationTypeValidationRequest": {
            "type": "object",
            "properties": {
                "typeOperation": {"type": "string"},
                "natureOperation": {"type": "string"},
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ItemDecision"}
                },
                "commentaire": {"type": "string"}
            },
            "required": ["typeOperation", "natureOperation", "items"]
        },
        "ControlsValidationRequest": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ItemDecision"}
                }
            },
            "required": ["items"]
        },
        "OrdonnateurVerificationsRequest": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ItemDecision"}
                }
            },
            "required": ["items"]
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
