// Package swagger holds the OpenAPI document served at /swagger.json.
// Regenerate with: go generate ./docs
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/jackzampolin/bedtime"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.HealthResponse"}}}
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Server status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.StatusResponse"}}}
            }
        },
        "/api/catalog": {
            "get": {
                "description": "Languages, themes, tones and lengths the generator supports",
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Describe the story catalog",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.CatalogResponse"}}}
            }
        },
        "/api/stories/generate": {
            "post": {
                "description": "Generate a new bedtime story; optionally save it to the library",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["stories"],
                "summary": "Generate a story",
                "parameters": [{"description": "Story request", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/endpoints.GenerateRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.StoryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/stories": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stories"],
                "summary": "List saved stories",
                "parameters": [
                    {"type": "boolean", "description": "Only favorites", "name": "favorites", "in": "query"},
                    {"type": "string", "description": "Language code", "name": "language", "in": "query"},
                    {"type": "string", "description": "Search text", "name": "q", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.ListStoriesResponse"}}}
            },
            "post": {
                "description": "Save a generated story. A new story must match what its request and salt generate. Saving an id that is already in the library only updates its favorite flag.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["stories"],
                "summary": "Save a story",
                "parameters": [{"description": "Story", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/story.Story"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.StoryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/stories/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stories"],
                "summary": "Get a saved story",
                "parameters": [{"type": "string", "description": "Story ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.StoryResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "The most recent deletion can be undone with POST /api/stories/undo-delete",
                "tags": ["stories"],
                "summary": "Delete a saved story",
                "parameters": [{"type": "string", "description": "Story ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/stories/undo-delete": {
            "post": {
                "produces": ["application/json"],
                "tags": ["stories"],
                "summary": "Restore the most recently deleted story",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.StoryResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/stories/{id}/favorite": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["stories"],
                "summary": "Mark or unmark a story as favorite",
                "parameters": [
                    {"type": "string", "description": "Story ID", "name": "id", "in": "path", "required": true},
                    {"description": "Omit favorite to toggle", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/endpoints.FavoriteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.StoryResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/stories/{id}/export/{format}": {
            "post": {
                "description": "Writes one file, or with format \"all\" one folder holding every format",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["export"],
                "summary": "Export a story to the export folder",
                "parameters": [
                    {"type": "string", "description": "Story ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "txt, html, pdf, rtf, epub or all", "name": "format", "in": "path", "required": true},
                    {"description": "Formats for a combined export", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/endpoints.ExportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.ExportResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/stories/{id}/download/{format}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["export"],
                "summary": "Download a story in one format",
                "parameters": [
                    {"type": "string", "description": "Story ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "txt, html, pdf, rtf or epub", "name": "format", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/library/export": {
            "get": {
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "Export the library as JSON",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/library/import": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "Import a library backup",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.ImportResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/library/epub": {
            "get": {
                "description": "One chapter per story, newest first. Defaults to favorites only.",
                "produces": ["application/octet-stream"],
                "tags": ["library"],
                "summary": "Download saved stories as one ebook",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/recovery": {
            "get": {
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "Last generated story that was not saved",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.StoryResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/settings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "List settings",
                "parameters": [{"type": "string", "description": "Key prefix", "name": "prefix", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.SettingsResponse"}}}
            }
        },
        "/api/settings/{key}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Get a setting",
                "parameters": [{"type": "string", "description": "Setting key (URL-encoded)", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.SettingResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Update a setting",
                "parameters": [
                    {"type": "string", "description": "Setting key (URL-encoded)", "name": "key", "in": "path", "required": true},
                    {"description": "New value", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/endpoints.UpdateSettingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.SettingResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/settings/reset/{key}": {
            "post": {
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Reset a setting to default",
                "parameters": [{"type": "string", "description": "Setting key (URL-encoded)", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.SettingResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "endpoints.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "endpoints.HealthResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}}
        },
        "endpoints.StatusResponse": {
            "type": "object",
            "properties": {
                "server": {"type": "string"},
                "version": {"type": "string"},
                "uptime": {"type": "string"},
                "home": {"type": "string"},
                "catalog": {
                    "type": "object",
                    "properties": {
                        "source": {"type": "string"},
                        "version": {"type": "integer"},
                        "languages": {"type": "array", "items": {"type": "string"}}
                    }
                },
                "library": {
                    "type": "object",
                    "properties": {"path": {"type": "string"}, "stories": {"type": "integer"}}
                },
                "formats": {"type": "array", "items": {"type": "string"}}
            }
        },
        "endpoints.CatalogResponse": {
            "type": "object",
            "properties": {
                "source": {"type": "string"},
                "version": {"type": "integer"},
                "languages": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "code": {"type": "string"},
                            "name": {"type": "string"},
                            "default_theme": {"type": "string"},
                            "themes": {
                                "type": "array",
                                "items": {"type": "object", "properties": {"slug": {"type": "string"}, "name": {"type": "string"}}}
                            }
                        }
                    }
                },
                "tones": {"type": "array", "items": {"type": "string"}},
                "lengths": {"type": "array", "items": {"type": "string"}}
            }
        },
        "endpoints.GenerateRequest": {
            "type": "object",
            "properties": {
                "topic": {"type": "string"},
                "child_name": {"type": "string"},
                "age": {"type": "integer"},
                "tone": {"type": "string", "enum": ["gentle", "funny", "adventurous", "calm"]},
                "theme": {"type": "string"},
                "language": {"type": "string"},
                "length": {"type": "string", "enum": ["short", "medium", "long"]},
                "breathing_exercise": {"type": "boolean"},
                "moral_lesson": {"type": "boolean"},
                "calm_closure": {"type": "boolean"},
                "salt": {"type": "string", "description": "Reproduce the story generated with this salt"},
                "save": {"type": "boolean"}
            }
        },
        "endpoints.StoryResponse": {
            "type": "object",
            "properties": {
                "story": {"$ref": "#/definitions/story.Story"},
                "saved": {"type": "boolean"}
            }
        },
        "endpoints.ListStoriesResponse": {
            "type": "object",
            "properties": {
                "stories": {"type": "array", "items": {"$ref": "#/definitions/story.Story"}},
                "total": {"type": "integer"}
            }
        },
        "endpoints.FavoriteRequest": {
            "type": "object",
            "properties": {"favorite": {"type": "boolean"}}
        },
        "endpoints.ExportRequest": {
            "type": "object",
            "properties": {"formats": {"type": "array", "items": {"type": "string"}}}
        },
        "endpoints.ExportResponse": {
            "type": "object",
            "properties": {
                "dir": {"type": "string"},
                "files": {"type": "object", "additionalProperties": {"type": "string"}},
                "errors": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "endpoints.ImportResponse": {
            "type": "object",
            "properties": {"added": {"type": "integer"}, "total": {"type": "integer"}}
        },
        "endpoints.SettingsResponse": {
            "type": "object",
            "properties": {
                "settings": {"type": "object", "additionalProperties": {"$ref": "#/definitions/config.Entry"}}
            }
        },
        "endpoints.SettingResponse": {
            "type": "object",
            "properties": {
                "entry": {"$ref": "#/definitions/config.Entry"},
                "error": {"type": "string"}
            }
        },
        "endpoints.UpdateSettingRequest": {
            "type": "object",
            "properties": {"value": {}, "description": {"type": "string"}}
        },
        "config.Entry": {
            "type": "object",
            "properties": {"key": {"type": "string"}, "value": {}, "description": {"type": "string"}}
        },
        "story.Section": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["intro", "middle", "climax", "moral", "breathing"]},
                "text": {"type": "string"}
            }
        },
        "story.Story": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "body": {"type": "string"},
                "request": {"type": "object"},
                "language": {"type": "string"},
                "theme": {"type": "string"},
                "tone": {"type": "string"},
                "length": {"type": "string"},
                "sections": {"type": "array", "items": {"$ref": "#/definitions/story.Section"}},
                "word_count": {"type": "integer"},
                "uniqueness": {"type": "number"},
                "salt": {"type": "string"},
                "created_at": {"type": "string"},
                "favorite": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8420",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Bedtime API",
	Description:      "Generate, save and export bedtime stories.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
