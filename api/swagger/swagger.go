package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Score API",
        "description": "Exam score entry, class and grade ranking, and score statistics.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Scores", "description": "Score entry, ranking, statistics and export"}
    ],
    "paths": {
        "/scores": {
            "get": {
                "tags": ["Scores"],
                "summary": "List scores",
                "parameters": [
                    {"name": "examId", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Scores"],
                "summary": "Record a score",
                "description": "Records one score and recomputes the class and grade ranks of its cohort. Roles: TEACHER, ADMIN.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScoreInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate score", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Scope busy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores/batch": {
            "post": {
                "tags": ["Scores"],
                "summary": "Record a batch of scores",
                "description": "All entries are committed together or not at all. A rejected batch reports the failing entry in error.details.index.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchScoresRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate score", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores/{id}": {
            "get": {
                "tags": ["Scores"],
                "summary": "Get score",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Scores"],
                "summary": "Correct a score",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScoreInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate score", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Scores"],
                "summary": "Delete a score",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores/ranking": {
            "get": {
                "tags": ["Scores"],
                "summary": "Ranked scores of a scope",
                "parameters": [
                    {"name": "examId", "in": "query", "required": true, "type": "string"},
                    {"name": "courseId", "in": "query", "required": true, "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores/statistics": {
            "get": {
                "tags": ["Scores"],
                "summary": "Score statistics of a scope",
                "parameters": [
                    {"name": "examId", "in": "query", "required": true, "type": "string"},
                    {"name": "courseId", "in": "query", "required": true, "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Exam or course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Thresholds not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores/students/{studentId}": {
            "get": {
                "tags": ["Scores"],
                "summary": "Score report of a student",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "examId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores/export": {
            "get": {
                "tags": ["Scores"],
                "summary": "Download a ranked score sheet",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "examId", "in": "query", "required": true, "type": "string"},
                    {"name": "courseId", "in": "query", "required": true, "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Score sheet", "schema": {"type": "file"}}
                }
            }
        },
        "/scores/recalculate": {
            "post": {
                "tags": ["Scores"],
                "summary": "Recompute ranks of a cohort",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecalculateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ScoreInput": {
            "type": "object",
            "required": ["exam_id", "student_id", "course_id"],
            "properties": {
                "exam_id": {"type": "string"},
                "student_id": {"type": "string"},
                "course_id": {"type": "string"},
                "score": {"type": "number", "x-nullable": true},
                "absent": {"type": "boolean"},
                "grade_level": {"type": "string"},
                "teacher_id": {"type": "string"},
                "remark": {"type": "string"}
            }
        },
        "BatchScoresRequest": {
            "type": "object",
            "required": ["scores"],
            "properties": {
                "scores": {"type": "array", "items": {"$ref": "#/definitions/ScoreInput"}}
            }
        },
        "RecalculateRequest": {
            "type": "object",
            "required": ["exam_id", "course_id"],
            "properties": {
                "exam_id": {"type": "string"},
                "course_id": {"type": "string"}
            }
        },
        "Score": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "exam_id": {"type": "string"},
                "student_id": {"type": "string"},
                "course_id": {"type": "string"},
                "class_id": {"type": "string"},
                "score": {"type": "number", "x-nullable": true},
                "absent": {"type": "boolean"},
                "class_rank": {"type": "integer", "x-nullable": true},
                "grade_rank": {"type": "integer", "x-nullable": true},
                "grade_level": {"type": "string", "x-nullable": true},
                "teacher_id": {"type": "string", "x-nullable": true},
                "remark": {"type": "string", "x-nullable": true},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "Statistics": {
            "type": "object",
            "properties": {
                "total_count": {"type": "integer"},
                "valid_count": {"type": "integer"},
                "absent_count": {"type": "integer"},
                "max_score": {"type": "number"},
                "min_score": {"type": "number"},
                "mean_score": {"type": "number"},
                "pass_count": {"type": "integer"},
                "pass_rate": {"type": "number"},
                "good_count": {"type": "integer"},
                "good_rate": {"type": "number"},
                "excellent_count": {"type": "integer"},
                "excellent_rate": {"type": "number"}
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
