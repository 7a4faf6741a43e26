package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Schulplan API",
        "description": "Weekly timetables, lesson offerings, grade sheets and to-dos",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Registration, login and session state"},
        {"name": "Lessons", "description": "Lesson offerings of the signed-in teacher"},
        {"name": "Timetable", "description": "The student's weekly schedule"},
        {"name": "Grades", "description": "Weighted grade sheet per subject"},
        {"name": "Todos", "description": "Per-user to-do list"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Create an account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Username already taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Start a session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "End the current session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "The signed-in user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "No session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons/mine": {
            "get": {
                "tags": ["Lessons"],
                "summary": "Weekly offerings of the signed-in teacher",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Offer a lesson",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot already taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons/{id}": {
            "put": {
                "tags": ["Lessons"],
                "summary": "Update an offering",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LessonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot already taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Lessons"],
                "summary": "Withdraw an offering",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons/mine/export.pdf": {
            "get": {
                "tags": ["Lessons"],
                "summary": "Download the weekly offerings as PDF",
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "The student's weekly timetable",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Timetable"],
                "summary": "Join a lesson",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflict, still-available lessons attached", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/available": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Lessons not yet joined",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/{id}": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Re-point an enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Remove an enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/export.pdf": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download the timetable as PDF",
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "Grade sheet across joined subjects",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/{subject}": {
            "put": {
                "tags": ["Grades"],
                "summary": "Replace weight and exams for one subject",
                "parameters": [
                    {"name": "subject", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveGradesRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Invalid grades", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/export.csv": {
            "get": {
                "tags": ["Grades"],
                "summary": "Download the grade sheet as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/todos": {
            "get": {
                "tags": ["Todos"],
                "summary": "List to-dos, open items first",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Todos"],
                "summary": "Add a to-do",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTodoRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/todos/{id}/toggle": {
            "post": {
                "tags": ["Todos"],
                "summary": "Flip a to-do between open and done",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/todos/{id}": {
            "delete": {
                "tags": ["Todos"],
                "summary": "Remove a to-do",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["username", "password", "role"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "teacher"]}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "LessonRequest": {
            "type": "object",
            "required": ["subject", "weekday", "start_time", "end_time"],
            "properties": {
                "subject": {"type": "string"},
                "room": {"type": "string"},
                "weekday": {"type": "integer", "minimum": 1, "maximum": 5},
                "start_time": {"type": "string", "example": "08:15"},
                "end_time": {"type": "string", "example": "09:00"}
            }
        },
        "EnrollRequest": {
            "type": "object",
            "required": ["lesson_id"],
            "properties": {
                "lesson_id": {"type": "integer"}
            }
        },
        "SaveGradesRequest": {
            "type": "object",
            "required": ["weight"],
            "properties": {
                "weight": {"type": "number"},
                "exams": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ExamInput"}
                }
            }
        },
        "ExamInput": {
            "type": "object",
            "required": ["grade", "weight"],
            "properties": {
                "grade": {"type": "number", "minimum": 1, "maximum": 6},
                "weight": {"type": "number"}
            }
        },
        "CreateTodoRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string"},
                "due_date": {"type": "string", "example": "2025-06-30"}
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
                "error": {"$ref": "#/definitions/APIError"}
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
