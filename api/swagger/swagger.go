package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Classroom API",
        "description": "Users, roles, teacher rosters, lessons, topics and quizzes",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": ["http"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Session lifecycle"},
        {"name": "Users", "description": "User management"},
        {"name": "Roles", "description": "Roles and the role/permission matrix"},
        {"name": "Teachers", "description": "Teacher and student rosters"},
        {"name": "Lessons", "description": "Lessons, topics and lesson teachers"},
        {"name": "Quizzes", "description": "Quizzes and their allocation"}
    ],
    "paths": {
        "/core/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "Session issued", "schema": {"$ref": "#/definitions/Session"}},
                    "400": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "403": {"description": "Account inactive", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/core/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Refresh session",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}],
                "responses": {
                    "200": {"description": "Session issued", "schema": {"$ref": "#/definitions/Session"}},
                    "401": {"description": "Invalid token", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Unknown user", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "440": {"description": "Session expired", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/core/logout": {
            "get": {"tags": ["Auth"], "summary": "Logout", "responses": {"200": {"description": "Cookie cleared"}}}
        },
        "/core/me": {
            "get": {"tags": ["Auth"], "summary": "Current identity", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthenticated"}}}
        },
        "/core/user": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "sort", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ErrorBody"}}}
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate username or email", "schema": {"$ref": "#/definitions/ErrorBody"}}}
            }
        },
        "/core/user/{id}": {
            "put": {"tags": ["Users"], "summary": "Update user", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}, "409": {"description": "Conflict"}}},
            "delete": {"tags": ["Users"], "summary": "Delete user", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "Deleted"}, "404": {"description": "Not found"}}}
        },
        "/core/user/change-password": {
            "post": {"tags": ["Users"], "summary": "Change password", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/core/roles": {
            "get": {"tags": ["Roles"], "summary": "List active roles", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/core/roles/{id}/permissions": {
            "get": {"tags": ["Roles"], "summary": "Role permissions", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/core/user-role": {
            "post": {"tags": ["Roles"], "summary": "Assign role", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown user or role"}}}
        },
        "/core/role-permissions": {
            "post": {"tags": ["Roles"], "summary": "Grant permission", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}},
            "delete": {"tags": ["Roles"], "summary": "Revoke permission", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/core/teachers": {
            "get": {"tags": ["Teachers"], "summary": "List teachers", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/core/all-teachers": {
            "get": {"tags": ["Teachers"], "summary": "Paginated teachers with students and lessons", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/core/students": {
            "get": {"tags": ["Teachers"], "summary": "List students", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/core/all-students": {
            "get": {"tags": ["Teachers"], "summary": "Paginated students with teachers", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/core/teachers/{id}/students": {
            "get": {"tags": ["Teachers"], "summary": "Students of a teacher", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/core/teachers/{id}/students/export": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Export a teacher's roster",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "Roster file"}, "400": {"description": "Unknown format"}}
            }
        },
        "/core/add-student-to-teacher": {
            "post": {"tags": ["Teachers"], "summary": "Assign student to teacher", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Role mismatch"}, "404": {"description": "Not found"}}}
        },
        "/core/remove-student": {
            "post": {"tags": ["Teachers"], "summary": "Remove student from teacher", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not assigned"}}}
        },
        "/lessons": {
            "get": {"tags": ["Lessons"], "summary": "List lessons", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Lessons"], "summary": "Create lesson", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/lesson/{id}": {
            "get": {"tags": ["Lessons"], "summary": "Get lesson", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"tags": ["Lessons"], "summary": "Update lesson", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Lessons"], "summary": "Delete lesson", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "Deleted"}}}
        },
        "/lesson/{id}/teachers": {
            "get": {"tags": ["Lessons"], "summary": "Lesson teachers", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Lessons"], "summary": "Add lesson teacher", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Lesson or user not found"}}},
            "delete": {"tags": ["Lessons"], "summary": "Remove lesson teacher", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Lesson or user not found"}}}
        },
        "/topics": {
            "get": {"tags": ["Lessons"], "summary": "List topics", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/lesson/{id}/topics": {
            "get": {"tags": ["Lessons"], "summary": "Topics of a lesson", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Lessons"], "summary": "Create topic", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"201": {"description": "Created"}}}
        },
        "/topic/{id}": {
            "get": {"tags": ["Lessons"], "summary": "Get topic", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Lessons"], "summary": "Update topic", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Lessons"], "summary": "Delete topic", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "Deleted"}}}
        },
        "/topic/{id}/quiz": {
            "get": {"tags": ["Quizzes"], "summary": "Quizzes of a topic", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Quizzes"], "summary": "Create quiz and allocate it", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid content"}}}
        },
        "/quizzes": {
            "get": {"tags": ["Quizzes"], "summary": "List quizzes", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/quiz/{id}": {
            "put": {"tags": ["Quizzes"], "summary": "Update quiz", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshRequest": {
            "type": "object",
            "required": ["refreshToken"],
            "properties": {"refreshToken": {"type": "string"}}
        },
        "CreateUserRequest": {
            "type": "object",
            "required": ["username", "email", "password", "firstname", "lastname"],
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "firstname": {"type": "string"},
                "lastname": {"type": "string"},
                "phone": {"type": "string"},
                "role_id": {"type": "integer"}
            }
        },
        "Session": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "user": {"type": "object"},
                "expiresIn": {"type": "integer"},
                "refreshToken": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "pageCount": {"type": "integer"},
                "start": {"type": "integer"},
                "end": {"type": "integer"},
                "limit": {"type": "integer"},
                "page": {"type": "integer"},
                "nextPage": {"type": "integer"},
                "prevPage": {"type": "integer"}
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object"}
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
