package main

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/service"
)

type routeDeps struct {
	authenticate gin.HandlerFunc
	permissions  *service.PermissionService
	metrics      *service.MetricsService

	auth     *handler.AuthHandler
	users    *handler.UserHandler
	roles    *handler.RoleHandler
	teachers *handler.TeacherHandler
	lessons  *handler.LessonHandler
	quizzes  *handler.QuizHandler
}

func registerRoutes(api *gin.RouterGroup, d routeDeps) {
	adminOnly := middleware.Authorize(d.metrics, models.RoleAdmin)
	notStudent := middleware.Authorize(d.metrics, models.RoleAdmin, models.RoleTeacher)
	allRoles := middleware.Authorize(d.metrics, models.RoleAdmin, models.RoleTeacher, models.RoleStudent)
	permission := func(code string) gin.HandlerFunc {
		return middleware.RequirePermission(d.permissions, code)
	}

	core := api.Group("/core")
	core.POST("/login", d.auth.Login)
	core.GET("/logout", d.auth.Logout)
	core.POST("/refresh", d.auth.Refresh)

	protected := core.Group("", d.authenticate)
	protected.GET("/me", d.auth.Me)

	protected.GET("/user", d.users.List)
	protected.POST("/user", notStudent, d.users.Create)
	protected.PUT("/user/:id", notStudent, d.users.Update)
	protected.DELETE("/user/:id", adminOnly, d.users.Delete)
	protected.POST("/user/change-password", d.users.ChangePassword)

	protected.GET("/roles", d.roles.List)
	protected.GET("/roles/:id/permissions", adminOnly, d.roles.Permissions)
	protected.POST("/user-role", notStudent, d.roles.Assign)
	protected.POST("/role-permissions", adminOnly, permission(models.PermissionFullSystem), d.roles.Grant)
	protected.DELETE("/role-permissions", adminOnly, permission(models.PermissionFullSystem), d.roles.Revoke)

	protected.GET("/teachers", adminOnly, d.teachers.Teachers)
	protected.GET("/all-teachers", adminOnly, d.teachers.AllTeachers)
	protected.GET("/students", notStudent, d.teachers.Students)
	protected.GET("/all-students", adminOnly, d.teachers.AllStudents)
	protected.GET("/teachers/:id/students", notStudent, d.teachers.StudentsOf)
	protected.GET("/teachers/:id/students/export", notStudent, d.teachers.Export)
	protected.POST("/add-student-to-teacher", notStudent, permission(models.PermissionAddStudents), d.teachers.AddStudent)
	protected.POST("/remove-student", notStudent, d.teachers.RemoveStudent)

	learning := api.Group("", d.authenticate)
	learning.GET("/lessons", notStudent, d.lessons.List)
	learning.POST("/lessons", adminOnly, d.lessons.Create)
	learning.GET("/lesson/:id", notStudent, d.lessons.Get)
	learning.PUT("/lesson/:id", adminOnly, d.lessons.Update)
	learning.DELETE("/lesson/:id", adminOnly, d.lessons.Delete)

	learning.GET("/topics", notStudent, d.lessons.AllTopics)
	learning.GET("/lesson/:id/topics", notStudent, d.lessons.Topics)
	learning.POST("/lesson/:id/topics", adminOnly, d.lessons.CreateTopic)
	learning.GET("/topic/:id", allRoles, d.lessons.Topic)
	learning.PUT("/topic/:id", adminOnly, d.lessons.UpdateTopic)
	learning.DELETE("/topic/:id", adminOnly, d.lessons.DeleteTopic)

	learning.GET("/lesson/:id/teachers", notStudent, d.lessons.Teachers)
	learning.POST("/lesson/:id/teachers", adminOnly, d.lessons.AddTeacher)
	learning.DELETE("/lesson/:id/teachers", adminOnly, d.lessons.RemoveTeacher)

	learning.GET("/topic/:id/quiz", allRoles, d.quizzes.ByTopic)
	learning.POST("/topic/:id/quiz", notStudent, permission(models.PermissionGenerateQuiz), d.quizzes.Create)
	learning.GET("/quizzes", notStudent, d.quizzes.List)
	learning.PUT("/quiz/:id", notStudent, d.quizzes.Update)
}
