package rest

import (
	"github.com/dmitrijs2005/devhabit/internal/common"
	"github.com/gin-gonic/gin"
)

func setupRoutes(router *gin.Engine, deps Deps) {
	authHandler := &authHandler{svc: deps.Auth}
	usersHandler := &usersHandler{svc: deps.Users, identity: deps.Identity}
	healthHandler := &healthHandler{db: deps.DB}

	router.GET("/health", healthHandler.check)

	a := router.Group("/auth")
	{
		a.POST("/register", authHandler.register)
		a.POST("/login", authHandler.login)
		a.POST("/refresh", authHandler.refresh)
	}

	u := router.Group("/users", authenticate(deps.Tokens), requireRole(common.RoleMember))
	{
		u.GET("/me", usersHandler.me)
		u.GET("/:id", requireRole(common.RoleAdmin), usersHandler.byID)
	}
}
