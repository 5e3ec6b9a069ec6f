package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/devhabit/internal/server/auth"
	"github.com/dmitrijs2005/devhabit/internal/server/models"
	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UserResponse is the public view of an application user.
type UserResponse struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	CreatedAtUtc time.Time  `json:"createdAtUtc"`
	UpdatedAtUtc *time.Time `json:"updatedAtUtc"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAtUtc: u.CreatedAt, UpdatedAtUtc: u.UpdatedAt}
}

type authHandler struct {
	svc AuthService
}

func (h *authHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	pair, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (h *authHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (h *authHandler) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

type usersHandler struct {
	svc      UserService
	identity IdentityResolver
}

// callerID resolves the authenticated caller to an application user id.
// It writes the error response itself and returns false on failure.
func (h *usersHandler) callerID(c *gin.Context) (string, bool) {
	p, _ := auth.FromContext(c.Request.Context())

	id, err := h.identity.Resolve(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	if id == "" {
		abortWithProblem(c, http.StatusUnauthorized, "")
		return "", false
	}
	return id, true
}

func (h *usersHandler) me(c *gin.Context) {
	id, ok := h.callerID(c)
	if !ok {
		return
	}

	u, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *usersHandler) byID(c *gin.Context) {
	callerID, ok := h.callerID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id != callerID {
		abortWithProblem(c, http.StatusForbidden, "")
		return
	}

	u, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(u))
}

type healthHandler struct {
	db Pinger
}

func (h *healthHandler) check(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			_ = c.Error(err)
			abortWithProblem(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
