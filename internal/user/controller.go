package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type UserController struct {
	userService UserServiceInterface
}

func NewUserController(userService UserServiceInterface) *UserController {
	return &UserController{
		userService: userService,
	}
}

// SetupRoutes registers the /users routes on r.
func (uc *UserController) SetupRoutes(r gin.IRouter) {
	users := r.Group("/users")
	{
		users.GET("", uc.GetUsers)
		users.GET("/:id", uc.GetUser)
		users.POST("", uc.CreateUser)
		users.POST("/login", uc.LoginUser)
		users.PUT("/logout/:id", uc.LogoutUser)
		users.PUT("/:id", uc.UpdateUser)
	}
}

// GetUsers lists every user. The sort_by query parameter is accepted but
// has no effect.
func (uc *UserController) GetUsers(c *gin.Context) {
	users, err := uc.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ToResponseList(users))
}

func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := uc.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ToResponse(user))
}

// CreateUser handles registration
func (uc *UserController) CreateUser(c *gin.Context) {
	var req CreateUserInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := uc.userService.RegisterUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ToResponse(user))
}

func (uc *UserController) LoginUser(c *gin.Context) {
	var req LoginInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := uc.userService.AuthenticateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, ToResponse(user))
}

func (uc *UserController) LogoutUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := uc.userService.EndSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ToResponse(user))
}

func (uc *UserController) UpdateUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req UpdateUserInput
	if !bindJSON(c, &req) {
		return
	}

	if err := uc.userService.UpdateProfile(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// bindJSON decodes and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logrus.WithError(err).WithField("path", c.FullPath()).Debug("Rejected request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}

func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
