package activity

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ActivityController struct {
	service ActivityServiceInterface
}

func NewActivityController(service ActivityServiceInterface) *ActivityController {
	return &ActivityController{
		service: service,
	}
}

func (ac *ActivityController) SetupRoutes(r gin.IRouter) {
	r.GET("/users/:id/activity", ac.GetUserActivity)
}

// GetUserActivity lists what the activity worker recorded for a user.
func (ac *ActivityController) GetUserActivity(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	activities, err := ac.service.ListUserActivity(c.Request.Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to list user activity")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, activities)
}
