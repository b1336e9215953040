package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stridemaps/service-routes/internal/application"
	"github.com/stridemaps/service-routes/internal/auth"
	"github.com/stridemaps/service-routes/internal/middleware"
	"github.com/stridemaps/service-routes/internal/response"
)

// RouteHandler handles HTTP requests for route recommendations.
type RouteHandler struct {
	service *application.RouteService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(service *application.RouteService) *RouteHandler {
	return &RouteHandler{service: service}
}

// RegisterRoutes registers all route recommendation routes on the given
// router group.
func (h *RouteHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	routes := r.Group("/api/v1/routes")
	routes.Use(middleware.AuthMiddleware(jwtManager))
	{
		routes.POST("/recommend", h.RecommendRoute)
	}
}

// RecommendRoute handles POST /api/v1/routes/recommend.
func (h *RouteHandler) RecommendRoute(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.RecommendRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Recommend(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
