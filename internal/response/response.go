// Package response provides the JSON envelope helpers and the mapping from
// domain errors to HTTP status codes.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stridemaps/service-routes/internal/domain/route"
)

// Envelope is the uniform response body.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: message})
}

// Error writes an error response with a status derived from the error's type.
// Gateway and auth failures surface as 502 since the fault lies upstream;
// exhausted discovery, unviable candidates and unroutable access legs are 422
// because the service is healthy but cannot satisfy the request.
func Error(c *gin.Context, err error) {
	var (
		validationErr  *route.ValidationError
		authErr        *route.AuthError
		discoveryErr   *route.DiscoveryExhaustedError
		candidateErr   *route.NoViableCandidateError
		iterationErr   *route.IterationLimitError
		gatewayErr     *route.GatewayError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: validationErr.Message})
	case errors.As(err, &authErr):
		c.JSON(http.StatusBadGateway, Envelope{Success: false, Error: "segment catalog authentication failed"})
	case errors.As(err, &discoveryErr):
		c.JSON(http.StatusUnprocessableEntity, Envelope{Success: false, Error: "no segments found near the requested location"})
	case errors.As(err, &candidateErr):
		c.JSON(http.StatusUnprocessableEntity, Envelope{Success: false, Error: "no reachable segment near the requested location"})
	case errors.As(err, &iterationErr):
		c.JSON(http.StatusUnprocessableEntity, Envelope{Success: false, Error: "could not assemble a route of the requested distance"})
	case errors.As(err, &gatewayErr):
		c.JSON(http.StatusBadGateway, Envelope{Success: false, Error: gatewayErr.Op + " failed"})
	case errors.Is(err, route.ErrNoRoute):
		c.JSON(http.StatusUnprocessableEntity, Envelope{Success: false, Error: "no walking route to the chosen segment"})
	default:
		c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "internal server error"})
	}
}
