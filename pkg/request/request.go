// Package request holds the binding helpers shared by every handler: path ids, list
// parameters, optional query flags and validated JSON bodies. Each helper writes the error
// response itself and reports whether the handler may continue.
package request

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/validation"
	"github.com/aura-academy/backend/pkg/response"
)

// ID parses the :id path parameter.
func ID(c *gin.Context, what string) (uuid.UUID, bool) {
	return Param(c, "id", what)
}

// Param parses a UUID path parameter.
func Param(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}

// QueryID parses an optional UUID query value. Absent means uuid.Nil.
func QueryID(c *gin.Context, key string) (uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(c, "invalid "+key)
		return uuid.Nil, false
	}
	return id, true
}

// List binds search, sort, order, offset and limit with defaults applied.
func List(c *gin.Context) (query.ListParams, bool) {
	var p query.ListParams
	if err := c.ShouldBindQuery(&p); err != nil {
		response.BadRequest(c, "invalid list parameters")
		return p, false
	}
	return p.Normalize(), true
}

// Bool parses an optional boolean query flag. Absent means nil.
func Bool(c *gin.Context, key string) (*bool, bool) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		response.BadRequest(c, "invalid "+key)
		return nil, false
	}
	return &b, true
}

// Time parses an optional RFC 3339 query value. Absent means nil.
func Time(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.BadRequest(c, "invalid "+key+", expected RFC 3339")
		return nil, false
	}
	return &t, true
}

// JSON binds and validates a JSON body.
func JSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		response.BadRequest(c, validation.Message(err))
		return false
	}
	return true
}
