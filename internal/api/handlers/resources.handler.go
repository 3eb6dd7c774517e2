// internal/api/handlers/resources.handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edustack/campus-core/internal/api/middleware"
	"github.com/edustack/campus-core/internal/gateway"
	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/pkg/logger"
)

// ResourcesHandler serves school records through the scoped data
// gateway. Handlers never touch the store directly; everything flows
// through the gateway so tenant scoping cannot be skipped.
type ResourcesHandler struct {
	gateway *gateway.Gateway
	logger  logger.Logger
}

func NewResourcesHandler(gw *gateway.Gateway, log logger.Logger) *ResourcesHandler {
	return &ResourcesHandler{gateway: gw, logger: log}
}

// List handles GET /api/v1/resources/:kind
func (h *ResourcesHandler) List(c *gin.Context) {
	rc, ok := middleware.RequestContextFrom(c)
	if !ok {
		respondMissingContext(c)
		return
	}

	kind := models.ResourceKind(c.Param("kind"))
	if !queryableKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Unknown resource kind",
		})
		return
	}

	qd := models.QueryDescriptor{
		Kind:    kind,
		Filters: queryFilters(c),
		Limit:   intQuery(c, "limit"),
		Offset:  intQuery(c, "offset"),
	}

	rows, err := h.gateway.Query(c.Request.Context(), rc, qd)
	if err != nil {
		respondGatewayError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"kind":  kind,
			"items": rows,
			"count": len(rows),
		},
	})
}

// Create handles POST /api/v1/resources/:kind
func (h *ResourcesHandler) Create(c *gin.Context) {
	rc, ok := middleware.RequestContextFrom(c)
	if !ok {
		respondMissingContext(c)
		return
	}

	kind := models.ResourceKind(c.Param("kind"))
	if !queryableKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Unknown resource kind",
		})
		return
	}

	var row map[string]interface{}
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid request body",
		})
		return
	}

	id, err := h.gateway.Insert(c.Request.Context(), rc, kind, row)
	if err != nil {
		respondGatewayError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   gin.H{"id": id},
	})
}

// Update handles PUT /api/v1/resources/:kind/:id
func (h *ResourcesHandler) Update(c *gin.Context) {
	rc, ok := middleware.RequestContextFrom(c)
	if !ok {
		respondMissingContext(c)
		return
	}

	kind := models.ResourceKind(c.Param("kind"))
	if !queryableKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Unknown resource kind",
		})
		return
	}

	var changes map[string]interface{}
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid request body",
		})
		return
	}

	if err := h.gateway.Update(c.Request.Context(), rc, kind, c.Param("id"), changes); err != nil {
		respondGatewayError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Delete handles DELETE /api/v1/resources/:kind/:id
func (h *ResourcesHandler) Delete(c *gin.Context) {
	rc, ok := middleware.RequestContextFrom(c)
	if !ok {
		respondMissingContext(c)
		return
	}

	kind := models.ResourceKind(c.Param("kind"))
	if !queryableKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Unknown resource kind",
		})
		return
	}

	if err := h.gateway.Delete(c.Request.Context(), rc, kind, c.Param("id")); err != nil {
		respondGatewayError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// queryableKind limits the resource routes to domain records; tenants
// and audit records have their own endpoints.
func queryableKind(kind models.ResourceKind) bool {
	switch kind {
	case models.ResourceAssignment, models.ResourceGrade, models.ResourceAttendance,
		models.ResourceMessage, models.ResourceEnrollment:
		return true
	}
	return false
}

// queryFilters collects filter parameters, leaving pagination keys out.
func queryFilters(c *gin.Context) map[string]string {
	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if key == "limit" || key == "offset" {
			continue
		}
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}
	return filters
}

func intQuery(c *gin.Context, key string) int {
	v := c.Query(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
