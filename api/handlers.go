// Package api exposes the REST surface over the versioning engine:
// document CRUD, patch submission, history listing, point-in-time content
// and revert.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dijonPSU/LiveDocs/delta"
	"github.com/dijonPSU/LiveDocs/domain"
	"github.com/dijonPSU/LiveDocs/version"
)

type Handler struct {
	store domain.VersionStore
	svc   *version.Service
	hub   domain.Broadcaster
}

func SetupRoutes(r *gin.RouterGroup, store domain.VersionStore, svc *version.Service, hub domain.Broadcaster) {
	h := &Handler{store: store, svc: svc, hub: hub}

	r.POST("/documents", h.createDocument)
	r.GET("/documents/:id/content", h.getDocumentContent)
	r.PATCH("/documents/:id", h.updateDocumentTitle)
	r.POST("/documents/:id/patches", h.savePatch)
	r.GET("/documents/:id/versions", h.getVersions)
	r.GET("/documents/:id/versions/:versionNumber", h.getVersionContent)
	r.POST("/documents/:id/revert", h.revertVersion)
	r.GET("/stats", h.getStats)
}

type createDocumentRequest struct {
	Title   string `json:"title" binding:"required"`
	OwnerID string `json:"ownerId"`
}

func (h *Handler) createDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	now := time.Now().UTC()
	doc := domain.Document{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Content:   delta.New(),
		OwnerID:   req.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateDocument(c.Request.Context(), doc); err != nil {
		slog.Error("failed to create document", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create document"})
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) getDocumentContent(c *gin.Context) {
	doc, err := h.store.ReadDocument(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrDocumentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	if err != nil {
		slog.Error("failed to read document", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read document"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

type updateTitleRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *Handler) updateDocumentTitle(c *gin.Context) {
	var req updateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	err := h.store.UpdateDocumentTitle(c.Request.Context(), c.Param("id"), req.Title)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	if err != nil {
		slog.Error("failed to update title", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update title"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type savePatchRequest struct {
	UserID  string      `json:"userId"`
	Diff    delta.Delta `json:"diff" binding:"required"`
	Content delta.Delta `json:"content"`
}

func (h *Handler) savePatch(c *gin.Context) {
	var req savePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	patch, err := h.svc.SavePatch(c.Request.Context(), c.Param("id"), req.UserID, req.Diff, req.Content)
	if err != nil {
		slog.Error("failed to save patch", "documentId", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save patch"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"versionNumber": patch.VersionNumber})
}

func (h *Handler) getVersions(c *gin.Context) {
	versions, err := h.svc.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		slog.Error("failed to list versions", "documentId", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list versions"})
		return
	}

	// History metadata only; diffs stay server-side.
	type versionSummary struct {
		VersionNumber int       `json:"versionNumber"`
		UserID        string    `json:"userId"`
		IsSnapshot    bool      `json:"isSnapshot"`
		CreatedAt     time.Time `json:"createdAt"`
	}
	out := make([]versionSummary, 0, len(versions))
	for _, v := range versions {
		out = append(out, versionSummary{
			VersionNumber: v.VersionNumber,
			UserID:        v.UserID,
			IsSnapshot:    v.IsSnapshot,
			CreatedAt:     v.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getVersionContent(c *gin.Context) {
	target, err := strconv.Atoi(c.Param("versionNumber"))
	if err != nil || target < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid version number"})
		return
	}

	content, err := h.svc.ContentAt(c.Request.Context(), c.Param("id"), target)
	if errors.Is(err, domain.ErrVersionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
		return
	}
	if err != nil {
		slog.Error("failed to reconstruct version", "documentId", c.Param("id"), "version", target, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reconstruct version"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"versionNumber": target, "content": content})
}

type revertRequest struct {
	UserID        string `json:"userId"`
	VersionNumber int    `json:"versionNumber" binding:"required"`
}

func (h *Handler) revertVersion(c *gin.Context) {
	var req revertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	snap, err := h.svc.Revert(c.Request.Context(), c.Param("id"), req.UserID, req.VersionNumber)
	if errors.Is(err, domain.ErrVersionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
		return
	}
	if err != nil {
		slog.Error("failed to revert", "documentId", c.Param("id"), "version", req.VersionNumber, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revert"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"versionNumber": snap.VersionNumber})
}

func (h *Handler) getStats(c *gin.Context) {
	rooms, clients := h.hub.Stats()
	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "clients": clients})
}
