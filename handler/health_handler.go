package handler

import (
	"context"
	"net/http"
	"time"

	"notesapi/log"
	"notesapi/repository"

	"github.com/gin-gonic/gin"
)

// ReadinessReporter is satisfied by the inference models.
type ReadinessReporter interface {
	Ready() bool
}

type HealthHandler struct {
	store      repository.NoteStore
	summarizer ReadinessReporter
	classifier ReadinessReporter
}

func NewHealthHandler(store repository.NoteStore, summarizer, classifier ReadinessReporter) *HealthHandler {
	return &HealthHandler{
		store:      store,
		summarizer: summarizer,
		classifier: classifier,
	}
}

func (h *HealthHandler) pingStore(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		log.Logger().Warningf(nil, "health check: store ping failed: %v", err)
		return false
	}
	return true
}

// Liveness reports whether the store answers.
func (h *HealthHandler) Liveness(c *gin.Context) {
	if !h.pingStore(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "fail"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness also requires both models to have loaded. It never triggers
// a model load itself.
func (h *HealthHandler) Readiness(c *gin.Context) {
	dbOK := h.pingStore(c.Request.Context())
	summaryOK := h.summarizer != nil && h.summarizer.Ready()
	sentimentOK := h.classifier != nil && h.classifier.Ready()
	ok := dbOK && summaryOK && sentimentOK

	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	db := "ok"
	if !dbOK {
		db = "fail"
	}
	c.JSON(status, gin.H{
		"ok": ok,
		"db": db,
		"models": gin.H{
			"summary":   summaryOK,
			"sentiment": sentimentOK,
		},
	})
}
