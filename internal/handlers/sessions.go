package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"

	"pulse_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      List sessions
// @Description  Recorded sessions, newest first.
// @Tags         sessions
// @Produce      json
// @Param        device_id  query     string  false  "Only sessions of this device"
// @Success      200        {object}  map[string]interface{}  "count, sessions"
// @Failure      401        {object}  map[string]string
// @Failure      500        {object}  map[string]string
// @Router       /api/v1/sessions [get]
// @Security     BearerAuth
func (h *Handler) listSessions(c *gin.Context) {
	deviceID := c.Query("device_id")
	list, err := h.services.Sessions.ListSessions(c.Request.Context(), deviceID)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to list sessions", "sessions_list_failed", err, "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(list),
		"sessions": list,
	})
}

// @Summary      Get session
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  models.Session
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sessions/{id} [get]
// @Security     BearerAuth
func (h *Handler) getSession(c *gin.Context) {
	id := c.Param("id")
	sess, err := h.services.Sessions.GetSession(c.Request.Context(), id)
	if err != nil {
		h.sessionError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// @Summary      Download session samples
// @Description  Raw archived samples of a session, one integer per line.
// @Tags         sessions
// @Produce      text/csv
// @Param        id   path      string  true  "Session id"
// @Success      200  {string}  string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sessions/{id}/samples [get]
// @Security     BearerAuth
func (h *Handler) getSessionSamples(c *gin.Context) {
	id := c.Param("id")
	rc, sess, err := h.services.Sessions.OpenSessionSamples(c.Request.Context(), id)
	if err != nil {
		h.sessionError(c, id, err)
		return
	}
	defer func() { _ = rc.Close() }()

	c.DataFromReader(http.StatusOK, -1, "text/csv", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", path.Base(sess.ArchivePath)),
	})
}

func (h *Handler) sessionError(c *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrArchiveUnavailable):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load session", "session_load_failed", err, "session_id", id)
	}
}
