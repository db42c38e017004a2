package handlers

import (
	"errors"
	"net/http"

	"pulse_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      List devices
// @Description  Latest persisted state of every device that has sent data.
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, devices"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	states, err := h.services.Monitoring.ListDevices(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to list devices", "devices_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(states),
		"devices": states,
	})
}

// @Summary      Get device state
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device id"
// @Success      200  {object}  models.DeviceState
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{id}/state [get]
// @Security     BearerAuth
func (h *Handler) getDeviceState(c *gin.Context) {
	deviceID := c.Param("id")
	st, err := h.services.Monitoring.GetState(c.Request.Context(), deviceID)
	if err != nil {
		if errors.Is(err, service.ErrEmptyDeviceID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "device_get_state_failed", err, "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, st)
}
