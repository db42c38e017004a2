package handlers

import (
	"errors"
	"net/http"

	"pulse_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errIngest          = "failed to process batch"
	errGetState        = "failed to load state"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// PPGRequest is one batch of raw infrared intensities from a sensor.
type PPGRequest struct {
	DeviceID string `json:"deviceId" binding:"required" example:"wrist-01"`
	Samples  []int  `json:"samples" binding:"required"`
	// Optional; must match the configured rate when set.
	SampleRate int `json:"sampleRate,omitempty" example:"150"`
}

// isInputError reports whether err was caused by the request rather than the server.
func isInputError(err error) bool {
	return errors.Is(err, service.ErrEmptyDeviceID) ||
		errors.Is(err, service.ErrEmptyBatch) ||
		errors.Is(err, service.ErrUnsupportedSampleRate)
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Ingest PPG batch
// @Description  Runs one batch of raw samples through the device's heart-rate engine and returns the displayable result.
// @Tags         ppg
// @Accept       json
// @Produce      json
// @Param        body  body      PPGRequest  true  "Sensor batch"
// @Success      200   {object}  engine.Result
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/ppg [post]
func (h *Handler) ingestPPG(c *gin.Context) {
	var req PPGRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	res, err := h.services.HeartRate.Ingest(c.Request.Context(), service.IngestParams{
		DeviceID:     req.DeviceID,
		Samples:      req.Samples,
		SampleRateHz: req.SampleRate,
	})
	if err != nil {
		if isInputError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errIngest, "ppg_ingest_failed", err, "device_id", req.DeviceID)
		return
	}
	c.JSON(http.StatusOK, res)
}
