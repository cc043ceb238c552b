package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// TimelineEntry is one observation in a coral's user-facing timeline.
type TimelineEntry struct {
	ImageFilename string    `json:"image_filename"`
	Timestamp     time.Time `json:"timestamp"`
	Status        *string   `json:"status"`
	Notes         *string   `json:"notes"`
}

// CoralTimeline returns every observation of a coral, most recent
// first.
// API: GET /api/v1/coral_timeline/:internal_id
func (c *Controller) CoralTimeline(ctx echo.Context) error {
	internalID := ctx.Param("internal_id")
	reqCtx := ctx.Request().Context()

	coral, err := c.DS.FindCoralByInternalID(reqCtx, internalID)
	if err != nil {
		return c.HandleError(ctx, err, "Coral not found")
	}

	observations, err := c.DS.GetObservationsForCoral(reqCtx, coral.ID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to retrieve coral timeline")
	}

	timeline := make([]TimelineEntry, 0, len(observations))
	for i := range observations {
		obs := &observations[i]
		timeline = append(timeline, TimelineEntry{
			ImageFilename: obs.ImageFilename,
			Timestamp:     obs.ObservedAt,
			Status:        obs.StatusGuess,
			Notes:         obs.Notes,
		})
	}
	return ctx.JSON(http.StatusOK, timeline)
}
