package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// CreateSiteRequest is the JSON body for creating a dive site.
type CreateSiteRequest struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ListSites returns all known dive sites.
// API: GET /api/v1/dive_sites
func (c *Controller) ListSites(ctx echo.Context) error {
	sites, err := c.DS.GetAllDiveSites(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to retrieve dive sites")
	}
	return ctx.JSON(http.StatusOK, sites)
}

// CreateSite creates a dive site with optional coordinates. Boundary
// validation happens here, before any row is written; a duplicate name
// maps to a conflict.
// API: POST /api/v1/dive_sites
func (c *Controller) CreateSite(ctx echo.Context) error {
	req := new(CreateSiteRequest)
	if err := ctx.Bind(req); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  http.StatusBadRequest,
		})
	}

	if req.Name == "" {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Dive site name is required",
			Code:  http.StatusBadRequest,
		})
	}
	if req.Latitude != nil && (!isFinite(*req.Latitude) || *req.Latitude < -90 || *req.Latitude > 90) {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Latitude must be between -90 and 90 degrees",
			Code:  http.StatusBadRequest,
		})
	}
	if req.Longitude != nil && (!isFinite(*req.Longitude) || *req.Longitude < -180 || *req.Longitude > 180) {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Longitude must be between -180 and 180 degrees",
			Code:  http.StatusBadRequest,
		})
	}

	site, err := c.DS.CreateDiveSite(ctx.Request().Context(), req.Name, req.Latitude, req.Longitude)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to create dive site")
	}
	return ctx.JSON(http.StatusCreated, site)
}

// CoralsAtSite lists the corals discovered at a dive site, each with
// its earliest observation image as thumbnail.
// API: GET /api/v1/corals_at_site/:id
func (c *Controller) CoralsAtSite(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid dive site id",
			Code:  http.StatusBadRequest,
		})
	}

	reqCtx := ctx.Request().Context()
	if _, err := c.DS.GetDiveSite(reqCtx, uint(id)); err != nil {
		return c.HandleError(ctx, err, "Dive site not found")
	}

	corals, err := c.DS.GetCoralsByDiveSite(reqCtx, uint(id))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to retrieve corals")
	}
	return ctx.JSON(http.StatusOK, corals)
}

// isFinite reports whether f is neither NaN nor an infinity. Any finite
// in-range value is accepted, integer-valued or not.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
