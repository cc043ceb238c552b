package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coralwatch/coralwatch-go/internal/observation"
)

// safeFilenamePattern restricts served filenames to safe characters
var safeFilenamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// unsafeCharPattern matches everything stripped from uploaded filenames
var unsafeCharPattern = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// UploadResponse is returned for a successful observation upload.
type UploadResponse struct {
	Message         string `json:"message"`
	CoralInternalID string `json:"coral_internal_id"`
	Filename        string `json:"filename"`
	DiveSite        string `json:"dive_site"`
}

// Upload accepts a multipart observation: an image, the dive site name
// and optionally the internal id of an already known coral. An empty
// existing id always mints a new coral identity, even when the caller
// meant to reference one and sent an empty string, so mistyped-empty
// ids are the one place unintended duplicate identities can appear.
// API: POST /api/v1/upload
func (c *Controller) Upload(ctx echo.Context) error {
	file, err := ctx.FormFile("image")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "No image file provided",
			Code:  http.StatusBadRequest,
		})
	}

	siteName := ctx.FormValue("dive_site_name")
	if siteName == "" {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "No dive site name provided",
			Code:  http.StatusBadRequest,
		})
	}
	if file.Filename == "" {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "No selected file",
			Code:  http.StatusBadRequest,
		})
	}
	if file.Size > int64(c.Settings.Upload.MaxSizeMB)<<20 {
		return ctx.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("Image exceeds maximum size of %d MB", c.Settings.Upload.MaxSizeMB),
			Code:  http.StatusRequestEntityTooLarge,
		})
	}

	existingID := strings.TrimSpace(ctx.FormValue("existing_coral_internal_id"))

	// Persist the image before touching the registries; ingest expects
	// the image reference to already resolve.
	storedName, err := c.saveUploadedImage(file)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to store uploaded image")
	}

	var statusGuess, notes *string
	if v := ctx.FormValue("sctld_status_guess"); v != "" {
		statusGuess = &v
	}
	if v := ctx.FormValue("user_notes"); v != "" {
		notes = &v
	}

	result, err := c.Ingestor.Ingest(ctx.Request().Context(), &observation.Request{
		ImageFilename:      storedName,
		DiveSiteName:       siteName,
		ExistingInternalID: existingID,
		StatusGuess:        statusGuess,
		Notes:              notes,
	})
	if err != nil {
		return c.HandleError(ctx, err, "Failed to record observation")
	}

	message := "Image added to existing coral"
	if result.NewCoral {
		message = "New coral record created"
	}
	return ctx.JSON(http.StatusOK, UploadResponse{
		Message:         message,
		CoralInternalID: result.InternalID,
		Filename:        result.ImageFilename,
		DiveSite:        result.DiveSiteName,
	})
}

// saveUploadedImage stores the multipart file under the upload
// directory with a unique, sanitized filename and returns that name.
func (c *Controller) saveUploadedImage(file *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(c.Settings.Upload.Path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	storedName := generateUniqueFilename(file.Filename)
	dst, err := os.Create(filepath.Join(c.Settings.Upload.Path, storedName))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer dst.Close()

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded image: %w", err)
	}
	defer src.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return storedName, nil
}

// generateUniqueFilename sanitizes the original name and appends a
// timestamp so repeated uploads of the same file never collide.
func generateUniqueFilename(original string) string {
	base := filepath.Base(original)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	stem = unsafeCharPattern.ReplaceAllString(stem, "_")
	ext = unsafeCharPattern.ReplaceAllString(ext, "")
	if stem == "" {
		stem = "image"
	}

	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s%s", stem, timestamp, ext)
}

// ServeImage serves a stored observation image.
// API: GET /api/v1/images/:filename
func (c *Controller) ServeImage(ctx echo.Context) error {
	filename := ctx.Param("filename")

	fullPath, err := c.validateMediaPath(c.Settings.Upload.Path, filename)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid file request",
			Code:  http.StatusBadRequest,
		})
	}

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return ctx.JSON(http.StatusNotFound, ErrorResponse{
				Error: "Image not found",
				Code:  http.StatusNotFound,
			})
		}
		return c.HandleError(ctx, err, "Error accessing image file")
	}

	return ctx.File(fullPath)
}

// validateMediaPath ensures the requested filename resolves inside the
// upload directory.
func (c *Controller) validateMediaPath(uploadPath, filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("empty filename")
	}

	// Allow only filenames with safe characters
	if !safeFilenamePattern.MatchString(filename) {
		return "", fmt.Errorf("invalid filename characters")
	}

	// Sanitize the filename to prevent path traversal
	filename = filepath.Base(filename)

	fullPath := filepath.Join(uploadPath, filename)

	absUploadPath, err := filepath.Abs(uploadPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve upload path: %w", err)
	}
	absFullPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}

	// Verify the path is still within the upload directory after normalization
	if !strings.HasPrefix(absFullPath, absUploadPath) {
		return "", fmt.Errorf("path traversal attempt detected")
	}

	return fullPath, nil
}
