package observation

import (
	"context"
	"log/slog"

	"github.com/coralwatch/coralwatch-go/internal/datastore"
	"github.com/coralwatch/coralwatch-go/internal/errors"
	"github.com/coralwatch/coralwatch-go/internal/logging"
)

// Ingestor ties the site registry, coral registry and observation log
// together into the one ingest workflow.
type Ingestor struct {
	DS     datastore.Interface
	logger *slog.Logger
}

// NewIngestor creates an Ingestor backed by the given datastore.
func NewIngestor(ds datastore.Interface) *Ingestor {
	return &Ingestor{
		DS:     ds,
		logger: logging.ForService("observation"),
	}
}

// Result is what an ingest returns to the HTTP layer.
type Result struct {
	InternalID    string // durable coral identifier, generated or echoed back
	ImageFilename string // stored image reference
	DiveSiteName  string // site name as reported
	NewCoral      bool   // true when this ingest minted a new identity
}

// Request carries one incoming observation. ExistingInternalID empty
// means "mint a new coral identity"; note this also holds when a caller
// meant to reference an existing coral but sent an empty identifier, so
// an empty field is the one place unintended duplicate identities can
// be created.
type Request struct {
	ImageFilename      string
	DiveSiteName       string
	ExistingInternalID string
	StatusGuess        *string
	Notes              *string
}

// Ingest records one observation. The reported site is resolved with
// get-or-create semantics; a supplied existing identifier must resolve
// to a known coral (append-to-existing semantics, never silent creation
// under an unknown id); otherwise a new identity is minted. The
// observation is always appended, which also advances the coral's
// last_updated.
//
// Retrying a failed new-coral ingest is not idempotent: each attempt
// mints a fresh identity.
func (ing *Ingestor) Ingest(ctx context.Context, req *Request) (Result, error) {
	if req.DiveSiteName == "" {
		return Result{}, errors.Newf("dive site name must not be empty").
			Component("observation").
			Category(errors.CategoryValidation).
			Build()
	}
	if req.ImageFilename == "" {
		return Result{}, errors.Newf("image filename must not be empty").
			Component("observation").
			Category(errors.CategoryValidation).
			Build()
	}

	site, err := ing.DS.GetOrCreateDiveSite(ctx, req.DiveSiteName, nil, nil)
	if err != nil {
		return Result{}, err
	}

	if req.ExistingInternalID != "" {
		return ing.appendToExisting(ctx, req, &site)
	}
	return ing.createNew(ctx, req, &site)
}

// appendToExisting records a re-sighting of a known coral. A lookup miss
// propagates as a not-found error; it must never fall through to
// creating a new coral, since a caller supplying an identifier expects
// append-to-existing semantics.
func (ing *Ingestor) appendToExisting(ctx context.Context, req *Request, site *datastore.DiveSite) (Result, error) {
	coral, err := ing.DS.FindCoralByInternalID(ctx, req.ExistingInternalID)
	if err != nil {
		return Result{}, err
	}

	obs := datastore.Observation{
		CoralID:            coral.ID,
		ImageFilename:      req.ImageFilename,
		ReportedDiveSiteID: site.ID,
		StatusGuess:        req.StatusGuess,
		Notes:              req.Notes,
	}
	if err := ing.DS.SaveObservation(ctx, &obs); err != nil {
		return Result{}, err
	}

	ing.logger.Info("Observation added to existing coral",
		"internal_id", coral.InternalID,
		"site", site.Name,
		"image", req.ImageFilename)

	return Result{
		InternalID:    coral.InternalID,
		ImageFilename: req.ImageFilename,
		DiveSiteName:  site.Name,
	}, nil
}

// createNew mints a new coral identity and appends its first
// observation. Create and append run in separate transactions; a crash
// in between leaves a coral with zero observations, which the per-site
// listing tolerates with a null thumbnail.
func (ing *Ingestor) createNew(ctx context.Context, req *Request, site *datastore.DiveSite) (Result, error) {
	internalID := GenerateInternalID(site.Name)

	coral, err := ing.DS.CreateCoral(ctx, internalID, site.ID)
	if err != nil {
		return Result{}, err
	}

	obs := datastore.Observation{
		CoralID:            coral.ID,
		ImageFilename:      req.ImageFilename,
		ReportedDiveSiteID: site.ID,
		StatusGuess:        req.StatusGuess,
		Notes:              req.Notes,
	}
	if err := ing.DS.SaveObservation(ctx, &obs); err != nil {
		return Result{}, err
	}

	ing.logger.Info("New coral record created",
		"internal_id", internalID,
		"site", site.Name,
		"image", req.ImageFilename)

	return Result{
		InternalID:    internalID,
		ImageFilename: req.ImageFilename,
		DiveSiteName:  site.Name,
		NewCoral:      true,
	}, nil
}
