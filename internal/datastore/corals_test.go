package datastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCoral(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	site := seedSite(t, ds, "Blue Hole")

	coral, err := ds.CreateCoral(t.Context(), "BH_20240115_a1b2c3d4", site.ID)
	require.NoError(t, err)
	assert.NotZero(t, coral.ID)
	assert.Equal(t, site.ID, coral.DiveSiteID)
	assert.Equal(t, "{}", coral.RepresentativeFeatures)
	assert.False(t, coral.FirstSeen.IsZero())
	assert.False(t, coral.LastUpdated.Before(coral.FirstSeen), "last_updated must never precede first_seen")
}

func TestCreateCoralDuplicateInternalID(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	site := seedSite(t, ds, "Blue Hole")
	ctx := t.Context()

	_, err := ds.CreateCoral(ctx, "BH_20240115_a1b2c3d4", site.ID)
	require.NoError(t, err)

	_, err = ds.CreateCoral(ctx, "BH_20240115_a1b2c3d4", site.ID)
	require.ErrorIs(t, err, ErrDuplicateInternalID)

	var count int64
	require.NoError(t, ds.DB.Model(&Coral{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFindCoralByInternalIDNotFound(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)

	_, err := ds.FindCoralByInternalID(t.Context(), "BH_20240115_deadbeef")
	require.ErrorIs(t, err, ErrCoralNotFound)
}

func TestGetCoralsByDiveSiteThumbnailIsEarliestObservation(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	site := seedSite(t, ds, "Blue Hole")
	ctx := t.Context()

	coral, err := ds.CreateCoral(ctx, "BH_20240115_a1b2c3d4", site.ID)
	require.NoError(t, err)

	t1 := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)
	t3 := t1.Add(48 * time.Hour)

	// Insert out of chronological order; the earliest observed_at must
	// still win the thumbnail.
	for _, obs := range []Observation{
		{CoralID: coral.ID, ImageFilename: "middle.jpg", ObservedAt: t2, ReportedDiveSiteID: site.ID},
		{CoralID: coral.ID, ImageFilename: "earliest.jpg", ObservedAt: t1, ReportedDiveSiteID: site.ID},
		{CoralID: coral.ID, ImageFilename: "latest.jpg", ObservedAt: t3, ReportedDiveSiteID: site.ID},
	} {
		require.NoError(t, ds.SaveObservation(ctx, &obs))
	}

	summaries, err := ds.GetCoralsByDiveSite(ctx, site.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	assert.Equal(t, coral.ID, summaries[0].CoralID)
	assert.Equal(t, "BH_20240115_a1b2c3d4", summaries[0].InternalID)
	require.NotNil(t, summaries[0].Thumbnail)
	assert.Equal(t, "earliest.jpg", *summaries[0].Thumbnail)
}

func TestGetCoralsByDiveSiteThumbnailTieBreaksByInsertionOrder(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	site := seedSite(t, ds, "Blue Hole")
	ctx := t.Context()

	coral, err := ds.CreateCoral(ctx, "BH_20240115_a1b2c3d4", site.ID)
	require.NoError(t, err)

	at := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	first := Observation{CoralID: coral.ID, ImageFilename: "first.jpg", ObservedAt: at, ReportedDiveSiteID: site.ID}
	second := Observation{CoralID: coral.ID, ImageFilename: "second.jpg", ObservedAt: at, ReportedDiveSiteID: site.ID}
	require.NoError(t, ds.SaveObservation(ctx, &first))
	require.NoError(t, ds.SaveObservation(ctx, &second))

	summaries, err := ds.GetCoralsByDiveSite(ctx, site.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].Thumbnail)
	assert.Equal(t, "first.jpg", *summaries[0].Thumbnail)
}

func TestGetCoralsByDiveSiteToleratesCoralWithoutObservations(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	site := seedSite(t, ds, "Blue Hole")

	_, err := ds.CreateCoral(t.Context(), "BH_20240115_a1b2c3d4", site.ID)
	require.NoError(t, err)

	summaries, err := ds.GetCoralsByDiveSite(t.Context(), site.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Nil(t, summaries[0].Thumbnail, "zero-observation coral yields a null thumbnail, not an error")
}

func TestGetCoralsByDiveSiteScopedToDiscoverySite(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	home := seedSite(t, ds, "Blue Hole")
	away := seedSite(t, ds, "Tugboat")
	ctx := t.Context()

	coral, err := ds.CreateCoral(ctx, "BH_20240115_a1b2c3d4", home.ID)
	require.NoError(t, err)

	// A re-sighting reported at a different site does not relocate the
	// colony's identity.
	obs := Observation{CoralID: coral.ID, ImageFilename: "away.jpg", ReportedDiveSiteID: away.ID}
	require.NoError(t, ds.SaveObservation(ctx, &obs))

	atHome, err := ds.GetCoralsByDiveSite(ctx, home.ID)
	require.NoError(t, err)
	assert.Len(t, atHome, 1)

	atAway, err := ds.GetCoralsByDiveSite(ctx, away.ID)
	require.NoError(t, err)
	assert.Empty(t, atAway)
}
