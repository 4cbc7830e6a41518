package resources

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"cleanmaster_platform/platform/schema"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDb(t *testing.T, path string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func newTestEmbeddedStore(t *testing.T) Store {
	dataDir := t.TempDir()
	db := openTestDb(t, filepath.Join(dataDir, "test.db"))

	store, err := NewEmbeddedStore(db, dataDir)
	require.NoError(t, err)
	return store
}

func TestEmbeddedCatalogLifecycle(t *testing.T) {
	store := newTestEmbeddedStore(t)
	ctx := context.Background()

	catalog, err := store.GetCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)
	assert.Nil(t, catalog)

	payload := []byte("%PDF-1.4 test payload")
	err = store.PutCatalog(ctx, schema.BrandUnger, CatalogUpload{
		Name: "unger.pdf", MediaType: "application/pdf", Payload: payload,
	})
	require.NoError(t, err)

	catalog, err = store.GetCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)
	require.NotNil(t, catalog)
	assert.Equal(t, "unger.pdf", catalog.Name)

	mediaType, decoded, err := decodeDataURL(catalog.PayloadRef)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mediaType)
	assert.Equal(t, payload, decoded)

	// Second upload replaces the record in place.
	err = store.PutCatalog(ctx, schema.BrandUnger, CatalogUpload{
		Name: "unger_v2.pdf", MediaType: "application/pdf", Payload: []byte("%PDF-1.4 v2"),
	})
	require.NoError(t, err)

	catalog, err = store.GetCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)
	require.NotNil(t, catalog)
	assert.Equal(t, "unger_v2.pdf", catalog.Name)

	err = store.DeleteCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)

	catalog, err = store.GetCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)
	assert.Nil(t, catalog)

	// Repeating the delete is harmless.
	err = store.DeleteCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)
}

func TestEmbeddedVideoLifecycle(t *testing.T) {
	store := newTestEmbeddedStore(t)
	ctx := context.Background()

	link, err := store.PutVideo(ctx, VideoUpload{
		Title: "link video", Brand: schema.BrandUnger,
		SourceKind: schema.SourceLink, URL: "https://example.com/v",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v", link.PayloadRef)

	file, err := store.PutVideo(ctx, VideoUpload{
		Title: "file video", Brand: schema.BrandElCastor,
		SourceKind: schema.SourceFile, FileName: "demo.mp4", Payload: []byte("bytes"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(file.PayloadRef, "data:video/mp4;base64,"))

	videos, err := store.ListVideos(ctx, "")
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, file.Id, videos[0].Id)
	assert.Equal(t, link.Id, videos[1].Id)

	err = store.DeleteVideo(ctx, link.Id)
	require.NoError(t, err)

	videos, err = store.ListVideos(ctx, "")
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, file.Id, videos[0].Id)
}

func TestEmbeddedStoreReopen(t *testing.T) {
	dataDir := t.TempDir()
	dbPath := filepath.Join(dataDir, "test.db")
	ctx := context.Background()

	store, err := NewEmbeddedStore(openTestDb(t, dbPath), dataDir)
	require.NoError(t, err)

	err = store.PutCatalog(ctx, schema.BrandElCastor, CatalogUpload{
		Name: "castor.pdf", MediaType: "application/pdf", Payload: []byte("%PDF"),
	})
	require.NoError(t, err)

	// Opening again runs migrations a second time, which must be a no-op,
	// and the stored records must survive.
	store, err = NewEmbeddedStore(openTestDb(t, dbPath), dataDir)
	require.NoError(t, err)

	catalog, err := store.GetCatalog(ctx, schema.BrandElCastor)
	require.NoError(t, err)
	require.NotNil(t, catalog)
	assert.Equal(t, "castor.pdf", catalog.Name)
}

func TestEmbeddedStoreUpgradeFromCatalogOnlySchema(t *testing.T) {
	dataDir := t.TempDir()
	dbPath := filepath.Join(dataDir, "test.db")
	ctx := context.Background()

	// Simulate a database created by a build that predates video support by
	// applying only the first migration step.
	db := openTestDb(t, dbPath)
	err := gormigrate.New(db, gormigrate.DefaultOptions, migrations()[:1]).Migrate()
	require.NoError(t, err)

	old := schema.Catalog{
		Brand: schema.BrandUnger, Name: "legacy.pdf",
		MediaType: "application/pdf", PayloadRef: encodeDataURL("application/pdf", []byte("%PDF")),
	}
	require.NoError(t, db.Create(&old).Error)

	store, err := NewEmbeddedStore(openTestDb(t, dbPath), dataDir)
	require.NoError(t, err)

	// Pre-upgrade catalog rows are untouched.
	catalog, err := store.GetCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)
	require.NotNil(t, catalog)
	assert.Equal(t, "legacy.pdf", catalog.Name)

	// The videos table added by the upgrade is usable.
	_, err = store.PutVideo(ctx, VideoUpload{
		Title: "post upgrade", Brand: schema.BrandUnger,
		SourceKind: schema.SourceLink, URL: "https://example.com/v",
	})
	require.NoError(t, err)
}

func TestEmbeddedStoreMigrationFailure(t *testing.T) {
	dataDir := t.TempDir()
	db := openTestDb(t, filepath.Join(dataDir, "test.db"))

	// Poison the migration bookkeeping table so the migrator cannot run.
	require.NoError(t, db.Exec("CREATE TABLE migrations (wrong_column int)").Error)

	_, err := NewEmbeddedStore(db, dataDir)
	assert.ErrorIs(t, err, ErrUnsupportedEnvironment)
}
