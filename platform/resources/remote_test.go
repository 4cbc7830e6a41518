package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"cleanmaster_platform/platform/blobstore"
	"cleanmaster_platform/platform/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeCollection keeps documents in memory keyed by _id, matching the subset
// of filters the remote store issues.
type fakeCollection struct {
	docs map[string]interface{}
	err  error
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{docs: make(map[string]interface{})}
}

func filterId(filter interface{}) string {
	m, ok := filter.(bson.M)
	if !ok {
		return ""
	}
	return fmt.Sprint(m["_id"])
}

func (c *fakeCollection) ReplaceOne(ctx context.Context, filter, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.docs[filterId(filter)] = replacement
	return &mongo.UpdateResult{}, nil
}

func (c *fakeCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	if c.err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, c.err, nil)
	}
	doc, ok := c.docs[filterId(filter)]
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func (c *fakeCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	if c.err != nil {
		return nil, c.err
	}
	docs := make([]interface{}, 0, len(c.docs))
	for _, doc := range c.docs {
		docs = append(docs, doc)
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (c *fakeCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	id := filterId(filter)
	if _, ok := c.docs[id]; !ok {
		return &mongo.DeleteResult{DeletedCount: 0}, nil
	}
	delete(c.docs, id)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

// failingBlobStore injects Put/Delete failures over a MemoryStore.
type failingBlobStore struct {
	*blobstore.MemoryStore
	putErr    error
	deleteErr error
}

func (s *failingBlobStore) Put(ctx context.Context, key, contentType string, payload []byte) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	return s.MemoryStore.Put(ctx, key, contentType, payload)
}

func (s *failingBlobStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete(ctx, key)
}

type remoteTestEnv struct {
	store    Store
	catalogs *fakeCollection
	videos   *fakeCollection
	blobs    *failingBlobStore
}

func newTestRemoteStore() *remoteTestEnv {
	env := &remoteTestEnv{
		catalogs: newFakeCollection(),
		videos:   newFakeCollection(),
		blobs:    &failingBlobStore{MemoryStore: blobstore.NewMemoryStore()},
	}
	env.store = newStore(&remoteStore{
		catalogs: env.catalogs,
		videos:   env.videos,
		blobs:    env.blobs,
	})
	return env
}

func TestRemoteCatalogLifecycle(t *testing.T) {
	env := newTestRemoteStore()
	ctx := context.Background()

	catalog, err := env.store.GetCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)
	assert.Nil(t, catalog)

	err = env.store.PutCatalog(ctx, schema.BrandUnger, CatalogUpload{
		Name: "unger.pdf", MediaType: "application/pdf", Payload: []byte("%PDF v1"),
	})
	require.NoError(t, err)

	catalog, err = env.store.GetCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)
	require.NotNil(t, catalog)
	assert.Equal(t, "unger.pdf", catalog.Name)
	// The record carries the resolved blob URL, not the payload itself.
	assert.Equal(t, "memory://catalogs/UNGER.pdf", catalog.PayloadRef)
	assert.Equal(t, []byte("%PDF v1"), env.blobs.Get("catalogs/UNGER.pdf"))

	// A second upload replaces both the metadata document and the blob.
	err = env.store.PutCatalog(ctx, schema.BrandUnger, CatalogUpload{
		Name: "unger_v2.pdf", MediaType: "application/pdf", Payload: []byte("%PDF v2"),
	})
	require.NoError(t, err)

	catalog, err = env.store.GetCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)
	require.NotNil(t, catalog)
	assert.Equal(t, "unger_v2.pdf", catalog.Name)
	assert.Equal(t, []byte("%PDF v2"), env.blobs.Get("catalogs/UNGER.pdf"))
	assert.Equal(t, 1, env.blobs.Len())

	err = env.store.DeleteCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)

	catalog, err = env.store.GetCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)
	assert.Nil(t, catalog)
	assert.Equal(t, 0, env.blobs.Len())

	// Repeating the delete is harmless.
	err = env.store.DeleteCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)
}

func TestRemotePutCatalogBlobFailureAbortsMetadataWrite(t *testing.T) {
	env := newTestRemoteStore()
	env.blobs.putErr = errors.New("connection reset")

	err := env.store.PutCatalog(context.Background(), schema.BrandUnger, CatalogUpload{
		Name: "unger.pdf", MediaType: "application/pdf", Payload: []byte("%PDF"),
	})
	assert.ErrorIs(t, err, ErrTransportFailure)

	// The blob upload comes first, so nothing was written to metadata.
	assert.Empty(t, env.catalogs.docs)

	catalog, err := env.store.GetCatalog(context.Background(), schema.BrandUnger)
	require.NoError(t, err)
	assert.Nil(t, catalog)
}

func TestRemotePutCatalogMetadataFailureOrphansBlob(t *testing.T) {
	env := newTestRemoteStore()
	env.catalogs.err = errors.New("primary stepped down")

	err := env.store.PutCatalog(context.Background(), schema.BrandUnger, CatalogUpload{
		Name: "unger.pdf", MediaType: "application/pdf", Payload: []byte("%PDF"),
	})
	assert.ErrorIs(t, err, ErrTransportFailure)

	// The uploaded blob is left behind, but it is unreachable: reads consult
	// metadata only.
	assert.Equal(t, 1, env.blobs.Len())
	env.catalogs.err = nil

	catalog, err := env.store.GetCatalog(context.Background(), schema.BrandUnger)
	require.NoError(t, err)
	assert.Nil(t, catalog)
}

func TestRemoteDeleteCatalogBlobFailureIsNotSurfaced(t *testing.T) {
	env := newTestRemoteStore()
	ctx := context.Background()

	err := env.store.PutCatalog(ctx, schema.BrandUnger, CatalogUpload{
		Name: "unger.pdf", MediaType: "application/pdf", Payload: []byte("%PDF"),
	})
	require.NoError(t, err)

	env.blobs.deleteErr = errors.New("access denied")

	// Blob cleanup is best effort, the delete still succeeds.
	err = env.store.DeleteCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)

	catalog, err := env.store.GetCatalog(ctx, schema.BrandUnger)
	require.NoError(t, err)
	assert.Nil(t, catalog)
	assert.Equal(t, 1, env.blobs.Len())
}

func TestRemoteVideoLifecycle(t *testing.T) {
	env := newTestRemoteStore()
	ctx := context.Background()

	link, err := env.store.PutVideo(ctx, VideoUpload{
		Title: "link video", Brand: schema.BrandUnger,
		SourceKind: schema.SourceLink, URL: "https://example.com/v",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v", link.PayloadRef)
	assert.Equal(t, 0, env.blobs.Len())

	file, err := env.store.PutVideo(ctx, VideoUpload{
		Title: "file video", Brand: schema.BrandElCastor,
		SourceKind: schema.SourceFile, FileName: "demo.mp4", Payload: []byte("bytes"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(file.PayloadRef, "memory://videos/"))
	assert.Equal(t, []byte("bytes"), env.blobs.Get(videoBlobKey(file.Id, "demo.mp4")))

	videos, err := env.store.ListVideos(ctx, "")
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, file.Id, videos[0].Id)
	assert.Equal(t, link.Id, videos[1].Id)

	// Delete removes the metadata document only, the blob is not reclaimed.
	err = env.store.DeleteVideo(ctx, file.Id)
	require.NoError(t, err)

	videos, err = env.store.ListVideos(ctx, "")
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, link.Id, videos[0].Id)
	assert.Equal(t, 1, env.blobs.Len())

	err = env.store.DeleteVideo(ctx, file.Id)
	require.NoError(t, err)
}

func TestRemoteVideoBlobFailure(t *testing.T) {
	env := newTestRemoteStore()
	env.blobs.putErr = errors.New("connection reset")

	_, err := env.store.PutVideo(context.Background(), VideoUpload{
		Title: "file video", Brand: schema.BrandUnger,
		SourceKind: schema.SourceFile, FileName: "demo.mp4", Payload: []byte("bytes"),
	})
	assert.ErrorIs(t, err, ErrTransportFailure)
	assert.Empty(t, env.videos.docs)
}

func TestCatalogBlobKeyIsStablePerBrand(t *testing.T) {
	// The key must not vary with the uploaded file name, re-uploads have to
	// land on the same object.
	assert.Equal(t, "catalogs/UNGER.pdf", catalogBlobKey(schema.BrandUnger))
	assert.Equal(t, "catalogs/EL_CASTOR.pdf", catalogBlobKey(schema.BrandElCastor))
}

func TestVideoBlobKeyIsUniquePerUpload(t *testing.T) {
	a := videoBlobKey("1700000000000000001", "demo.mp4")
	b := videoBlobKey("1700000000000000002", "demo.mp4")

	assert.Equal(t, "videos/1700000000000000001/demo.mp4", a)
	assert.NotEqual(t, a, b)
}

func TestTransportFailureWrapping(t *testing.T) {
	err := transportFailure("catalog metadata write", errors.New("connection reset"))

	assert.ErrorIs(t, err, ErrTransportFailure)
	// The raw driver error is logged, not surfaced to callers.
	assert.NotContains(t, err.Error(), "connection reset")
	assert.Contains(t, err.Error(), "catalog metadata write")
}
