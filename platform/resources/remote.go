package resources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"cleanmaster_platform/platform/blobstore"
	"cleanmaster_platform/platform/schema"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoCollection is the subset of *mongo.Collection the remote store calls.
// Tests substitute an in-memory implementation.
type mongoCollection interface {
	ReplaceOne(ctx context.Context, filter, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// remoteStore keeps record metadata in hosted document collections and binary
// payloads in an object store. The metadata is authoritative for presence
// checks: a blob without a metadata document is invisible to readers.
//
// The write path uploads the blob first and writes metadata second. A blob
// that is uploaded while its metadata write fails is left behind, readers
// still see the previous consistent record.
type remoteStore struct {
	catalogs mongoCollection
	videos   mongoCollection
	blobs    blobstore.BlobStore
}

// NewRemoteStore builds the remote backend on an established mongo client
// and a blob store. The caller is responsible for having pinged the client.
func NewRemoteStore(client *mongo.Client, database string, blobs blobstore.BlobStore) Store {
	db := client.Database(database)
	slog.Info("remote resource store ready", "database", database)
	return newStore(&remoteStore{
		catalogs: db.Collection("catalogs"),
		videos:   db.Collection("videos"),
		blobs:    blobs,
	})
}

// catalogBlobKey is fixed per brand so a re-upload naturally overwrites the
// previous object.
func catalogBlobKey(brand schema.Brand) string {
	return path.Join("catalogs", string(brand)+".pdf")
}

// videoBlobKey is unique per upload, video payloads are never overwritten.
func videoBlobKey(id, fileName string) string {
	return path.Join("videos", id, fileName)
}

func transportFailure(op string, err error) error {
	slog.Error("remote store operation failed", "op", op, "error", err)
	return fmt.Errorf("%v: %w", op, ErrTransportFailure)
}

func (s *remoteStore) putCatalog(ctx context.Context, catalog schema.Catalog, payload []byte) error {
	key := catalogBlobKey(catalog.Brand)

	payloadURL, err := s.blobs.Put(ctx, key, catalog.MediaType, payload)
	if err != nil {
		return transportFailure("catalog payload upload", err)
	}
	catalog.PayloadRef = payloadURL

	opts := options.Replace().SetUpsert(true)
	if _, err := s.catalogs.ReplaceOne(ctx, bson.M{"_id": catalog.Brand}, catalog, opts); err != nil {
		// The uploaded blob is orphaned here. There is no rollback, the stale
		// metadata keeps pointing at the previous consistent record.
		return transportFailure("catalog metadata write", err)
	}

	return nil
}

func (s *remoteStore) getCatalog(ctx context.Context, brand schema.Brand) (*schema.Catalog, error) {
	var catalog schema.Catalog

	err := s.catalogs.FindOne(ctx, bson.M{"_id": brand}).Decode(&catalog)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, transportFailure("catalog metadata read", err)
	}

	return &catalog, nil
}

func (s *remoteStore) deleteCatalog(ctx context.Context, brand schema.Brand) error {
	if _, err := s.catalogs.DeleteOne(ctx, bson.M{"_id": brand}); err != nil {
		return transportFailure("catalog metadata delete", err)
	}

	// Best effort only. The metadata document is gone, so a stranded blob is
	// unreachable from any surface.
	if err := s.blobs.Delete(ctx, catalogBlobKey(brand)); err != nil {
		slog.Warn("catalog blob delete failed after metadata delete", "brand", brand, "error", err)
	}

	return nil
}

func (s *remoteStore) putVideo(ctx context.Context, video schema.Video, fileName string, payload []byte) (schema.Video, error) {
	if video.SourceKind == schema.SourceFile {
		key := videoBlobKey(video.Id, fileName)

		payloadURL, err := s.blobs.Put(ctx, key, detectVideoMediaType(fileName), payload)
		if err != nil {
			return schema.Video{}, transportFailure("video payload upload", err)
		}
		video.PayloadRef = payloadURL
	}

	// Upsert on id for parity with the embedded backend's Save semantics.
	opts := options.Replace().SetUpsert(true)
	if _, err := s.videos.ReplaceOne(ctx, bson.M{"_id": video.Id}, video, opts); err != nil {
		return schema.Video{}, transportFailure("video metadata write", err)
	}

	return video, nil
}

func (s *remoteStore) listVideos(ctx context.Context) ([]schema.Video, error) {
	cursor, err := s.videos.Find(ctx, bson.M{})
	if err != nil {
		return nil, transportFailure("video metadata list", err)
	}
	defer cursor.Close(ctx)

	videos := make([]schema.Video, 0)
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, transportFailure("video metadata decode", err)
	}

	return videos, nil
}

func (s *remoteStore) deleteVideo(ctx context.Context, id string) error {
	// Only the metadata document is removed. The record retains just the
	// resolved payload URL, not the object key it was uploaded under, so the
	// blob itself is not reclaimed.
	if _, err := s.videos.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return transportFailure("video metadata delete", err)
	}
	return nil
}
