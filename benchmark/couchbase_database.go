package benchmark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CouchbaseDatabase implements the Database interface for Couchbase.
// Reads fetch a random key from the registry of inserted keys.
type CouchbaseDatabase struct {
	cluster    *gocb.Cluster
	collection *gocb.Collection
	keys       *KeyRegistry
}

// NewCouchbaseDatabase connects to the cluster, creates the bucket when it is
// missing and flushes it otherwise
func NewCouchbaseDatabase(ctx context.Context, cfg DatabaseConfig) (*CouchbaseDatabase, error) {
	cluster, err := gocb.Connect(cfg.CouchbaseConnStr, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: cfg.CouchbaseUser,
			Password: cfg.CouchbasePassword,
		},
	})
	if err != nil {
		return nil, err
	}

	bucketName := cfg.DatabaseName
	err = cluster.Buckets().CreateBucket(gocb.CreateBucketSettings{
		BucketSettings: gocb.BucketSettings{
			Name:         bucketName,
			RAMQuotaMB:   cfg.CouchbaseRAMQuotaMB,
			BucketType:   gocb.CouchbaseBucketType,
			FlushEnabled: true,
		},
	}, &gocb.CreateBucketOptions{Context: ctx})
	switch {
	case err == nil:
	case errors.Is(err, gocb.ErrBucketExists):
		if ferr := cluster.Buckets().FlushBucket(bucketName, &gocb.FlushBucketOptions{Context: ctx}); ferr != nil {
			log.Warn().Err(ferr).Str("bucket", bucketName).Msg("Couchbase bucket flush failed, reusing existing data")
		}
	default:
		_ = cluster.Close(nil)
		return nil, err
	}

	bucket := cluster.Bucket(bucketName)
	if err := bucket.WaitUntilReady(timeoutFrom(ctx, 30*time.Second), nil); err != nil {
		_ = cluster.Close(nil)
		return nil, err
	}

	return &CouchbaseDatabase{
		cluster:    cluster,
		collection: bucket.DefaultCollection(),
		keys:       NewKeyRegistry(cfg.KeyRegistrySize),
	}, nil
}

// Insert implements Database.Insert for Couchbase
func (c *CouchbaseDatabase) Insert(ctx context.Context, doc Document) error {
	key := uuid.NewString()
	if _, err := c.collection.Upsert(key, doc, &gocb.UpsertOptions{Context: ctx}); err != nil {
		return err
	}
	c.keys.Add(key)
	return nil
}

// Read implements Database.Read for Couchbase. Documents evicted between
// insert and read are reported as ErrKeyNotFound.
func (c *CouchbaseDatabase) Read(ctx context.Context) error {
	key, ok := c.keys.Random()
	if !ok {
		return ErrKeyNotFound
	}
	_, err := c.collection.Get(key, &gocb.GetOptions{Context: ctx})
	if errors.Is(err, gocb.ErrDocumentNotFound) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return err
}

// Close implements Database.Close for Couchbase
func (c *CouchbaseDatabase) Close() error {
	return c.cluster.Close(nil)
}

// timeoutFrom converts the context deadline into a duration for APIs that take one
func timeoutFrom(ctx context.Context, fallback time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
	}
	return fallback
}
