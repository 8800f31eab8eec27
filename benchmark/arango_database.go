package benchmark

import (
	"context"

	driver "github.com/arangodb/go-driver"
	"github.com/arangodb/go-driver/http"
)

const arangoReadQuery = "FOR d IN @@collection FILTER d.name == @name RETURN d"

// ArangoDatabase implements the Database interface for ArangoDB
type ArangoDatabase struct {
	db         driver.Database
	collection driver.Collection
	name       string
}

// NewArangoDatabase connects to ArangoDB, creates the benchmark database if
// needed and recreates the target collection
func NewArangoDatabase(ctx context.Context, cfg DatabaseConfig) (*ArangoDatabase, error) {
	conn, err := http.NewConnection(http.ConnectionConfig{
		Endpoints: []string{cfg.ArangoEndpoint},
	})
	if err != nil {
		return nil, err
	}

	client, err := driver.NewClient(driver.ClientConfig{
		Connection:     conn,
		Authentication: driver.BasicAuthentication(cfg.ArangoUser, cfg.ArangoPassword),
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.DatabaseExists(ctx, cfg.DatabaseName)
	if err != nil {
		return nil, err
	}
	var db driver.Database
	if exists {
		db, err = client.Database(ctx, cfg.DatabaseName)
	} else {
		db, err = client.CreateDatabase(ctx, cfg.DatabaseName, nil)
	}
	if err != nil {
		return nil, err
	}

	colExists, err := db.CollectionExists(ctx, cfg.Collection)
	if err != nil {
		return nil, err
	}
	if colExists {
		old, err := db.Collection(ctx, cfg.Collection)
		if err != nil {
			return nil, err
		}
		if err := old.Remove(ctx); err != nil {
			return nil, err
		}
	}

	col, err := db.CreateCollection(ctx, cfg.Collection, nil)
	if err != nil {
		return nil, err
	}

	return &ArangoDatabase{db: db, collection: col, name: cfg.Collection}, nil
}

// Insert implements Database.Insert for ArangoDB
func (a *ArangoDatabase) Insert(ctx context.Context, doc Document) error {
	_, err := a.collection.CreateDocument(ctx, doc)
	return err
}

// Read implements Database.Read for ArangoDB: fetch every test document
func (a *ArangoDatabase) Read(ctx context.Context) error {
	cursor, err := a.db.Query(ctx, arangoReadQuery, map[string]interface{}{
		"@collection": a.name,
		"name":        DocumentName,
	})
	if err != nil {
		return err
	}
	defer cursor.Close()

	for cursor.HasMore() {
		var doc Document
		if _, err := cursor.ReadDocument(ctx, &doc); err != nil {
			if driver.IsNoMoreDocuments(err) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Close implements Database.Close for ArangoDB; the HTTP client holds no session
func (a *ArangoDatabase) Close() error {
	return nil
}
