package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrMissingURI = errors.New("database connection string is not set")
	ErrDatabase   = errors.New("database error")
	ErrNotFound   = errors.New("document not found")
	ErrInvalidID  = errors.New("invalid document ID")
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, ErrMissingURI
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrDatabase, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %v", ErrDatabase, err)
	}
	return client, nil
}

// Connector lazily opens one shared client for the lifetime of the process.
// The driver pools connections internally so the client is safe to share.
type Connector struct {
	uri    string
	dbName string

	mu     sync.Mutex
	client *mongo.Client
}

// NewConnector returns a connector; no connection is made until Database is called.
func NewConnector(uri, dbName string) *Connector {
	return &Connector{uri: uri, dbName: dbName}
}

// Database returns the default database, connecting on first use. A failed
// attempt is not cached so the next call retries.
func (c *Connector) Database(ctx context.Context) (*mongo.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		client, err := ConnectMongo(ctx, c.uri)
		if err != nil {
			return nil, err
		}
		log.WithField("database", c.dbName).Info("Connected to MongoDB")
		c.client = client
	}
	return c.client.Database(c.dbName), nil
}

// Disconnect closes the shared client if one was opened.
func (c *Connector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	return err
}
