// Package db is the SurrealDB-backed resource store. Resources are shared
// across journeys and keyed by their canonical URL hash.
package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

// Reconnect tuning for the websocket transport.
const (
	dialTimeout       = 5 * time.Second
	reconnectInitial  = time.Second
	reconnectMaxDelay = 30 * time.Second
	reconnectAttempts = 10
)

// AuthLevelDatabase signs in scoped to the configured namespace and database.
// Any other value signs in as a root user.
const AuthLevelDatabase = "database"

// resourceTables lists the tables cleared by WipeData.
var resourceTables = []string{"resource"}

func init() {
	// WebSocket upgrades fail when wss negotiates HTTP/2 through ALPN.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// Config holds the SurrealDB connection settings.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string
}

func (c Config) auth() surrealdb.Auth {
	if c.AuthLevel == AuthLevelDatabase {
		return surrealdb.Auth{
			Namespace: c.Namespace,
			Database:  c.Database,
			Username:  c.Username,
			Password:  c.Password,
		}
	}
	return surrealdb.Auth{Username: c.Username, Password: c.Password}
}

// baseURL strips the /rpc suffix; gorillaws appends it itself.
func (c Config) baseURL() string {
	return strings.TrimSuffix(c.URL, "/rpc")
}

// Client is a resource store over an auto-reconnecting websocket.
type Client struct {
	conn *rews.Connection[*gorillaws.Connection]
	db   *surrealdb.DB
	log  *slog.Logger
}

// NewClient dials SurrealDB, signs in and selects the resource database.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "resource_store")

	conn := dial(cfg, logger.New(log.Handler()))
	log.Info("connecting to resource store", "url", cfg.URL)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("from connection: %w", err)
	}
	if _, err := db.SignIn(ctx, cfg.auth()); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("signin as %s (%s): %w", cfg.Username, cfg.AuthLevel, err)
	}
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("use %s/%s: %w", cfg.Namespace, cfg.Database, err)
	}

	log.Info("resource store ready", "namespace", cfg.Namespace, "database", cfg.Database)
	return &Client{conn: conn, db: db, log: log}, nil
}

// dial builds the reconnecting connection without opening it.
func dial(cfg Config, sdkLogger logger.Logger) *rews.Connection[*gorillaws.Connection] {
	codec := surrealcbor.New()
	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			return gorillaws.New(&connection.Config{
				BaseURL:     cfg.baseURL(),
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      sdkLogger,
			}), nil
		},
		dialTimeout,
		codec,
		sdkLogger,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = reconnectInitial
	retryer.MaxDelay = reconnectMaxDelay
	retryer.Multiplier = 2.0
	retryer.MaxRetries = reconnectAttempts
	conn.Retryer = retryer
	return conn
}

// Close closes the connection.
func (c *Client) Close(ctx context.Context) error {
	c.log.Info("closing resource store connection")
	return c.conn.Close(ctx)
}

// InitSchema defines the resource table and its indexes. It is idempotent.
func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := surrealdb.Query[any](ctx, c.db, SchemaSQL, nil); err != nil {
		return fmt.Errorf("init schema: %w", wrapQueryError(err))
	}
	c.log.Debug("resource schema initialized")
	return nil
}

// Ping runs a trivial query. Used by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := surrealdb.Query[any](ctx, c.db, "RETURN true", nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WipeData deletes every stored resource but keeps the schema.
func (c *Client) WipeData(ctx context.Context) error {
	for _, table := range resourceTables {
		if _, err := surrealdb.Query[any](ctx, c.db, "DELETE type::table($table)", map[string]any{"table": table}); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	c.log.Warn("resource store wiped", "tables", resourceTables)
	return nil
}
