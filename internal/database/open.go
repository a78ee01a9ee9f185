// internal/database/open.go
package database

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/party-props-backend/internal/config"
)

// Backends holds the connections the services are built on.
type Backends struct {
	Store    DocumentStore
	Firebase *firebase.App
	Redis    *redis.Client
}

// Open connects every backend the configuration selects.
func Open(ctx context.Context, cfg *config.Config) (*Backends, error) {
	b := &Backends{}

	if cfg.UsesFirebase() {
		app, err := NewFirebaseApp(ctx, cfg.Firebase)
		if err != nil {
			return nil, err
		}
		b.Firebase = app
	}

	switch cfg.Database.Driver {
	case "postgres":
		db, err := Initialize(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := RunMigrations(db); err != nil {
			Close(db)
			return nil, err
		}
		b.Store = NewGormStore(db)
	case "firestore":
		client, err := b.Firebase.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		b.Store = NewFirestoreStore(client)
	case "memory":
		logrus.Warn("Using in-memory document store; data is lost on restart")
		b.Store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if cfg.Redis.Enabled {
		client, err := NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Redis = client
	}

	return b, nil
}

func (b *Backends) Close() {
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			logrus.WithError(err).Error("Error closing document store")
		}
	}
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			logrus.WithError(err).Error("Error closing redis client")
		}
	}
}
