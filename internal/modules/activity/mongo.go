package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devicelink/core/internal/config"
	"github.com/devicelink/core/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const mirrorQueueSize = 256

// MongoMirror copies activity entries into a MongoDB collection from a
// background goroutine. Entries are dropped when the queue is full.
type MongoMirror struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	queue  chan models.ActivityLogModel
	done   chan struct{}
}

// NewMongoMirror connects to MongoDB and starts the writer.
func NewMongoMirror(ctx context.Context, cfg config.MirrorConfig, logger *zap.Logger) (*MongoMirror, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create mirror index: %w", err)
	}

	m := &MongoMirror{
		client: client,
		coll:   coll,
		logger: logger.Named("ActivityMirror"),
		queue:  make(chan models.ActivityLogModel, mirrorQueueSize),
		done:   make(chan struct{}),
	}
	go m.run()
	return m, nil
}

func (m *MongoMirror) Publish(entry models.ActivityLogModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- entry:
	default:
		m.logger.Warn("mirror queue full, dropping entry", zap.Uint("id", entry.ID), zap.String("action", entry.Action))
	}
}

func (m *MongoMirror) run() {
	defer close(m.done)
	for entry := range m.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := m.coll.InsertOne(ctx, entry)
		cancel()
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			m.logger.Warn("mirror insert failed", zap.Uint("id", entry.ID), zap.Error(err))
		}
	}
}

// Close drains queued entries and disconnects.
func (m *MongoMirror) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	select {
	case <-m.done:
	case <-ctx.Done():
		return errors.Join(ctx.Err(), m.client.Disconnect(context.Background()))
	}
	return m.client.Disconnect(ctx)
}
