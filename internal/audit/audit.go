// Package audit records authentication events. Recording is best effort: a
// failed write is logged and never changes the outcome of the request.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Kind string

const (
	KindSignup         Kind = "signup"
	KindLoginSucceeded Kind = "login_succeeded"
	KindLoginFailed    Kind = "login_failed"
	KindLogout         Kind = "logout"
)

// Event never carries a password or hash.
type Event struct {
	ID        string    `bson:"_id"`
	Kind      Kind      `bson:"kind"`
	UserID    string    `bson:"user_id,omitempty"`
	Email     string    `bson:"email,omitempty"`
	ClientIP  string    `bson:"client_ip,omitempty"`
	Outcome   string    `bson:"outcome,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}

type eventInserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

type MongoRecorder struct {
	events  eventInserter
	timeout time.Duration
	logger  *zap.Logger
}

func NewMongoRecorder(events *mongo.Collection, logger *zap.Logger) *MongoRecorder {
	return newMongoRecorder(events, logger)
}

func newMongoRecorder(events eventInserter, logger *zap.Logger) *MongoRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoRecorder{events: events, timeout: 2 * time.Second, logger: logger}
}

func (r *MongoRecorder) Record(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	// The write outlives a cancelled request but not the timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if _, err := r.events.InsertOne(ctx, event); err != nil {
		r.logger.Warn("audit: record event failed",
			zap.String("kind", string(event.Kind)),
			zap.Error(err),
		)
	}
}
