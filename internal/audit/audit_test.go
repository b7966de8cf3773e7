package audit

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeInserter struct {
	docs []interface{}
	err  error
}

func (f *fakeInserter) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.docs = append(f.docs, document)
	return &mongo.InsertOneResult{}, nil
}

func TestMongoRecorderFillsDefaults(t *testing.T) {
	inserter := &fakeInserter{}
	recorder := newMongoRecorder(inserter, nil)

	recorder.Record(context.Background(), Event{Kind: KindSignup, Email: "a@b.com"})

	if len(inserter.docs) != 1 {
		t.Fatalf("expected one insert, got %d", len(inserter.docs))
	}
	event := inserter.docs[0].(Event)
	if event.ID == "" || event.Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp to be set: %+v", event)
	}
	if event.Kind != KindSignup || event.Email != "a@b.com" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestMongoRecorderSurvivesCancelledRequest(t *testing.T) {
	inserter := &fakeInserter{}
	recorder := newMongoRecorder(inserter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recorder.Record(ctx, Event{Kind: KindLogout})

	if len(inserter.docs) != 1 {
		t.Fatalf("expected the event to be written")
	}
}

func TestMongoRecorderLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	recorder := newMongoRecorder(&fakeInserter{err: errors.New("mongo down")}, zap.New(core))

	recorder.Record(context.Background(), Event{Kind: KindLoginFailed})

	if logs.Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
}
