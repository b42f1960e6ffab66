package persistence

import (
	"context"
	"fmt"
	"time"

	"speakcraft-social/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NewMongoDb connects to MongoDB for the raw payload archive.
func NewMongoDb(host, port, user, password, name string) (*mongo.Client, error) {
	if host == "" {
		return nil, nil
	}
	uri := fmt.Sprintf("mongodb://%s:%s", host, port)
	if user != "" {
		uri = fmt.Sprintf("mongodb://%s:%s@%s:%s/%s", user, password, host, port, name)
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// IPayloadArchive archives raw platform request/response payloads per publish
// attempt. The relational audit log stays the source of truth; the archive
// keeps the full bodies for debugging.
type IPayloadArchive interface {
	Archive(ctx context.Context, postID int64, status string, request, response []byte)
}

// PayloadArchive stores snapshots in a Mongo collection. A nil client turns
// every call into a no-op so the worker never depends on Mongo availability.
type PayloadArchive struct {
	mongoDb *mongo.Client
}

func NewPayloadArchive(client *mongo.Client) IPayloadArchive {
	return &PayloadArchive{mongoDb: client}
}

func (p *PayloadArchive) Archive(ctx context.Context, postID int64, status string, request, response []byte) {
	if p.mongoDb == nil {
		return
	}
	collection := p.mongoDb.Database("speakcraft").Collection("publish_payloads")
	doc := bson.D{
		{Key: "post_id", Value: postID},
		{Key: "status", Value: status},
		{Key: "request", Value: string(request)},
		{Key: "response", Value: string(response)},
		{Key: "created_at", Value: time.Now().UTC()},
	}
	if _, err := collection.InsertOne(ctx, doc); err != nil {
		logger.GetLogger().WithField("error", err).WithField("post_id", postID).Warn("Payload archive insert failed")
	}
}
