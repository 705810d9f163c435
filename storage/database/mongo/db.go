package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Alisaqulain/madarcrm-sub000/core"
)

const (
	statesCollection     = "tenant_demo_states"
	studentsCollection   = "students"
	attendanceCollection = "attendance_marks"
	feesCollection       = "fee_lines"
	usersCollection      = "users"
)

// Open connects to the configured deployment and waits for it to answer.
func Open(ctx context.Context, conf *core.Config) (*mongo.Database, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Mongo.URI))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connecting to mongo")
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "pinging mongo")
	}
	closeFn := func() { _ = client.Disconnect(context.Background()) }
	return client.Database(conf.Mongo.Database), closeFn, nil
}

// EnsureIndexes creates the natural-key and scope indexes. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		statesCollection: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}, Options: unique},
		},
		studentsCollection: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "student_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "is_demo_data", Value: 1}}},
		},
		attendanceCollection: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "student_id", Value: 1}, {Key: "date", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "is_demo_data", Value: 1}}},
		},
		feesCollection: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "student_id", Value: 1}, {Key: "year", Value: 1}, {Key: "month", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "is_demo_data", Value: 1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: uniqueIfSet("username")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: uniqueIfSet("email")},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "is_demo_data", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// uniqueIfSet ignores empty values, accounts may log in with either field.
func uniqueIfSet(field string) *options.IndexOptions {
	return options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{field: bson.M{"$gt": ""}})
}
