package persistence

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
)

// MongoStore keeps each collection in a MongoDB collection keyed by _id.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a new MongoStore
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) FindByKey(ctx context.Context, collection string, key int64, projection []string) (ports.Document, error) {
	opts := options.FindOne()
	if len(projection) > 0 {
		opts.SetProjection(mongoProjection(projection))
	}

	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": key}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s %d: %w", collection, key, err)
	}
	return fromBSON(doc), nil
}

// UpsertByKey applies patch with $set so attributes outside it survive.
func (s *MongoStore) UpsertByKey(ctx context.Context, collection string, key int64, patch ports.Document) error {
	set := bson.M{}
	for k, v := range patch {
		if k == "_id" {
			continue
		}
		set[k] = v
	}
	set["id"] = key

	_, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %s %d: %w", collection, key, err)
	}
	return nil
}

func (s *MongoStore) Query(ctx context.Context, collection string, filter ports.Filter, opts ports.QueryOptions) ([]ports.Document, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.MaxTime > 0 {
		findOpts.SetMaxTime(opts.MaxTime)
	}
	if len(opts.Projection) > 0 {
		findOpts.SetProjection(mongoProjection(opts.Projection))
	}

	cursor, err := s.db.Collection(collection).Find(ctx, query, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}

	docs := make([]ports.Document, len(raw))
	for i, doc := range raw {
		docs[i] = fromBSON(doc)
	}
	return docs, nil
}

func (s *MongoStore) Count(ctx context.Context, collection string, filter ports.Filter) (int64, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return 0, err
	}
	n, err := s.db.Collection(collection).CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return n, nil
}

func (s *MongoStore) DeleteByKey(ctx context.Context, collection string, key int64) (bool, error) {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return false, fmt.Errorf("failed to delete %s %d: %w", collection, key, err)
	}
	return res.DeletedCount > 0, nil
}

func mongoProjection(fields []string) bson.M {
	proj := bson.M{"id": 1}
	for _, f := range fields {
		proj[f] = 1
	}
	return proj
}

// mongoFilter translates a filter into a query document.
func mongoFilter(filter ports.Filter) (bson.M, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if len(filter) == 0 {
		return bson.M{}, nil
	}

	and := make(bson.A, 0, len(filter))
	for _, cond := range filter {
		field := cond.Field
		if field == "id" {
			field = "_id"
		}
		switch cond.Op {
		case ports.OpEq:
			and = append(and, bson.M{field: cond.Values[0]})
		case ports.OpIn:
			and = append(and, bson.M{field: bson.M{"$in": bson.A(cond.Values)}})
		case ports.OpPrefix:
			alternatives := make(bson.A, len(cond.Values))
			for i, v := range cond.Values {
				alternatives[i] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(scalarString(v)), Options: "i"}
			}
			and = append(and, bson.M{field: bson.M{"$in": alternatives}})
		case ports.OpContains:
			and = append(and, bson.M{field: primitive.Regex{Pattern: regexp.QuoteMeta(scalarString(cond.Values[0])), Options: "i"}})
		}
	}
	if len(and) == 1 {
		return and[0].(bson.M), nil
	}
	return bson.M{"$and": and}, nil
}

// fromBSON converts driver values into plain maps and slices and exposes
// _id as id.
func fromBSON(doc bson.M) ports.Document {
	out := make(ports.Document, len(doc))
	for k, v := range doc {
		out[k] = plainValue(v)
	}
	if id, ok := out["_id"]; ok {
		out["id"] = id
		delete(out, "_id")
	}
	return out
}

func plainValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.M:
		m := make(map[string]interface{}, len(val))
		for k, inner := range val {
			m[k] = plainValue(inner)
		}
		return m
	case bson.D:
		m := make(map[string]interface{}, len(val))
		for _, e := range val {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case bson.A:
		s := make([]interface{}, len(val))
		for i, inner := range val {
			s[i] = plainValue(inner)
		}
		return s
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case primitive.DateTime:
		return val.Time().UTC().Format("2006-01-02T15:04:05.000Z")
	}
	return v
}
