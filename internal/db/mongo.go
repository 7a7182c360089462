package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/ukydev/equipment-diagnostics/internal/config"
	"github.com/ukydev/equipment-diagnostics/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	LogsCollection    = "maintenance_logs"
	ManualsCollection = "manuals"
	UsersCollection   = "users"
)

// ConnectMongo connects to MongoDB with the store endpoint and access key.
func ConnectMongo(ctx context.Context, cfg config.StoreConfig) (*mongo.Client, error) {
	if !cfg.Configured() {
		return nil, models.ErrConfigurationMissing
	}
	client, err := mongo.Connect(ctx, clientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// clientOptions applies the URI and layers the access key on top of it. The
// credential embedded in the URI is kept unless MONGO_USER names another
// user; authSource and the mechanism always come from the URI.
func clientOptions(cfg config.StoreConfig) *options.ClientOptions {
	opts := options.Client().ApplyURI(cfg.URI)
	switch {
	case cfg.User != "":
		cred := options.Credential{}
		if opts.Auth != nil {
			cred.AuthMechanism = opts.Auth.AuthMechanism
			cred.AuthMechanismProperties = opts.Auth.AuthMechanismProperties
			cred.AuthSource = opts.Auth.AuthSource
		}
		cred.Username = cfg.User
		cred.Password = cfg.AccessKey
		cred.PasswordSet = true
		opts.SetAuth(cred)
	case opts.Auth != nil && opts.Auth.Username != "" && !opts.Auth.PasswordSet:
		cred := *opts.Auth
		cred.Password = cfg.AccessKey
		cred.PasswordSet = true
		opts.SetAuth(cred)
	}
	return opts
}

// EnsureIndexes creates the indexes backing the sort orders and the unique email.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		LogsCollection: {
			{Keys: bson.D{{Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "equipment_model", Value: 1}}},
		},
		ManualsCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, idx := range indexes {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// MongoLogCollection wraps the maintenance_logs collection.
type MongoLogCollection struct {
	Collection *mongo.Collection
}

// InsertLog inserts a maintenance log and returns it with its assigned ID.
func (c *MongoLogCollection) InsertLog(ctx context.Context, log models.MaintenanceLog) (*models.MaintenanceLog, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	log.ID = primitive.NilObjectID
	res, err := c.Collection.InsertOne(ctx, log)
	if err != nil {
		return nil, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		log.ID = id
	}
	return &log, nil
}

// FindLogs returns every maintenance log, newest first.
func (c *MongoLogCollection) FindLogs(ctx context.Context) ([]models.MaintenanceLog, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := c.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	logs := []models.MaintenanceLog{}
	if err := readAll(ctx, cursor, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// MongoManualCollection wraps the manuals collection.
type MongoManualCollection struct {
	Collection *mongo.Collection
}

// InsertManual inserts a manual and returns it with its assigned ID.
func (c *MongoManualCollection) InsertManual(ctx context.Context, manual models.Manual) (*models.Manual, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	manual.ID = primitive.NilObjectID
	if manual.CreatedAt.IsZero() {
		manual.CreatedAt = time.Now()
	}
	res, err := c.Collection.InsertOne(ctx, manual)
	if err != nil {
		return nil, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		manual.ID = id
	}
	return &manual, nil
}

// FindManuals returns every manual, newest first.
func (c *MongoManualCollection) FindManuals(ctx context.Context) ([]models.Manual, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := c.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	manuals := []models.Manual{}
	if err := readAll(ctx, cursor, &manuals); err != nil {
		return nil, err
	}
	return manuals, nil
}

// FindManualByModel returns the first manual whose model contains the query,
// ignoring case, or nil when none matches.
func (c *MongoManualCollection) FindManualByModel(ctx context.Context, model string) (*models.Manual, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var manual models.Manual
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := c.Collection.FindOne(ctx, ModelFilter(model), opts).Decode(&manual)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &manual, nil
}

// DeleteManual deletes a manual by its ID.
func (c *MongoManualCollection) DeleteManual(ctx context.Context, id string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid manual ID: %v", models.ErrValidation, err)
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("manual %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// ModelFilter matches documents whose model contains query as a
// case-insensitive literal substring.
func ModelFilter(query string) bson.M {
	return bson.M{"model": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}}
}

func readAll(ctx context.Context, cursor Cursor, out interface{}) error {
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
