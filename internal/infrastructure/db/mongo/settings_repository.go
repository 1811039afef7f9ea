package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/onhs/olms/internal/core/domain"
)

const (
	settingsCollection = "settings"
	settingsID         = "system"
)

// MongoSettingsRepository stores the system settings as a single document.
type MongoSettingsRepository struct {
	coll *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *MongoSettingsRepository {
	return &MongoSettingsRepository{coll: db.Collection(settingsCollection)}
}

type settingsDoc struct {
	ID                    string `bson:"_id"`
	domain.SystemSettings `bson:",inline"`
}

func (r *MongoSettingsRepository) Get(ctx context.Context) (*domain.SystemSettings, error) {
	var doc settingsDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": settingsID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.DefaultSettings(), nil
		}
		return nil, fmt.Errorf("find settings: %w", err)
	}
	return &doc.SystemSettings, nil
}

// SetMaintenance toggles maintenance mode, creating the settings document
// from the defaults when it does not exist yet.
func (r *MongoSettingsRepository) SetMaintenance(ctx context.Context, enabled bool) (*domain.SystemSettings, error) {
	defaults := domain.DefaultSettings()
	update := bson.M{
		"$set": bson.M{
			"maintenance_mode": enabled,
			"updated_at":       time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"library_name":     defaults.LibraryName,
			"loan_period_days": defaults.LoanPeriodDays,
			"max_borrow_limit": defaults.MaxBorrowLimit,
			"fine_per_day":     defaults.FinePerDay,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc settingsDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": settingsID}, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return &doc.SystemSettings, nil
}
