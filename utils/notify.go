package utils

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	config "github.com/SebiosJade/Boluntik-sub002/config"
	models "github.com/SebiosJade/Boluntik-sub002/models"
)

// Notify fans a notification out to the given recipients. It runs detached
// from the caller's request: a failed insert is logged and swallowed, never
// reported back to the action that triggered it.
func Notify(cfg *config.Config, recipients []primitive.ObjectID, kind, title, body string, data map[string]any) {
	if len(recipients) == 0 {
		return
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(recipients))
	for _, r := range recipients {
		docs = append(docs, models.Notification{
			ID:        primitive.NewObjectID(),
			UserID:    r,
			Kind:      kind,
			Title:     title,
			Body:      body,
			Data:      data,
			Read:      false,
			CreatedAt: now,
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		col := cfg.MongoClient.Database(cfg.DBName).Collection("notifications")
		if _, err := col.InsertMany(ctx, docs); err != nil {
			cfg.Logger.Warn("notification dispatch failed",
				zap.String("kind", kind),
				zap.Int("recipients", len(recipients)),
				zap.Error(err),
			)
		}
	}()
}

// AdminIDs lists every admin account, for notification fan-out on new
// donations.
func AdminIDs(ctx context.Context, cfg *config.Config) ([]primitive.ObjectID, error) {
	col := cfg.MongoClient.Database(cfg.DBName).Collection("users")

	cursor, err := col.Find(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		return nil, err
	}

	var admins []models.User
	if err := cursor.All(ctx, &admins); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(admins))
	for _, a := range admins {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// ResolveDonorID finds the account to notify for a donation: the attached
// donor account if the donor was signed in, otherwise a directory lookup by
// email. A nil result means the donor has no account and notification is
// skipped.
func ResolveDonorID(ctx context.Context, cfg *config.Config, d *models.Donation) *primitive.ObjectID {
	if d.DonorID != nil {
		return d.DonorID
	}
	if d.DonorEmail == "" {
		return nil
	}

	col := cfg.MongoClient.Database(cfg.DBName).Collection("users")

	var user models.User
	if err := col.FindOne(ctx, bson.M{"email": d.DonorEmail}).Decode(&user); err != nil {
		return nil
	}
	return &user.ID
}
