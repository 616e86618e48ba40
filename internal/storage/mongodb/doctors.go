package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/storage"
)

// DoctorStore implements MongoDB doctor storage
type DoctorStore struct {
	collection *mongo.Collection
}

func (s *DoctorStore) Create(ctx context.Context, doctor *domain.Doctor) error {
	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = doctor.CreatedAt

	_, err := s.collection.InsertOne(ctx, doctor)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (s *DoctorStore) findOne(ctx context.Context, filter bson.M) (*domain.Doctor, error) {
	var doctor domain.Doctor
	err := s.collection.FindOne(ctx, filter).Decode(&doctor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (s *DoctorStore) GetByID(ctx context.Context, id domain.DoctorID) (*domain.Doctor, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *DoctorStore) GetByEmail(ctx context.Context, email string) (*domain.Doctor, error) {
	if email == "" {
		return nil, storage.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *DoctorStore) List(ctx context.Context, filter domain.DoctorFilter) ([]*domain.Doctor, error) {
	query := bson.M{}
	if filter.Specialization != "" {
		query["specialization"] = primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(filter.Specialization) + "$",
			Options: "i",
		}
	}
	if filter.AvailableOnly {
		query["available"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	defer cursor.Close(ctx)

	doctors := make([]*domain.Doctor, 0)
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("failed to decode doctors: %w", err)
	}
	return doctors, nil
}

func (s *DoctorStore) Count(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return n, nil
}

func (s *DoctorStore) Update(ctx context.Context, doctor *domain.Doctor) error {
	doctor.UpdatedAt = time.Now()
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": doctor.ID}, doctor)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *DoctorStore) Delete(ctx context.Context, id domain.DoctorID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	if result.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
