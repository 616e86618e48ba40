package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medibook/booking-backend/internal/domain"
	"github.com/medibook/booking-backend/internal/storage"
)

// appointmentDoc is the stored form of an appointment.
// ActiveSlot is set while the appointment holds its slot and backs a unique index.
type appointmentDoc struct {
	domain.Appointment `bson:",inline"`
	ActiveSlot         string `bson:"active_slot,omitempty"`
}

func activeSlotKey(a *domain.Appointment) string {
	return fmt.Sprintf("%s|%s|%s", a.DoctorID, a.Date, a.Time)
}

// AppointmentStore implements MongoDB appointment storage
type AppointmentStore struct {
	collection *mongo.Collection
}

func (s *AppointmentStore) Create(ctx context.Context, appointment *domain.Appointment) error {
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt

	doc := appointmentDoc{Appointment: *appointment}
	if appointment.Status.Active() {
		doc.ActiveSlot = activeSlotKey(appointment)
	}

	_, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (s *AppointmentStore) GetByID(ctx context.Context, id domain.AppointmentID) (*domain.Appointment, error) {
	var doc appointmentDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &doc.Appointment, nil
}

func filterQuery(filter domain.AppointmentFilter) bson.M {
	query := bson.M{}
	if filter.PatientID != "" {
		query["patient_id"] = filter.PatientID
	}
	if filter.DoctorID != "" {
		query["doctor_id"] = filter.DoctorID
	}
	if filter.Date != "" {
		query["date"] = filter.Date
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

func (s *AppointmentStore) List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})
	cursor, err := s.collection.Find(ctx, filterQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []appointmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}

	appointments := make([]*domain.Appointment, len(docs))
	for i := range docs {
		appointments[i] = &docs[i].Appointment
	}
	return appointments, nil
}

func (s *AppointmentStore) CountByStatus(ctx context.Context, status domain.AppointmentStatus) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, filterQuery(domain.AppointmentFilter{Status: status}))
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return n, nil
}

func (s *AppointmentStore) UpdateStatus(ctx context.Context, id domain.AppointmentID, status domain.AppointmentStatus) error {
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	}
	if !status.Active() {
		update["$unset"] = bson.M{"active_slot": ""}
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *AppointmentStore) Delete(ctx context.Context, id domain.AppointmentID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if result.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *AppointmentStore) DeleteByDoctor(ctx context.Context, id domain.DoctorID) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{"doctor_id": id}); err != nil {
		return fmt.Errorf("failed to delete doctor appointments: %w", err)
	}
	return nil
}

func (s *AppointmentStore) DeleteByPatient(ctx context.Context, id domain.UserID) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{"patient_id": id}); err != nil {
		return fmt.Errorf("failed to delete patient appointments: %w", err)
	}
	return nil
}
