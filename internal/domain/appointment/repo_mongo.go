package appointment

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/domain/schedule"
	"github.com/medconnect/medconnect/internal/platform/resilience"
	"github.com/medconnect/medconnect/pkg/pagination"
)

const CollectionName = "appointments"

type appointmentDoc struct {
	ID              string    `bson:"_id"`
	DoctorID        string    `bson:"doctorId"`
	DoctorName      string    `bson:"doctorName"`
	DoctorEmail     string    `bson:"doctorEmail"`
	PatientID       string    `bson:"patientId"`
	PatientName     string    `bson:"patientName"`
	PatientPhone    string    `bson:"patientPhone"`
	PatientEmail    string    `bson:"patientEmail"`
	AppointmentDate string    `bson:"appointmentDate"`
	Start           int       `bson:"start"`
	End             int       `bson:"end"`
	Specialization  string    `bson:"specialization"`
	AppointmentType string    `bson:"appointmentType"`
	Problem         string    `bson:"problem"`
	Status          string    `bson:"status"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

func toDoc(a *Appointment) appointmentDoc {
	return appointmentDoc{
		ID:              a.ID.String(),
		DoctorID:        a.DoctorID,
		DoctorName:      a.DoctorName,
		DoctorEmail:     a.DoctorEmail,
		PatientID:       a.PatientID,
		PatientName:     a.PatientName,
		PatientPhone:    a.PatientPhone,
		PatientEmail:    a.PatientEmail,
		AppointmentDate: a.AppointmentDate,
		Start:           a.TimeSlot.Start,
		End:             a.TimeSlot.End,
		Specialization:  a.Specialization,
		AppointmentType: a.AppointmentType,
		Problem:         a.Problem,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (d appointmentDoc) toAppointment() (*Appointment, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("appointment document %q: %w", d.ID, err)
	}
	status, err := booking.ParseStatus(d.Status)
	if err != nil {
		return nil, fmt.Errorf("appointment document %q: %w", d.ID, err)
	}
	return &Appointment{
		Record:          booking.Record{ID: id, Status: status, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		DoctorID:        d.DoctorID,
		DoctorName:      d.DoctorName,
		DoctorEmail:     d.DoctorEmail,
		PatientID:       d.PatientID,
		PatientName:     d.PatientName,
		PatientPhone:    d.PatientPhone,
		PatientEmail:    d.PatientEmail,
		AppointmentDate: d.AppointmentDate,
		TimeSlot:        schedule.TimeSlot{Start: d.Start, End: d.End},
		Specialization:  d.Specialization,
		AppointmentType: d.AppointmentType,
		Problem:         d.Problem,
	}, nil
}

type MongoRepo struct {
	coll  *mongo.Collection
	guard *resilience.Guard
}

func NewRepoMongo(db *mongo.Database, guard *resilience.Guard) *MongoRepo {
	return &MongoRepo{coll: db.Collection(CollectionName), guard: guard}
}

func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "appointmentDate", Value: 1}, {Key: "start", Value: 1}}},
		{Keys: bson.D{{Key: "doctorEmail", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create %s indexes: %w", CollectionName, err)
	}
	return nil
}

func (r *MongoRepo) Create(ctx context.Context, a *Appointment) error {
	return r.guard.Do(ctx, "appointments.create", func(ctx context.Context) error {
		now := time.Now().UTC().Truncate(time.Millisecond)
		a.ID = uuid.New()
		a.Status = booking.StatusPending
		a.CreatedAt, a.UpdatedAt = now, now
		_, err := r.coll.InsertOne(ctx, toDoc(a))
		return err
	})
}

func (r *MongoRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var out *Appointment
	err := r.guard.Do(ctx, "appointments.get", func(ctx context.Context) error {
		var doc appointmentDoc
		err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("appointment %s: %w", id, booking.ErrNotFound)
		}
		if err != nil {
			return err
		}
		out, err = doc.toAppointment()
		return err
	})
	return out, err
}

func (r *MongoRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to booking.Status) (*Appointment, error) {
	var out *Appointment
	err := r.guard.Do(ctx, "appointments.update_status", func(ctx context.Context) error {
		var doc appointmentDoc
		err := r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": id.String(), "status": string(from)},
			bson.M{"$set": bson.M{"status": string(to), "updatedAt": time.Now().UTC()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id.String()}, options.Count().SetLimit(1))
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("appointment %s: %w", id, booking.ErrNotFound)
			}
			return fmt.Errorf("appointment %s: %w", id, booking.ErrConflict)
		}
		if err != nil {
			return err
		}
		out, err = doc.toAppointment()
		return err
	})
	return out, err
}

func mongoFilter(f Filter) bson.M {
	q := bson.M{}
	if f.DoctorID != "" {
		q["doctorId"] = f.DoctorID
	}
	if f.DoctorEmail != "" {
		q["doctorEmail"] = strings.ToLower(f.DoctorEmail)
	}
	if f.PatientID != "" {
		q["patientId"] = f.PatientID
	}
	if f.Status != "" {
		q["status"] = string(f.Status)
	}
	if f.Specialization != "" {
		q["specialization"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Specialization), Options: "i"}
	}
	if f.AppointmentDate != "" {
		q["appointmentDate"] = f.AppointmentDate
	}
	return q
}

func (r *MongoRepo) List(ctx context.Context, f Filter, page pagination.Params) ([]*Appointment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "appointmentDate", Value: 1}, {Key: "start", Value: 1}, {Key: "createdAt", Value: 1}}).
		SetSkip(int64(page.Offset)).
		SetLimit(int64(page.Limit))

	var out []*Appointment
	err := r.guard.Do(ctx, "appointments.list", func(ctx context.Context) error {
		cur, err := r.coll.Find(ctx, mongoFilter(f), opts)
		if err != nil {
			return err
		}
		var docs []appointmentDoc
		if err := cur.All(ctx, &docs); err != nil {
			return err
		}
		out = make([]*Appointment, 0, len(docs))
		for _, d := range docs {
			a, err := d.toAppointment()
			if err != nil {
				return err
			}
			out = append(out, a)
		}
		return nil
	})
	return out, err
}
