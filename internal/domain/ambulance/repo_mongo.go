package ambulance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/platform/resilience"
	"github.com/medconnect/medconnect/pkg/pagination"
)

const CollectionName = "ambulances"

type bookingDoc struct {
	ID            string    `bson:"_id"`
	FromLocation  string    `bson:"fromLocation"`
	Destination   string    `bson:"destination"`
	AmbulanceType string    `bson:"ambulanceType"`
	Date          string    `bson:"date"`
	Name          string    `bson:"name"`
	Phone         string    `bson:"phone"`
	RequestedBy   string    `bson:"requestedBy,omitempty"`
	Status        string    `bson:"status"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func (d bookingDoc) toBooking() (*Booking, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("ambulance document %q: %w", d.ID, err)
	}
	status, err := booking.ParseStatus(d.Status)
	if err != nil {
		return nil, fmt.Errorf("ambulance document %q: %w", d.ID, err)
	}
	return &Booking{
		Record:        booking.Record{ID: id, Status: status, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		FromLocation:  d.FromLocation,
		Destination:   d.Destination,
		AmbulanceType: d.AmbulanceType,
		Date:          d.Date,
		Name:          d.Name,
		Phone:         d.Phone,
		RequestedBy:   d.RequestedBy,
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
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create %s indexes: %w", CollectionName, err)
	}
	return nil
}

func (r *MongoRepo) Create(ctx context.Context, b *Booking) error {
	return r.guard.Do(ctx, "ambulances.create", func(ctx context.Context) error {
		now := time.Now().UTC().Truncate(time.Millisecond)
		b.ID = uuid.New()
		b.Status = booking.StatusPending
		b.CreatedAt, b.UpdatedAt = now, now
		_, err := r.coll.InsertOne(ctx, bookingDoc{
			ID:            b.ID.String(),
			FromLocation:  b.FromLocation,
			Destination:   b.Destination,
			AmbulanceType: b.AmbulanceType,
			Date:          b.Date,
			Name:          b.Name,
			Phone:         b.Phone,
			RequestedBy:   b.RequestedBy,
			Status:        string(b.Status),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		return err
	})
}

func (r *MongoRepo) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var out *Booking
	err := r.guard.Do(ctx, "ambulances.get", func(ctx context.Context) error {
		var doc bookingDoc
		err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("ambulance booking %s: %w", id, booking.ErrNotFound)
		}
		if err != nil {
			return err
		}
		out, err = doc.toBooking()
		return err
	})
	return out, err
}

func (r *MongoRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to booking.Status) (*Booking, error) {
	var out *Booking
	err := r.guard.Do(ctx, "ambulances.update_status", func(ctx context.Context) error {
		var doc bookingDoc
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
				return fmt.Errorf("ambulance booking %s: %w", id, booking.ErrNotFound)
			}
			return fmt.Errorf("ambulance booking %s: %w", id, booking.ErrConflict)
		}
		if err != nil {
			return err
		}
		out, err = doc.toBooking()
		return err
	})
	return out, err
}

func (r *MongoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.guard.Do(ctx, "ambulances.delete", func(ctx context.Context) error {
		res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return fmt.Errorf("ambulance booking %s: %w", id, booking.ErrNotFound)
		}
		return nil
	})
}

func (r *MongoRepo) List(ctx context.Context, f Filter, page pagination.Params) ([]*Booking, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = string(f.Status)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(page.Offset)).
		SetLimit(int64(page.Limit))

	var out []*Booking
	err := r.guard.Do(ctx, "ambulances.list", func(ctx context.Context) error {
		cur, err := r.coll.Find(ctx, q, opts)
		if err != nil {
			return err
		}
		var docs []bookingDoc
		if err := cur.All(ctx, &docs); err != nil {
			return err
		}
		out = make([]*Booking, 0, len(docs))
		for _, d := range docs {
			b, err := d.toBooking()
			if err != nil {
				return err
			}
			out = append(out, b)
		}
		return nil
	})
	return out, err
}
