package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/platform/mongodb"
	"github.com/medconnect/medconnect/internal/platform/resilience"
)

const CollectionName = "doctor_schedules"

// Documents keep days and slots as nested arrays. Each slot stores remaining
// next to booked so a filter can test availability without $expr.
type scheduleDoc struct {
	DoctorID    string    `bson:"doctorId"`
	DoctorEmail string    `bson:"doctorEmail"`
	DoctorName  string    `bson:"doctorName"`
	Days        []dayDoc  `bson:"days"`
	Version     int64     `bson:"version"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

type dayDoc struct {
	Date    string    `bson:"date"`
	Weekday string    `bson:"weekday"`
	Slots   []slotDoc `bson:"slots"`
}

type slotDoc struct {
	Start     int `bson:"start"`
	End       int `bson:"end"`
	Capacity  int `bson:"capacity"`
	Booked    int `bson:"booked"`
	Remaining int `bson:"remaining"`
}

func toDoc(s *DoctorSchedule, version int64) scheduleDoc {
	doc := scheduleDoc{
		DoctorID:    s.DoctorID,
		DoctorEmail: s.DoctorEmail,
		DoctorName:  s.DoctorName,
		Days:        make([]dayDoc, 0, len(s.Days)),
		Version:     version,
		UpdatedAt:   s.UpdatedAt,
	}
	for _, d := range s.Days {
		dd := dayDoc{Date: d.Date, Weekday: d.Weekday, Slots: make([]slotDoc, 0, len(d.Slots))}
		for _, sl := range d.Slots {
			dd.Slots = append(dd.Slots, slotDoc{
				Start: sl.Start, End: sl.End,
				Capacity: sl.Capacity, Booked: sl.Booked, Remaining: sl.Remaining(),
			})
		}
		doc.Days = append(doc.Days, dd)
	}
	return doc
}

func (doc scheduleDoc) toSchedule() *DoctorSchedule {
	s := &DoctorSchedule{
		DoctorID:    doc.DoctorID,
		DoctorEmail: doc.DoctorEmail,
		DoctorName:  doc.DoctorName,
		Days:        make([]Day, 0, len(doc.Days)),
		UpdatedAt:   doc.UpdatedAt,
	}
	for _, dd := range doc.Days {
		d := Day{Date: dd.Date, Weekday: dd.Weekday, Slots: make([]Slot, 0, len(dd.Slots))}
		for _, sd := range dd.Slots {
			d.Slots = append(d.Slots, Slot{TimeSlot: TimeSlot{Start: sd.Start, End: sd.End}, Capacity: sd.Capacity, Booked: sd.Booked})
		}
		s.Days = append(s.Days, d)
	}
	return s
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
		{Keys: bson.D{{Key: "doctorId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "doctorEmail", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create %s indexes: %w", CollectionName, err)
	}
	return nil
}

func (r *MongoRepo) Get(ctx context.Context, doctorID string) (*DoctorSchedule, error) {
	var out *DoctorSchedule
	err := r.guard.Do(ctx, "schedules.get", func(ctx context.Context) error {
		doc, err := r.find(ctx, doctorID)
		if err != nil {
			return err
		}
		out = doc.toSchedule()
		return nil
	})
	return out, err
}

func (r *MongoRepo) find(ctx context.Context, doctorID string) (*scheduleDoc, error) {
	var doc scheduleDoc
	err := r.coll.FindOne(ctx, bson.M{"doctorId": doctorID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("schedule for doctor %s: %w", doctorID, booking.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

const replaceAttempts = 3

// Replace uses the document version for optimistic concurrency. Reserve and
// Release bump the version, so a replace that read stale booked counts is
// retried rather than overwriting them.
func (r *MongoRepo) Replace(ctx context.Context, s *DoctorSchedule) (*DoctorSchedule, error) {
	err := r.guard.Do(ctx, "schedules.replace", func(ctx context.Context) error {
		for attempt := 0; attempt < replaceAttempts; attempt++ {
			prev, err := r.find(ctx, s.DoctorID)
			if err != nil && !errors.Is(err, booking.ErrNotFound) {
				return err
			}

			s.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
			if prev == nil {
				if _, err := r.coll.InsertOne(ctx, toDoc(s, 1)); err != nil {
					if mongodb.IsDuplicateKey(err) {
						continue
					}
					return err
				}
				return nil
			}

			CarryBookings(prev.toSchedule(), s)
			res, err := r.coll.ReplaceOne(ctx,
				bson.M{"doctorId": s.DoctorID, "version": prev.Version},
				toDoc(s, prev.Version+1))
			if err != nil {
				return err
			}
			if res.MatchedCount == 1 {
				return nil
			}
		}
		return fmt.Errorf("replace schedule for %s: %w", s.DoctorID, booking.ErrConflict)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func slotFilter(doctorID, date string, ts TimeSlot, extra bson.M) bson.M {
	slot := bson.M{"start": ts.Start, "end": ts.End}
	for k, v := range extra {
		slot[k] = v
	}
	return bson.M{
		"doctorId": doctorID,
		"days": bson.M{"$elemMatch": bson.M{
			"date":  date,
			"slots": bson.M{"$elemMatch": slot},
		}},
	}
}

func (r *MongoRepo) adjust(ctx context.Context, doctorID, date string, ts TimeSlot, guard bson.M, delta int) (bool, error) {
	update := bson.M{
		"$inc": bson.M{
			"days.$[d].slots.$[s].booked":    delta,
			"days.$[d].slots.$[s].remaining": -delta,
			"version":                        1,
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	slotMatch := bson.M{"s.start": ts.Start, "s.end": ts.End}
	for k, v := range guard {
		slotMatch["s."+k] = v
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"d.date": date}, slotMatch},
	})

	res, err := r.coll.UpdateOne(ctx, slotFilter(doctorID, date, ts, guard), update, opts)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoRepo) slotExists(ctx context.Context, doctorID, date string, ts TimeSlot) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, slotFilter(doctorID, date, ts, nil), options.Count().SetLimit(1))
	return n > 0, err
}

func (r *MongoRepo) Reserve(ctx context.Context, doctorID, date string, ts TimeSlot) error {
	return r.guard.Do(ctx, "schedules.reserve", func(ctx context.Context) error {
		ok, err := r.adjust(ctx, doctorID, date, ts, bson.M{"remaining": bson.M{"$gt": 0}}, 1)
		if err != nil || ok {
			return err
		}
		exists, err := r.slotExists(ctx, doctorID, date, ts)
		if err != nil {
			return err
		}
		if exists {
			return booking.ErrSlotUnavailable
		}
		return booking.ErrScheduleNotFound
	})
}

func (r *MongoRepo) Release(ctx context.Context, doctorID, date string, ts TimeSlot) error {
	return r.guard.Do(ctx, "schedules.release", func(ctx context.Context) error {
		ok, err := r.adjust(ctx, doctorID, date, ts, bson.M{"booked": bson.M{"$gt": 0}}, -1)
		if err != nil || ok {
			return err
		}
		exists, err := r.slotExists(ctx, doctorID, date, ts)
		if err != nil {
			return err
		}
		if !exists {
			return booking.ErrScheduleNotFound
		}
		return nil
	})
}
