package doctor

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
	"github.com/medconnect/medconnect/internal/platform/mongodb"
	"github.com/medconnect/medconnect/internal/platform/resilience"
	"github.com/medconnect/medconnect/pkg/pagination"
)

const CollectionName = "doctors"

// doctorDoc keeps the variant fields in their written shape, so hospital may
// be a string or a {name, id} sub-document in the same collection.
type doctorDoc struct {
	ID             string          `bson:"_id"`
	Name           string          `bson:"name"`
	Email          string          `bson:"email"`
	Specialization string          `bson:"specialization"`
	Gender         string          `bson:"gender,omitempty"`
	Hospital       HospitalRef     `bson:"hospital"`
	Education      []Qualification `bson:"education,omitempty"`
	Experience     Experience      `bson:"experience"`
	Fee            float64         `bson:"fee,omitempty"`
	CreatedAt      time.Time       `bson:"createdAt"`
}

func (d doctorDoc) toDoctor() (*Doctor, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("doctor document %q: %w", d.ID, err)
	}
	return &Doctor{
		ID:             id,
		Name:           d.Name,
		Email:          d.Email,
		Specialization: d.Specialization,
		Gender:         d.Gender,
		Hospital:       d.Hospital,
		Education:      d.Education,
		Experience:     d.Experience,
		Fee:            d.Fee,
		CreatedAt:      d.CreatedAt,
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
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "specialization", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create %s indexes: %w", CollectionName, err)
	}
	return nil
}

func (r *MongoRepo) Create(ctx context.Context, d *Doctor) error {
	return r.guard.Do(ctx, "doctors.create", func(ctx context.Context) error {
		d.ID = uuid.New()
		d.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
		_, err := r.coll.InsertOne(ctx, doctorDoc{
			ID:             d.ID.String(),
			Name:           d.Name,
			Email:          d.Email,
			Specialization: d.Specialization,
			Gender:         d.Gender,
			Hospital:       d.Hospital,
			Education:      d.Education,
			Experience:     d.Experience,
			Fee:            d.Fee,
			CreatedAt:      d.CreatedAt,
		})
		if mongodb.IsDuplicateKey(err) {
			return fmt.Errorf("doctor %s: %w", d.Email, booking.ErrConflict)
		}
		return err
	})
}

func (r *MongoRepo) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var out *Doctor
	err := r.guard.Do(ctx, "doctors.get", func(ctx context.Context) error {
		var doc doctorDoc
		err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("doctor %s: %w", id, booking.ErrNotFound)
		}
		if err != nil {
			return err
		}
		out, err = doc.toDoctor()
		return err
	})
	return out, err
}

func ciRegex(s string, exact bool) primitive.Regex {
	p := regexp.QuoteMeta(s)
	if exact {
		p = "^" + p + "$"
	}
	return primitive.Regex{Pattern: p, Options: "i"}
}

func mongoFilter(f Filter) bson.M {
	q := bson.M{}
	if f.Email != "" {
		q["email"] = strings.ToLower(f.Email)
	}
	if f.Gender != "" {
		q["gender"] = ciRegex(f.Gender, true)
	}
	if f.Specialization != "" {
		q["specialization"] = ciRegex(f.Specialization, false)
	}
	if f.Hospital != "" {
		re := ciRegex(f.Hospital, false)
		q["$or"] = bson.A{bson.M{"hospital": re}, bson.M{"hospital.name": re}}
	}
	return q
}

func (r *MongoRepo) List(ctx context.Context, f Filter, page pagination.Params) ([]*Doctor, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(page.Offset)).
		SetLimit(int64(page.Limit))

	var out []*Doctor
	err := r.guard.Do(ctx, "doctors.list", func(ctx context.Context) error {
		cur, err := r.coll.Find(ctx, mongoFilter(f), opts)
		if err != nil {
			return err
		}
		var docs []doctorDoc
		if err := cur.All(ctx, &docs); err != nil {
			return err
		}
		out = make([]*Doctor, 0, len(docs))
		for _, d := range docs {
			doc, err := d.toDoctor()
			if err != nil {
				return err
			}
			out = append(out, doc)
		}
		return nil
	})
	return out, err
}
