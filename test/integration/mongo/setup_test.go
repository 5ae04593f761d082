// Package mongoit runs the MongoDB repositories against a real server. Set
// TEST_MONGO_URI to enable it; without it the suite is skipped.
package mongoit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medconnect/medconnect/internal/platform/mongodb"
	"github.com/medconnect/medconnect/internal/platform/resilience"
)

// testDB is a throwaway database dropped when the suite ends.
var testDB *mongo.Database

func TestMain(m *testing.M) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		fmt.Fprintln(os.Stderr, "skipping mongo integration tests: TEST_MONGO_URI not set")
		os.Exit(0)
	}

	ctx := context.Background()
	store, err := mongodb.Connect(ctx, uri, "it_"+uuid.New().String()[:8])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to mongo: %v\n", err)
		os.Exit(1)
	}
	testDB = store.DB

	code := m.Run()
	if err := testDB.Drop(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to drop %s: %v\n", testDB.Name(), err)
	}
	_ = store.Close(ctx)
	os.Exit(code)
}

func newGuard() *resilience.Guard {
	return resilience.NewGuard(resilience.GuardConfig{
		Name:      "mongo-it",
		Timeout:   10 * time.Second,
		Transient: mongodb.IsTransient,
	}, zerolog.Nop())
}

func uniqueDoctorID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}
