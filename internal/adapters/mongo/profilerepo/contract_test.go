package profilerepo

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/contracttest"
	mongoadapter "github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/mongo"
	profilerepoport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/profilerepo"
)

func TestContract_MongoProfileRepo(t *testing.T) {
	uri := strings.TrimSpace(os.Getenv("MONGO_URI"))
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongoadapter.Connect(ctx, uri)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	db := client.Database("lawyer_directory_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	contracttest.RunProfileRepo(t, func(t *testing.T) (profilerepoport.Repository, func()) {
		t.Helper()
		repo, err := NewRepo(ctx, db)
		if err != nil {
			t.Fatalf("NewRepo: %v", err)
		}
		return repo, nil
	})
}
