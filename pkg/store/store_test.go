package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/linkgraph/pkg/observability"
)

type countingHooks struct {
	observability.NoopStoreHooks
	hits, misses, sets int
}

func (h *countingHooks) OnStoreHit(context.Context, string) { h.hits++ }
func (h *countingHooks) OnStoreMiss(context.Context, string) { h.misses++ }
func (h *countingHooks) OnStoreSet(context.Context, string, int) { h.sets++ }

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	s := NewNullStore()
	defer s.Close()

	if err := s.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, ok, err := s.Get(ctx, "key")
	if err != nil || ok || data != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, ok, err)
	}
	if err := s.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer s.Close()

	if _, ok, _ := s.Get(ctx, "missing"); ok {
		t.Error("Get of a missing key hit")
	}
	if err := s.Set(ctx, "snapshot:a", []byte(`{"nodes":[]}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, ok, err := s.Get(ctx, "snapshot:a")
	if err != nil || !ok || string(data) != `{"nodes":[]}` {
		t.Errorf("Get = %q, %v, %v", data, ok, err)
	}

	if err := s.Set(ctx, "snapshot:a", []byte("v2"), time.Hour); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if data, _, _ := s.Get(ctx, "snapshot:a"); string(data) != "v2" {
		t.Errorf("Get after overwrite = %q", data)
	}

	if err := s.Delete(ctx, "snapshot:a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "snapshot:a"); ok {
		t.Error("Get after Delete hit")
	}
	if err := s.Delete(ctx, "snapshot:a"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatal("entry expired early")
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("expired entry still served")
	}
	if _, err := os.Stat(s.path("k")); !os.IsNotExist(err) {
		t.Errorf("expired entry not removed: %v", err)
	}
}

func TestFileStoreCorruptEntry(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.path("k"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.Get(ctx, "k"); ok || err != nil {
		t.Errorf("corrupt entry: ok=%v err=%v, want a clean miss", ok, err)
	}
}

func TestStoreHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetStoreHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, _, _ = s.Get(ctx, "k")
	_ = s.Set(ctx, "k", []byte("v"), 0)
	_, _, _ = s.Get(ctx, "k")

	if hooks.misses != 1 || hooks.sets != 1 || hooks.hits != 1 {
		t.Errorf("hooks = %d hits, %d misses, %d sets", hooks.hits, hooks.misses, hooks.sets)
	}
}

func TestKeyers(t *testing.T) {
	k := NewDefaultKeyer()
	if got := k.SnapshotKey("d1"); got != "snapshot:d1" {
		t.Errorf("SnapshotKey = %q", got)
	}
	a1 := k.ArtifactKey("hash", "svg")
	a2 := k.ArtifactKey("hash", "json")
	if a1 == a2 {
		t.Error("artifact keys ignore the format")
	}
	if a1 != k.ArtifactKey("hash", "svg") {
		t.Error("ArtifactKey is not deterministic")
	}

	scoped := NewScopedKeyer(nil, "tenant:")
	if got := scoped.SnapshotKey("d1"); got != "tenant:snapshot:d1" {
		t.Errorf("scoped SnapshotKey = %q", got)
	}
	if got := scoped.ArtifactKey("hash", "svg"); got != "tenant:"+a1 {
		t.Errorf("scoped ArtifactKey = %q", got)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash is not deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs hash alike")
	}
	if len(h1) != 64 {
		t.Errorf("len(Hash) = %d, want 64", len(h1))
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"null", Options{Backend: "null"}, false},
		{"default", Options{}, false},
		{"file", Options{Backend: "file", Dir: t.TempDir()}, false},
		{"file without dir", Options{Backend: "file"}, true},
		{"unknown", Options{Backend: "s3"}, true},
		{"bad redis url", Options{Backend: "redis", URL: "http://nope"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}

// TestRedisStore runs against a live server named by LINKGRAPH_REDIS_URL.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("LINKGRAPH_REDIS_URL")
	if url == "" {
		t.Skip("LINKGRAPH_REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := NewRedisStore(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()

	key := "linkgraph-test:" + t.Name()
	t.Cleanup(func() { _ = s.Delete(context.Background(), key) })
	if err := s.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data, ok, err := s.Get(ctx, key); err != nil || !ok || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, ok, err)
	}
}

// TestMongoStore runs against a live server named by LINKGRAPH_MONGO_URL.
func TestMongoStore(t *testing.T) {
	url := os.Getenv("LINKGRAPH_MONGO_URL")
	if url == "" {
		t.Skip("LINKGRAPH_MONGO_URL not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, url, "linkgraph_test", "snapshots")
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer s.Close()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data, ok, err := s.Get(ctx, "k"); err != nil || !ok || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, ok, err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}
