package docstore

import (
	"context"
	"testing"
	"time"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := doc{Name: "alpha", Count: 3}
	if err := s.Put(ctx, "things", "a", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var got doc
	storedAt, err := s.Get(ctx, "things", "a", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
	if storedAt.IsZero() {
		t.Error("Get() returned a zero stored-at time")
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	var got doc
	if _, err := s.Get(context.Background(), "things", "missing", &got); err != ErrNoDocument {
		t.Errorf("Get() error = %v, want ErrNoDocument", err)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "things", "a", doc{Name: "old"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(ctx, "things", "a", doc{Name: "new"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var got doc
	if _, err := s.Get(ctx, "things", "a", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "new" {
		t.Errorf("Get() after overwrite = %+v, want the newer document", got)
	}
}

func TestKindsAreIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "sprints", "1", doc{Name: "sprint"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var got doc
	if _, err := s.Get(ctx, "defects", "1", &got); err != ErrNoDocument {
		t.Errorf("Get() across kinds error = %v, want ErrNoDocument", err)
	}
}

func TestGetFresh(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "things", "a", doc{Name: "alpha"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var got doc
	if err := s.GetFresh(ctx, "things", "a", time.Hour, &got); err != nil {
		t.Errorf("GetFresh() within ttl error = %v", err)
	}
	if err := s.GetFresh(ctx, "things", "a", time.Nanosecond, &got); err != ErrNoDocument {
		t.Errorf("GetFresh() past ttl error = %v, want ErrNoDocument", err)
	}
	if err := s.GetFresh(ctx, "things", "a", 0, &got); err != nil {
		t.Errorf("GetFresh() with zero ttl error = %v, want any age accepted", err)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "things", "a", doc{Name: "alpha"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Delete(ctx, "things", "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var got doc
	if _, err := s.Get(ctx, "things", "a", &got); err != ErrNoDocument {
		t.Errorf("Get() after delete error = %v, want ErrNoDocument", err)
	}

	if err := s.Delete(ctx, "things", "a"); err != nil {
		t.Errorf("Delete() of missing key error = %v, want nil", err)
	}
}
