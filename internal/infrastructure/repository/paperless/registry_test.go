package paperless

import (
	"context"
	"errors"
	"testing"
)

type labelAPIFake struct {
	known       map[string]int
	nextID      int
	findCalls   int
	createCalls int
	findErr     error
}

func (f *labelAPIFake) FindLabel(_ context.Context, name string) (int, bool, error) {
	f.findCalls++
	if f.findErr != nil {
		return 0, false, f.findErr
	}
	id, ok := f.known[name]
	return id, ok, nil
}

func (f *labelAPIFake) CreateLabel(_ context.Context, name string) (int, error) {
	f.createCalls++
	f.nextID++
	if f.known == nil {
		f.known = make(map[string]int)
	}
	f.known[name] = f.nextID
	return f.nextID, nil
}

func TestRegistryResolvesExistingLabel(t *testing.T) {
	api := &labelAPIFake{known: map[string]int{"invoice": 4}}
	registry := NewRegistry(api)

	id, err := registry.IDFor(context.Background(), "invoice")
	if err != nil {
		t.Fatalf("IDFor() error = %v", err)
	}
	if id != 4 {
		t.Fatalf("id = %d, want 4", id)
	}
	if api.createCalls != 0 {
		t.Fatalf("created %d labels for an existing name", api.createCalls)
	}
}

func TestRegistryCreatesMissingLabelOnce(t *testing.T) {
	api := &labelAPIFake{nextID: 10}
	registry := NewRegistry(api)

	first, err := registry.IDFor(context.Background(), "forwarded")
	if err != nil {
		t.Fatalf("IDFor() error = %v", err)
	}
	second, err := registry.IDFor(context.Background(), "forwarded")
	if err != nil {
		t.Fatalf("IDFor() second call error = %v", err)
	}

	if first != second {
		t.Fatalf("ids differ across calls: %d vs %d", first, second)
	}
	if api.createCalls != 1 {
		t.Fatalf("createCalls = %d, want 1", api.createCalls)
	}
	if api.findCalls != 1 {
		t.Fatalf("findCalls = %d, want 1 cache hit on the second call", api.findCalls)
	}
}

func TestRegistryDoesNotCacheFailures(t *testing.T) {
	api := &labelAPIFake{findErr: errors.New("paperless down")}
	registry := NewRegistry(api)

	if _, err := registry.IDFor(context.Background(), "invoice"); err == nil {
		t.Fatal("expected lookup error")
	}

	api.findErr = nil
	api.known = map[string]int{"invoice": 2}
	id, err := registry.IDFor(context.Background(), "invoice")
	if err != nil {
		t.Fatalf("IDFor() after recovery error = %v", err)
	}
	if id != 2 {
		t.Fatalf("id = %d, want 2", id)
	}
}
