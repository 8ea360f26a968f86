package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/contract"
	"github.com/spacefindr/core/internal/lock"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/repository"
)

func TestContractService_GenerateRegenerateFinalize(t *testing.T) {
	env := newEnv(t)
	owner := newLandlord()
	tenant := newTenant()
	space := env.seedSpace(t, owner, nil)

	if _, err := env.identity.SyncProfile(as(tenant), "Jonas Weber", "jonas@example.org", "+49 30 1234"); err != nil {
		t.Fatalf("SyncProfile: %v", err)
	}

	b, _, err := env.booking.RequestBooking(as(tenant), space.ID, booking.Request{Start: day(10), End: day(12)})
	if err != nil {
		t.Fatalf("RequestBooking: %v", err)
	}
	if _, err := env.contract.Generate(as(tenant), b.ID); !errors.Is(err, contract.ErrNotContractable) {
		t.Fatalf("requested booking: expected ErrNotContractable, got %v", err)
	}
	if _, err := env.booking.Confirm(as(owner), b.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	c, err := env.contract.Generate(as(tenant), b.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if c.Revision != 1 || c.Status != model.ContractStatusDraft || c.DocumentKey != contract.DocumentKey(b.ID, 1) {
		t.Fatalf("unexpected contract %+v", c)
	}

	_, doc, err := env.contract.Document(as(owner), b.ID)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	for _, want := range []string{"Jonas Weber", "Loft", "3.30"} {
		if !strings.Contains(string(doc), want) {
			t.Fatalf("document misses %q", want)
		}
	}

	if _, err := env.contract.Generate(as(newTenant()), b.ID); !errors.Is(err, booking.ErrUnauthorized) {
		t.Fatalf("stranger: expected ErrUnauthorized, got %v", err)
	}

	c, err = env.contract.Generate(as(owner), b.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if c.Revision != 2 {
		t.Fatalf("revision = %d, want 2", c.Revision)
	}

	if _, err := env.contract.Finalize(as(tenant), b.ID); !errors.Is(err, booking.ErrUnauthorized) {
		t.Fatalf("tenant finalize: expected ErrUnauthorized, got %v", err)
	}
	final, err := env.contract.Finalize(as(owner), b.ID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if final.Status != model.ContractStatusFinalized || final.FinalizedAt == nil {
		t.Fatalf("unexpected finalized contract %+v", final)
	}
	if _, err := env.contract.Generate(as(owner), b.ID); !errors.Is(err, contract.ErrFinalized) {
		t.Fatalf("regenerate finalized: expected ErrFinalized, got %v", err)
	}
	if _, err := env.contract.Finalize(as(owner), b.ID); !errors.Is(err, contract.ErrFinalized) {
		t.Fatalf("finalize twice: expected ErrFinalized, got %v", err)
	}

	var events []model.Event
	if err := env.db.Where("booking_id = ? AND event_type IN ?", b.ID, []model.EventType{model.EventTypeContractGenerated, model.EventTypeContractFinalized}).Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("contract events = %d, want 3", len(events))
	}
}

// putHook вызывает onPut, когда документ уже отрендерен, а договор ещё не сохранён.
type putHook struct {
	*contract.MemoryStore
	onPut func()
}

func (s *putHook) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if s.onPut != nil {
		s.onPut()
	}
	return s.MemoryStore.Put(ctx, key, body, contentType)
}

func TestContractService_FinalizeWaitsForGeneration(t *testing.T) {
	env := newEnv(t)
	owner := newLandlord()
	tenant := newTenant()
	space := env.seedSpace(t, owner, func(s *model.Space) { s.InstantBooking = true })

	store := &putHook{MemoryStore: env.documents}
	svc := NewContractService(env.bookings, env.spaces, repository.NewGormContractRepository(env.db),
		env.identity, contract.NewRenderer(), store, env.locker, env.clock)

	b, _, err := env.booking.RequestBooking(as(tenant), space.ID, booking.Request{Start: day(10), End: day(12)})
	if err != nil {
		t.Fatalf("RequestBooking: %v", err)
	}
	if _, err := svc.Generate(as(tenant), b.ID); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var finalizeErr error
	store.onPut = func() {
		ctx, cancel := context.WithTimeout(as(owner), 20*time.Millisecond)
		defer cancel()
		_, finalizeErr = svc.Finalize(ctx, b.ID)
	}
	regenerated, err := svc.Generate(as(tenant), b.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if !errors.Is(finalizeErr, lock.ErrNotAcquired) {
		t.Fatalf("finalize during generation: expected ErrNotAcquired, got %v", finalizeErr)
	}
	if regenerated.Revision != 2 || regenerated.Status != model.ContractStatusDraft {
		t.Fatalf("unexpected regenerated contract %+v", regenerated)
	}

	store.onPut = nil
	final, err := svc.Finalize(as(owner), b.ID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if final.Revision != 2 || final.Status != model.ContractStatusFinalized {
		t.Fatalf("unexpected final contract %+v", final)
	}
	if _, err := svc.Generate(as(tenant), b.ID); !errors.Is(err, contract.ErrFinalized) {
		t.Fatalf("regenerate finalized: expected ErrFinalized, got %v", err)
	}
}
