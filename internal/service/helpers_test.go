package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/contract"
	"github.com/spacefindr/core/internal/lock"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/notify"
	"github.com/spacefindr/core/internal/payment"
	"github.com/spacefindr/core/internal/repository"
)

type published struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *published) Publish(ev notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *published) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.FromStatus + ">" + ev.ToStatus
	}
	return out
}

type testEnv struct {
	db       *gorm.DB
	clock    *booking.FixedClock
	gateway  *payment.FakeGateway
	notes    *published
	spaces   *repository.GormSpaceRepository
	bookings *repository.GormBookingRepository
	events   *repository.GormEventRepository

	booking   *BookingService
	space     *SpaceService
	vacancy   *VacancyService
	contract  *ContractService
	identity  *IdentityService
	documents *contract.MemoryStore
	locker    *lock.LocalLocker
}

var start = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{
		db:        db,
		clock:     &booking.FixedClock{T: start},
		gateway:   payment.NewFakeGateway(),
		notes:     &published{},
		spaces:    repository.NewGormSpaceRepository(db),
		bookings:  repository.NewGormBookingRepository(db),
		events:    repository.NewGormEventRepository(db),
		documents: contract.NewMemoryStore(),
	}
	locker := lock.NewLocalLocker()
	env.locker = locker
	engine := booking.NewEngine(env.clock, time.UTC)

	env.booking = NewBookingService(engine, env.spaces, env.bookings, env.events, locker, env.gateway, env.notes)
	env.space = NewSpaceService(env.spaces)
	env.identity = NewIdentityService(repository.NewGormUserRepository(db))
	env.vacancy = NewVacancyService(repository.NewGormVacancyRepository(db), env.spaces, locker, env.clock, 5000)
	env.contract = NewContractService(
		env.bookings,
		env.spaces,
		repository.NewGormContractRepository(db),
		env.identity,
		contract.NewRenderer(),
		env.documents,
		locker,
		env.clock,
	)
	return env
}

func as(a booking.Actor) context.Context {
	return booking.WithActor(context.Background(), a)
}

func newTenant() booking.Actor   { return booking.Actor{ID: uuid.New(), Role: model.RoleTenant} }
func newLandlord() booking.Actor { return booking.Actor{ID: uuid.New(), Role: model.RoleLandlord} }
func newAdmin() booking.Actor    { return booking.Actor{ID: uuid.New(), Role: model.RoleAdmin} }

// seedSpace: 100/день, moderate, 1..365 дней.
func (env *testEnv) seedSpace(t *testing.T, owner booking.Actor, mutate func(*model.Space)) *model.Space {
	t.Helper()
	space := &model.Space{
		OwnerID:            owner.ID,
		Title:              "Loft",
		Address:            "Oranienstr. 12",
		City:               "Berlin",
		PostalCode:         "10999",
		PricePerDay:        100,
		SizeSqm:            80,
		Category:           model.SpaceCategoryOffice,
		MinRentalDays:      1,
		MaxRentalDays:      365,
		CancellationPolicy: model.CancellationModerate,
		IsActive:           true,
	}
	if mutate != nil {
		mutate(space)
	}
	if err := env.spaces.Create(context.Background(), space); err != nil {
		t.Fatalf("create space: %v", err)
	}
	return space
}

func day(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }
