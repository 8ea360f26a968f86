package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/lock"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/vacancy"
)

func submission(address string) vacancy.Submission {
	return vacancy.Submission{
		ReporterName:  "Mia",
		ReporterEmail: "Mia@Example.org",
		Address:       address,
		City:          "Berlin",
		PostalCode:    "10999",
	}
}

func TestVacancyService_RewardOncePerAddress(t *testing.T) {
	env := newEnv(t)
	admin := as(newAdmin())
	reporter := newTenant()

	first, err := env.vacancy.Submit(as(reporter), submission("Oranienstraße 12"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if first.ReporterID == nil || *first.ReporterID != reporter.ID {
		t.Fatalf("reporter not taken from the caller: %+v", first.ReporterID)
	}
	// анонимная наводка на тот же адрес в другом написании
	second, err := env.vacancy.Submit(context.Background(), submission("Oranienstr. 12"))
	if err != nil {
		t.Fatalf("Submit anonymous: %v", err)
	}
	if second.ReporterID != nil {
		t.Fatalf("anonymous report got reporter %v", second.ReporterID)
	}

	verify := func(id uuid.UUID) *model.VacancyReport {
		if _, err := env.vacancy.Review(admin, id, ReviewRequest{To: model.VacancyStatusUnderReview}); err != nil {
			t.Fatalf("review: %v", err)
		}
		r, err := env.vacancy.Review(admin, id, ReviewRequest{To: model.VacancyStatusVerified, Note: "visited"})
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		return r
	}

	v1 := verify(first.ID)
	if v1.RewardStatus != model.RewardStatusEligible || v1.RewardAmount != 5000 {
		t.Fatalf("first report reward %s/%d", v1.RewardStatus, v1.RewardAmount)
	}
	v2 := verify(second.ID)
	if v2.RewardStatus != model.RewardStatusNotEligible {
		t.Fatalf("second report reward %s, want not_eligible", v2.RewardStatus)
	}

	if _, err := env.vacancy.PayReward(as(reporter), first.ID); !errors.Is(err, vacancy.ErrUnauthorized) {
		t.Fatalf("reporter paying: expected ErrUnauthorized, got %v", err)
	}
	paid, err := env.vacancy.PayReward(admin, first.ID)
	if err != nil {
		t.Fatalf("PayReward: %v", err)
	}
	if paid.RewardStatus != model.RewardStatusPaid || paid.RewardPaidAt == nil {
		t.Fatalf("unexpected paid report %+v", paid)
	}
	if _, err := env.vacancy.PayReward(admin, second.ID); err == nil {
		t.Fatalf("expected not_eligible report to refuse payment")
	}

	page, err := env.vacancy.List(admin, model.VacancyStatusVerified, 1, 10)
	if err != nil || page.Total != 2 {
		t.Fatalf("List: %+v, %v", page, err)
	}
	if _, err := env.vacancy.List(as(reporter), "", 1, 10); !errors.Is(err, booking.ErrUnauthorized) {
		t.Fatalf("non-admin list: expected ErrUnauthorized, got %v", err)
	}
}

func TestVacancyService_Conversion(t *testing.T) {
	env := newEnv(t)
	admin := as(newAdmin())
	space := env.seedSpace(t, newLandlord(), nil)

	r, err := env.vacancy.Submit(context.Background(), submission("Skalitzer Str. 1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := env.vacancy.Review(admin, r.ID, ReviewRequest{To: model.VacancyStatusVerified}); !errors.Is(err, vacancy.ErrIllegalTransition) {
		t.Fatalf("skip review: expected ErrIllegalTransition, got %v", err)
	}
	if _, err := env.vacancy.Review(as(newTenant()), r.ID, ReviewRequest{To: model.VacancyStatusUnderReview}); !errors.Is(err, vacancy.ErrUnauthorized) {
		t.Fatalf("tenant review: expected ErrUnauthorized, got %v", err)
	}

	for _, to := range []model.VacancyStatus{model.VacancyStatusUnderReview, model.VacancyStatusVerified} {
		if _, err := env.vacancy.Review(admin, r.ID, ReviewRequest{To: to}); err != nil {
			t.Fatalf("review to %s: %v", to, err)
		}
	}

	missing := uuid.New()
	if _, err := env.vacancy.Review(admin, r.ID, ReviewRequest{To: model.VacancyStatusConvertedToSpace, SpaceID: &missing}); err == nil {
		t.Fatalf("expected unknown space to be refused")
	}
	converted, err := env.vacancy.Review(admin, r.ID, ReviewRequest{To: model.VacancyStatusConvertedToSpace, SpaceID: &space.ID})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if converted.Status != model.VacancyStatusConvertedToSpace || converted.SpaceID == nil || *converted.SpaceID != space.ID {
		t.Fatalf("unexpected conversion %+v", converted)
	}
}

func TestVacancyService_PayRewardSerializedWithReview(t *testing.T) {
	env := newEnv(t)
	admin := as(newAdmin())
	space := env.seedSpace(t, newLandlord(), nil)

	r, err := env.vacancy.Submit(context.Background(), submission("Wiener Str. 5"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	for _, to := range []model.VacancyStatus{model.VacancyStatusUnderReview, model.VacancyStatusVerified} {
		if _, err := env.vacancy.Review(admin, r.ID, ReviewRequest{To: to}); err != nil {
			t.Fatalf("review to %s: %v", to, err)
		}
	}

	// пока по адресу идёт проверка, выплата ждёт
	unlock, err := env.locker.Lock(context.Background(), "address:"+r.AddressKey)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	ctx, cancel := context.WithTimeout(admin, 20*time.Millisecond)
	_, err = env.vacancy.PayReward(ctx, r.ID)
	cancel()
	if !errors.Is(err, lock.ErrNotAcquired) {
		t.Fatalf("pay under review lock: expected ErrNotAcquired, got %v", err)
	}
	unlock()

	if _, err := env.vacancy.PayReward(admin, r.ID); err != nil {
		t.Fatalf("PayReward: %v", err)
	}
	converted, err := env.vacancy.Review(admin, r.ID, ReviewRequest{To: model.VacancyStatusConvertedToSpace, SpaceID: &space.ID})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if converted.RewardStatus != model.RewardStatusPaid {
		t.Fatalf("conversion reset reward to %s", converted.RewardStatus)
	}
	if _, err := env.vacancy.PayReward(admin, r.ID); !errors.Is(err, vacancy.ErrIllegalTransition) {
		t.Fatalf("second payment: expected ErrIllegalTransition, got %v", err)
	}
}
