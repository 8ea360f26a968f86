package spaces

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/model"
)

func validForm() Form {
	week := int64(600)
	return Form{
		Title:         "  Loft Kreuzberg ",
		Address:       "Oranienstr. 12",
		City:          "Berlin",
		PostalCode:    "10999",
		Latitude:      52.5,
		Longitude:     13.4,
		PricePerDay:   100,
		PricePerWeek:  &week,
		SizeSqm:       80,
		Category:      "office",
		Amenities:     []string{"WiFi", "wifi", " Parking ", ""},
		MinRentalDays: 2,
		MaxRentalDays: 30,
	}
}

func TestBuild_Valid(t *testing.T) {
	owner := uuid.New()
	space, err := validForm().Build(owner)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if space.OwnerID != owner || space.Title != "Loft Kreuzberg" || !space.IsActive {
		t.Fatalf("unexpected space %+v", space)
	}
	if space.CancellationPolicy != model.CancellationModerate {
		t.Fatalf("default policy = %s", space.CancellationPolicy)
	}
	var amenities []string
	if err := json.Unmarshal(space.Amenities, &amenities); err != nil {
		t.Fatalf("amenities: %v", err)
	}
	if len(amenities) != 2 || amenities[0] != "parking" || amenities[1] != "wifi" {
		t.Fatalf("amenities = %v", amenities)
	}
	if space.EffectiveDeposit() != 0 {
		t.Fatalf("deposit without requirement")
	}
}

func fieldsOf(t *testing.T, err error) map[string]bool {
	t.Helper()
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	out := make(map[string]bool)
	for _, f := range fe {
		out[f.Field] = true
	}
	return out
}

func TestBuild_FieldErrors(t *testing.T) {
	f := validForm()
	f.Title = ""
	f.PricePerDay = 0
	f.Category = "castle"
	f.MinRentalDays = 10
	f.MaxRentalDays = 5
	f.Latitude = 91
	f.DepositAmount = 500

	_, err := f.Build(uuid.New())
	fields := fieldsOf(t, err)
	for _, want := range []string{"title", "pricePerDay", "category", "maxRentalDays", "latitude", "depositAmount"} {
		if !fields[want] {
			t.Fatalf("missing error for %s in %v", want, err)
		}
	}
}

func TestBuild_DepositRules(t *testing.T) {
	f := validForm()
	f.DepositRequired = true
	if _, err := f.Build(uuid.New()); !fieldsOf(t, err)["depositAmount"] {
		t.Fatalf("expected depositAmount error")
	}

	f.DepositAmount = 1500
	space, err := f.Build(uuid.New())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if space.EffectiveDeposit() != 1500 {
		t.Fatalf("deposit = %d", space.EffectiveDeposit())
	}
}

func TestBuild_TierPricesCannotExceedDaily(t *testing.T) {
	f := validForm()
	week := int64(800)
	f.PricePerWeek = &week
	if !fieldsOf(t, errOf(f.Build(uuid.New())))["pricePerWeek"] {
		t.Fatalf("expected pricePerWeek error")
	}
}

func errOf(_ *model.Space, err error) error { return err }
