package spaces

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/spacefindr/core/internal/model"
)

// Form — данные формы размещения помещения. Суммы в центах.
type Form struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`

	Address    string  `json:"address" validate:"required,max=255"`
	City       string  `json:"city" validate:"required,max=128"`
	PostalCode string  `json:"postalCode" validate:"required,max=16"`
	Latitude   float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64 `json:"longitude" validate:"gte=-180,lte=180"`

	PricePerDay   int64  `json:"pricePerDay" validate:"required,gt=0"`
	PricePerWeek  *int64 `json:"pricePerWeek" validate:"omitempty,gt=0"`
	PricePerMonth *int64 `json:"pricePerMonth" validate:"omitempty,gt=0"`

	SizeSqm   float64  `json:"sizeSqm" validate:"required,gt=0"`
	Category  string   `json:"category" validate:"required,oneof=office warehouse popup event retail studio"`
	Amenities []string `json:"amenities" validate:"max=50,dive,required,max=64"`

	MinRentalDays int `json:"minRentalDays" validate:"gte=1"`
	MaxRentalDays int `json:"maxRentalDays" validate:"gte=1,gtefield=MinRentalDays"`

	DepositRequired bool  `json:"depositRequired"`
	DepositAmount   int64 `json:"depositAmount" validate:"gte=0"`

	CancellationPolicy string `json:"cancellationPolicy" validate:"omitempty,oneof=flexible moderate strict"`
	InstantBooking     bool   `json:"instantBooking"`
}

// FieldError: ошибка одного поля формы.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors: все ошибки формы. Возвращаются клиенту целиком.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, len(e))
	for i, f := range e {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid space form: " + strings.Join(parts, "; ")
}

var validate = validator.New()

// Normalize подставляет значения по умолчанию перед проверкой.
func (f *Form) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Address = strings.TrimSpace(f.Address)
	f.City = strings.TrimSpace(f.City)
	f.PostalCode = strings.ToUpper(strings.TrimSpace(f.PostalCode))
	if f.MinRentalDays == 0 {
		f.MinRentalDays = 1
	}
	if f.MaxRentalDays == 0 {
		f.MaxRentalDays = 365
	}
	if f.CancellationPolicy == "" {
		f.CancellationPolicy = string(model.CancellationModerate)
	}
	f.Amenities = dedupe(f.Amenities)
}

// Validate возвращает FieldErrors или nil.
func (f *Form) Validate() error {
	var out FieldErrors
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			out = append(out, FieldError{Field: jsonName(fe.StructField()), Message: message(fe)})
		}
	}

	if f.DepositRequired && f.DepositAmount <= 0 {
		out = append(out, FieldError{Field: "depositAmount", Message: "must be positive when a deposit is required"})
	}
	if !f.DepositRequired && f.DepositAmount > 0 {
		out = append(out, FieldError{Field: "depositAmount", Message: "must be empty when no deposit is required"})
	}
	if f.PricePerWeek != nil && *f.PricePerWeek > 7*f.PricePerDay {
		out = append(out, FieldError{Field: "pricePerWeek", Message: "must not exceed seven daily prices"})
	}
	if f.PricePerMonth != nil && *f.PricePerMonth > 28*f.PricePerDay {
		out = append(out, FieldError{Field: "pricePerMonth", Message: "must not exceed 28 daily prices"})
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// Build нормализует и проверяет форму и собирает помещение владельца.
func (f Form) Build(ownerID uuid.UUID) (*model.Space, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}

	amenities, err := json.Marshal(f.Amenities)
	if err != nil {
		return nil, fmt.Errorf("marshal amenities: %w", err)
	}

	return &model.Space{
		OwnerID:            ownerID,
		Title:              f.Title,
		Description:        f.Description,
		ImageURL:           f.ImageURL,
		Address:            f.Address,
		City:               f.City,
		PostalCode:         f.PostalCode,
		Latitude:           f.Latitude,
		Longitude:          f.Longitude,
		PricePerDay:        f.PricePerDay,
		PricePerWeek:       f.PricePerWeek,
		PricePerMonth:      f.PricePerMonth,
		SizeSqm:            f.SizeSqm,
		Category:           model.SpaceCategory(f.Category),
		Amenities:          datatypes.JSON(amenities),
		MinRentalDays:      f.MinRentalDays,
		MaxRentalDays:      f.MaxRentalDays,
		DepositRequired:    f.DepositRequired,
		DepositAmount:      f.DepositAmount,
		CancellationPolicy: model.CancellationPolicy(f.CancellationPolicy),
		InstantBooking:     f.InstantBooking,
		IsActive:           true,
	}, nil
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.ToLower(strings.TrimSpace(it))
		if _, ok := seen[it]; ok || it == "" {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "gtefield":
		return "must be greater than or equal to " + jsonName(fe.Param())
	case "gt", "gte", "lte", "max":
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
	return "is invalid"
}
