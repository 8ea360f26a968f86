package grpcapi

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/model"
)

// fields: чтение полей запроса. Отсутствующее поле даёт нулевое значение.
type fields map[string]*structpb.Value

func fieldsOf(req *structpb.Struct) fields { return req.GetFields() }

func (f fields) has(name string) bool {
	v, ok := f[name]
	if !ok {
		return false
	}
	_, null := v.GetKind().(*structpb.Value_NullValue)
	return !null
}

func (f fields) str(name string) string { return f[name].GetStringValue() }
func (f fields) flag(name string) bool  { return f[name].GetBoolValue() }
func (f fields) count(name string) int  { return int(f[name].GetNumberValue()) }

// maxExact: больше этого float64 уже не хранит каждое целое.
const maxExact = 1 << 53

// num читает сумму в центах. Дробные, NaN, Inf и неточные значения
// отклоняются, а не обрезаются.
func (f fields) num(name string) (int64, error) {
	n := f[name].GetNumberValue()
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || math.Abs(n) > maxExact {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a whole number of cents", name)
	}
	return int64(n), nil
}

func (f fields) optNum(name string) (*int64, error) {
	if !f.has(name) {
		return nil, nil
	}
	n, err := f.num(name)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (f fields) optFloat(name string) *float64 {
	if !f.has(name) {
		return nil
	}
	n := f[name].GetNumberValue()
	return &n
}

func (f fields) id(name string) (uuid.UUID, error) {
	id, err := uuid.Parse(f.str(name))
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s must be a uuid", name)
	}
	return id, nil
}

func (f fields) optID(name string) (*uuid.UUID, error) {
	if f.str(name) == "" {
		return nil, nil
	}
	id, err := f.id(name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (f fields) date(name string) (time.Time, error) {
	t, err := time.Parse(calendar.DateLayout, f.str(name))
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s must be a date (%s)", name, calendar.DateLayout)
	}
	return t, nil
}

func (f fields) dates(from, to string) (time.Time, time.Time, error) {
	start, err := f.date(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := f.date(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// decode переносит запрос в структуру с json-тегами.
func decode(req *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(req)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	return nil
}

func message(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("build response: %w", err)
	}
	return s, nil
}

func date(t time.Time) string { return t.UTC().Format(calendar.DateLayout) }

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func optStamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return stamp(*t)
}

func optID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func optInt(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}

func optFloat(n *float64) any {
	if n == nil {
		return nil
	}
	return *n
}

func rangeView(r calendar.DateRange) map[string]any {
	return map[string]any{"startDate": date(r.Start), "endDate": date(r.End)}
}

func priceView(p booking.PriceBreakdown) map[string]any {
	return map[string]any{
		"days":          p.Days,
		"months":        p.Months,
		"weeks":         p.Weeks,
		"remainderDays": p.RemainderDays,
		"rentAmount":    p.RentAmount,
		"serviceAmount": p.ServiceAmount,
		"depositAmount": p.DepositAmount,
		"totalPrice":    p.TotalPrice,
	}
}

func bookingView(b *model.Booking) map[string]any {
	return map[string]any{
		"id":                     b.ID.String(),
		"spaceId":                b.SpaceID.String(),
		"tenantId":               b.TenantID.String(),
		"landlordId":             b.LandlordID.String(),
		"spaceName":              b.SpaceName,
		"spaceImage":             b.SpaceImage,
		"pricePerDay":            b.PricePerDay,
		"startDate":              date(b.StartDate),
		"endDate":                date(b.EndDate),
		"totalDays":              b.TotalDays,
		"rentAmount":             b.RentAmount,
		"serviceAmount":          b.ServiceAmount,
		"depositAmount":          b.DepositAmount,
		"totalPrice":             b.TotalPrice,
		"status":                 string(b.Status),
		"paymentStatus":          string(b.PaymentStatus),
		"depositStatus":          string(b.DepositStatus),
		"refundAmount":           b.RefundAmount,
		"depositForfeitedAmount": b.DepositForfeitedAmount,
		"message":                b.Message,
		"statusReason":           b.StatusReason,
		"checkoutNote":           b.CheckoutNote,
		"paymentReference":       b.PaymentReference,
		"paidAt":                 optStamp(b.PaidAt),
		"confirmedAt":            optStamp(b.ConfirmedAt),
		"cancelledAt":            optStamp(b.CancelledAt),
		"checkedInAt":            optStamp(b.CheckedInAt),
		"checkedOutAt":           optStamp(b.CheckedOutAt),
		"completedAt":            optStamp(b.CompletedAt),
		"version":                b.Version,
		"createdAt":              stamp(b.CreatedAt),
		"updatedAt":              stamp(b.UpdatedAt),
	}
}

func eventView(ev *model.Event) map[string]any {
	var details any
	if len(ev.Details) > 0 {
		_ = json.Unmarshal(ev.Details, &details)
	}
	return map[string]any{
		"id":         ev.ID.String(),
		"eventType":  string(ev.EventType),
		"createdAt":  stamp(ev.CreatedAt),
		"actorId":    optID(ev.ActorID),
		"fromStatus": ev.FromStatus,
		"toStatus":   ev.ToStatus,
		"details":    details,
	}
}

func spaceView(s *model.Space) map[string]any {
	var amenities []any
	if len(s.Amenities) > 0 {
		_ = json.Unmarshal(s.Amenities, &amenities)
	}
	return map[string]any{
		"id":                 s.ID.String(),
		"ownerId":            s.OwnerID.String(),
		"title":              s.Title,
		"description":        s.Description,
		"imageUrl":           s.ImageURL,
		"address":            s.Address,
		"city":               s.City,
		"postalCode":         s.PostalCode,
		"latitude":           s.Latitude,
		"longitude":          s.Longitude,
		"pricePerDay":        s.PricePerDay,
		"pricePerWeek":       optInt(s.PricePerWeek),
		"pricePerMonth":      optInt(s.PricePerMonth),
		"sizeSqm":            s.SizeSqm,
		"category":           string(s.Category),
		"amenities":          amenities,
		"minRentalDays":      s.MinRentalDays,
		"maxRentalDays":      s.MaxRentalDays,
		"depositRequired":    s.DepositRequired,
		"depositAmount":      s.DepositAmount,
		"cancellationPolicy": string(s.CancellationPolicy),
		"instantBooking":     s.InstantBooking,
		"isActive":           s.IsActive,
	}
}

func vacancyView(r *model.VacancyReport) map[string]any {
	return map[string]any{
		"id":            r.ID.String(),
		"reporterId":    optID(r.ReporterID),
		"reporterName":  r.ReporterName,
		"reporterEmail": r.ReporterEmail,
		"reporterPhone": r.ReporterPhone,
		"address":       r.Address,
		"city":          r.City,
		"postalCode":    r.PostalCode,
		"sizeSqm":       optFloat(r.SizeSqm),
		"vacantSince":   r.VacantSince,
		"description":   r.Description,
		"photoUrl":      r.PhotoURL,
		"status":        string(r.Status),
		"rewardStatus":  string(r.RewardStatus),
		"rewardAmount":  r.RewardAmount,
		"adminNote":     r.AdminNote,
		"spaceId":       optID(r.SpaceID),
		"reviewedAt":    optStamp(r.ReviewedAt),
		"rewardPaidAt":  optStamp(r.RewardPaidAt),
		"createdAt":     stamp(r.CreatedAt),
	}
}

func contractView(c *model.Contract) map[string]any {
	var terms any
	if len(c.Terms) > 0 {
		_ = json.Unmarshal(c.Terms, &terms)
	}
	return map[string]any{
		"id":          c.ID.String(),
		"bookingId":   c.BookingID.String(),
		"status":      string(c.Status),
		"revision":    c.Revision,
		"documentKey": c.DocumentKey,
		"terms":       terms,
		"finalizedAt": optStamp(c.FinalizedAt),
	}
}

func userView(u *model.User) map[string]any {
	return map[string]any{
		"id":           u.ID.String(),
		"displayName":  u.DisplayName,
		"email":        u.Email,
		"contactPhone": u.ContactPhone,
		"role":         string(u.Role),
	}
}

func pageView[T any](p calendar.Page[T], view func(*T) map[string]any) map[string]any {
	items := make([]any, len(p.Items))
	for i := range p.Items {
		items[i] = view(&p.Items[i])
	}
	return map[string]any{
		"items":    items,
		"page":     p.Page,
		"pageSize": p.PageSize,
		"total":    p.Total,
		"hasNext":  p.HasNext,
	}
}
