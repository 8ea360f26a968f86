package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/auth"
	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/service"
	"github.com/spacefindr/core/internal/vacancy"
)

// Handler: публичный HTTP-вход: каталог, цены, календарь занятости
// и наводки на пустующие помещения. Операции с бронированиями идут через gRPC.
type Handler struct {
	bookings *service.BookingService
	spaces   *service.SpaceService
	vacancy  *service.VacancyService
	tokens   *auth.TokenService
	// DevTokens открывает POST /dev/token для локальной разработки.
	DevTokens bool
}

func New(bookings *service.BookingService, spaces *service.SpaceService, vacancy *service.VacancyService, tokens *auth.TokenService) *Handler {
	return &Handler{bookings: bookings, spaces: spaces, vacancy: vacancy, tokens: tokens}
}

// Router собирает chi-роутер со стандартными middleware.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if h.DevTokens {
		r.Post("/dev/token", h.IssueToken)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(h.tokens.Middleware)

		r.Get("/spaces", h.SearchSpaces)
		r.Get("/spaces/{id}", h.GetSpace)
		r.Get("/spaces/{id}/quote", h.Quote)
		r.Get("/spaces/{id}/availability", h.Availability)
		r.Get("/spaces/{id}/calendar", h.Calendar)

		r.Post("/vacancy-reports", h.SubmitVacancyReport)
	})
	return r
}

type spaceResp struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	ImageURL           string   `json:"imageUrl"`
	Address            string   `json:"address"`
	City               string   `json:"city"`
	PostalCode         string   `json:"postalCode"`
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	PricePerDay        int64    `json:"pricePerDay"`
	PricePerWeek       *int64   `json:"pricePerWeek,omitempty"`
	PricePerMonth      *int64   `json:"pricePerMonth,omitempty"`
	SizeSqm            float64  `json:"sizeSqm"`
	Category           string   `json:"category"`
	Amenities          []string `json:"amenities"`
	MinRentalDays      int      `json:"minRentalDays"`
	MaxRentalDays      int      `json:"maxRentalDays"`
	DepositRequired    bool     `json:"depositRequired"`
	DepositAmount      int64    `json:"depositAmount"`
	CancellationPolicy string   `json:"cancellationPolicy"`
	InstantBooking     bool     `json:"instantBooking"`
}

func toSpaceResp(s *model.Space) spaceResp {
	amenities := []string{}
	if len(s.Amenities) > 0 {
		_ = json.Unmarshal(s.Amenities, &amenities)
	}
	return spaceResp{
		ID:                 s.ID.String(),
		Title:              s.Title,
		Description:        s.Description,
		ImageURL:           s.ImageURL,
		Address:            s.Address,
		City:               s.City,
		PostalCode:         s.PostalCode,
		Latitude:           s.Latitude,
		Longitude:          s.Longitude,
		PricePerDay:        s.PricePerDay,
		PricePerWeek:       s.PricePerWeek,
		PricePerMonth:      s.PricePerMonth,
		SizeSqm:            s.SizeSqm,
		Category:           string(s.Category),
		Amenities:          amenities,
		MinRentalDays:      s.MinRentalDays,
		MaxRentalDays:      s.MaxRentalDays,
		DepositRequired:    s.DepositRequired,
		DepositAmount:      s.DepositAmount,
		CancellationPolicy: string(s.CancellationPolicy),
		InstantBooking:     s.InstantBooking,
	}
}

type pageResp[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	Total    int  `json:"total"`
	HasNext  bool `json:"hasNext"`
}

// SearchSpaces — каталог активных помещений.
// GET /api/spaces?city=&category=&page=&pageSize=
func (h *Handler) SearchSpaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("pageSize"))
	res, err := h.spaces.Search(r.Context(), q.Get("city"), model.SpaceCategory(q.Get("category")), page, size)
	if err != nil {
		fail(w, r, err)
		return
	}
	items := make([]spaceResp, len(res.Items))
	for i := range res.Items {
		items[i] = toSpaceResp(&res.Items[i])
	}
	jsonOK(w, http.StatusOK, pageResp[spaceResp]{
		Items:    items,
		Page:     res.Page,
		PageSize: res.PageSize,
		Total:    res.Total,
		HasNext:  res.HasNext,
	})
}

// GetSpace: карточка помещения. Неактивные видит только владелец.
// GET /api/spaces/{id}
func (h *Handler) GetSpace(w http.ResponseWriter, r *http.Request) {
	id, ok := spaceID(w, r)
	if !ok {
		return
	}
	sp, err := h.spaces.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if !sp.IsActive {
		if a, ok := booking.ActorFrom(r.Context()); !ok || (a.ID != sp.OwnerID && !a.IsAdmin()) {
			jsonError(w, "space not found", http.StatusNotFound)
			return
		}
	}
	jsonOK(w, http.StatusOK, toSpaceResp(sp))
}

type quoteResp struct {
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Days          int    `json:"days"`
	Months        int    `json:"months"`
	Weeks         int    `json:"weeks"`
	RemainderDays int    `json:"remainderDays"`
	RentAmount    int64  `json:"rentAmount"`
	ServiceAmount int64  `json:"serviceAmount"`
	DepositAmount int64  `json:"depositAmount"`
	TotalPrice    int64  `json:"totalPrice"`
}

// Quote: цена аренды.
// GET /api/spaces/{id}/quote?start=2025-03-10&end=2025-03-12
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	id, ok := spaceID(w, r)
	if !ok {
		return
	}
	rng, err := calendar.ParseDateRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.bookings.Quote(r.Context(), id, rng.Start, rng.End)
	if err != nil {
		fail(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, quoteResp{
		StartDate:     rng.Start.Format(calendar.DateLayout),
		EndDate:       rng.End.Format(calendar.DateLayout),
		Days:          p.Days,
		Months:        p.Months,
		Weeks:         p.Weeks,
		RemainderDays: p.RemainderDays,
		RentAmount:    p.RentAmount,
		ServiceAmount: p.ServiceAmount,
		DepositAmount: p.DepositAmount,
		TotalPrice:    p.TotalPrice,
	})
}

type availabilityResp struct {
	Available bool   `json:"available"`
	Days      int    `json:"days,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Availability — можно ли забронировать даты. Отказ движка — это ответ,
// а не ошибка запроса: available=false и причина.
// GET /api/spaces/{id}/availability?start=&end=
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	id, ok := spaceID(w, r)
	if !ok {
		return
	}
	rng, err := calendar.ParseDateRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.bookings.CheckAvailability(r.Context(), id, rng.Start, rng.End)
	switch {
	case err == nil:
		jsonOK(w, http.StatusOK, availabilityResp{Available: true, Days: res.Days})
	case isRejection(err):
		jsonOK(w, http.StatusOK, availabilityResp{Available: false, Reason: err.Error()})
	default:
		fail(w, r, err)
	}
}

type rangeResp struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Calendar: занятые даты помещения для календаря и карты.
// GET /api/spaces/{id}/calendar?from=&to=
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	id, ok := spaceID(w, r)
	if !ok {
		return
	}
	window, err := calendar.ParseDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		fail(w, r, err)
		return
	}
	occupied, err := h.bookings.Occupancy(r.Context(), id, window)
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]rangeResp, len(occupied))
	for i, rng := range occupied {
		out[i] = rangeResp{StartDate: rng.Start.Format(calendar.DateLayout), EndDate: rng.End.Format(calendar.DateLayout)}
	}
	jsonOK(w, http.StatusOK, out)
}

type vacancyReq struct {
	ReporterName  string   `json:"reporterName"`
	ReporterEmail string   `json:"reporterEmail"`
	ReporterPhone string   `json:"reporterPhone"`
	Address       string   `json:"address"`
	City          string   `json:"city"`
	PostalCode    string   `json:"postalCode"`
	SizeSqm       *float64 `json:"sizeSqm"`
	VacantSince   string   `json:"vacantSince"`
	Description   string   `json:"description"`
	PhotoURL      string   `json:"photoUrl"`
}

type vacancyResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SubmitVacancyReport: наводка на пустующее помещение, вход не обязателен.
// POST /api/vacancy-reports
func (h *Handler) SubmitVacancyReport(w http.ResponseWriter, r *http.Request) {
	var req vacancyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	report, err := h.vacancy.Submit(r.Context(), vacancy.Submission{
		ReporterName:  req.ReporterName,
		ReporterEmail: req.ReporterEmail,
		ReporterPhone: req.ReporterPhone,
		Address:       req.Address,
		City:          req.City,
		PostalCode:    req.PostalCode,
		SizeSqm:       req.SizeSqm,
		VacantSince:   req.VacantSince,
		Description:   req.Description,
		PhotoURL:      req.PhotoURL,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	jsonOK(w, http.StatusCreated, vacancyResp{ID: report.ID.String(), Status: string(report.Status)})
}

type tokenReq struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type tokenResp struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// IssueToken выдаёт токен разработчика. Только при DEV_TOKENS=true.
// POST /dev/token
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		jsonError(w, "role must be tenant, landlord or admin", http.StatusBadRequest)
		return
	}
	id := uuid.New()
	if req.UserID != "" {
		parsed, err := uuid.Parse(req.UserID)
		if err != nil {
			jsonError(w, "userId must be a uuid", http.StatusBadRequest)
			return
		}
		id = parsed
	}
	token, err := h.tokens.Issue(id, role, 24*time.Hour)
	if err != nil {
		fail(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, tokenResp{UserID: id.String(), Token: token})
}

func spaceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "invalid space id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func isRejection(err error) bool {
	for _, target := range []error{
		booking.ErrSpaceUnavailable,
		booking.ErrInvalidDateRange,
		booking.ErrRentalDurationOutOfBounds,
		booking.ErrDateRangeConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
