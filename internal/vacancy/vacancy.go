package vacancy

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/model"
)

var (
	ErrInvalidReport     = errors.New("invalid vacancy report")
	ErrIllegalTransition = errors.New("illegal vacancy report transition")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Граф статусов проверки наводки.
var allowed = map[model.VacancyStatus][]model.VacancyStatus{
	model.VacancyStatusSubmitted:   {model.VacancyStatusUnderReview, model.VacancyStatusRejected, model.VacancyStatusDuplicate},
	model.VacancyStatusUnderReview: {model.VacancyStatusVerified, model.VacancyStatusRejected, model.VacancyStatusDuplicate},
	model.VacancyStatusVerified:    {model.VacancyStatusConvertedToSpace},
}

// CanTransition — допустим ли переход проверки.
func CanTransition(from, to model.VacancyStatus) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Submission: данные наводки от пользователя (вход не обязателен).
type Submission struct {
	ReporterID    *uuid.UUID
	ReporterName  string
	ReporterEmail string
	ReporterPhone string
	Address       string
	City          string
	PostalCode    string
	SizeSqm       *float64
	VacantSince   string
	Description   string
	PhotoURL      string
}

// NewReport проверяет наводку и собирает запись со статусом submitted.
func NewReport(s Submission) (*model.VacancyReport, error) {
	var missing []string
	if strings.TrimSpace(s.ReporterName) == "" {
		missing = append(missing, "reporterName")
	}
	if !strings.Contains(s.ReporterEmail, "@") {
		missing = append(missing, "reporterEmail")
	}
	if strings.TrimSpace(s.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(s.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(s.PostalCode) == "" {
		missing = append(missing, "postalCode")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing or invalid %s", ErrInvalidReport, strings.Join(missing, ", "))
	}
	if s.SizeSqm != nil && *s.SizeSqm <= 0 {
		return nil, fmt.Errorf("%w: sizeSqm must be positive", ErrInvalidReport)
	}

	return &model.VacancyReport{
		ReporterID:    s.ReporterID,
		ReporterName:  strings.TrimSpace(s.ReporterName),
		ReporterEmail: strings.ToLower(strings.TrimSpace(s.ReporterEmail)),
		ReporterPhone: strings.TrimSpace(s.ReporterPhone),
		Address:       strings.TrimSpace(s.Address),
		City:          strings.TrimSpace(s.City),
		PostalCode:    strings.TrimSpace(s.PostalCode),
		AddressKey:    AddressKey(s.Address, s.PostalCode),
		SizeSqm:       s.SizeSqm,
		VacantSince:   s.VacantSince,
		Description:   s.Description,
		PhotoURL:      s.PhotoURL,
		Status:        model.VacancyStatusSubmitted,
		RewardStatus:  model.RewardStatusPending,
	}, nil
}

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	streetAbbr = strings.NewReplacer("strasse", "str", "straße", "str", "street", "st")
)

// AddressKey: нормализованный адрес (улица + индекс) для поиска дубликатов.
// Регистр, пунктуация, пробелы и "straße/str." не влияют.
func AddressKey(address, postalCode string) string {
	a := strings.ToLower(address)
	a = streetAbbr.Replace(a)
	a = strings.Trim(nonWord.ReplaceAllString(a, " "), " ")
	p := strings.ToLower(nonWord.ReplaceAllString(postalCode, ""))
	return p + "|" + a
}

// Decision — итог проверки администратором.
type Decision struct {
	ReviewerID uuid.UUID
	To         model.VacancyStatus
	Note       string
	At         time.Time
	// Уже есть eligible/paid наводка на тот же адрес.
	AddressRewarded bool
	RewardAmount    int64
	// Для converted_to_space.
	SpaceID *uuid.UUID
}

// Review применяет решение к копии наводки и возвращает её.
func Review(r *model.VacancyReport, isAdmin bool, d Decision) (*model.VacancyReport, error) {
	if !isAdmin {
		return nil, fmt.Errorf("%w: only admins review vacancy reports", ErrUnauthorized)
	}
	if !CanTransition(r.Status, d.To) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, r.Status, d.To)
	}
	if d.To == model.VacancyStatusConvertedToSpace && d.SpaceID == nil {
		return nil, fmt.Errorf("%w: space id is required for conversion", ErrIllegalTransition)
	}

	next := *r
	next.Status = d.To
	next.ReviewedBy = &d.ReviewerID
	next.ReviewedAt = &d.At
	if d.Note != "" {
		next.AdminNote = d.Note
	}

	switch d.To {
	case model.VacancyStatusVerified:
		if d.AddressRewarded {
			next.RewardStatus = model.RewardStatusNotEligible
		} else {
			next.RewardStatus = model.RewardStatusEligible
			next.RewardAmount = d.RewardAmount
		}
	case model.VacancyStatusRejected, model.VacancyStatusDuplicate:
		next.RewardStatus = model.RewardStatusNotEligible
	case model.VacancyStatusConvertedToSpace:
		next.SpaceID = d.SpaceID
	}
	return &next, nil
}

// PayReward отмечает ручную выплату вознаграждения. paid, конечное состояние.
func PayReward(r *model.VacancyReport, isAdmin bool, at time.Time) (*model.VacancyReport, error) {
	if !isAdmin {
		return nil, fmt.Errorf("%w: only admins pay rewards", ErrUnauthorized)
	}
	if r.RewardStatus != model.RewardStatusEligible {
		return nil, fmt.Errorf("%w: reward is %s", ErrIllegalTransition, r.RewardStatus)
	}
	next := *r
	next.RewardStatus = model.RewardStatusPaid
	next.RewardPaidAt = &at
	return &next, nil
}
