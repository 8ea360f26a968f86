package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStaleBooking — бронирование изменилось с момента чтения, нужно перечитать.
	ErrStaleBooking = errors.New("booking was modified concurrently")
	// ErrStaleReport: статус наводки или вознаграждения поменялся после чтения.
	ErrStaleReport = errors.New("vacancy report was modified concurrently")
	// ErrContractFinalized: договор зафиксирован, пока шла запись.
	ErrContractFinalized = errors.New("contract was finalized concurrently")
)

// translate приводит ошибки GORM к ошибкам репозитория.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// paged применяет limit/offset, если limit задан.
func paged(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	return q
}
