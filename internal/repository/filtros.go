package repository

import (
	"time"

	"gorm.io/gorm"
)

const formatoDia = "2006-01-02"

// rangoFechas applies an inclusive [desde, hasta] day range on col. Dates that
// fail to parse are ignored.
func rangoFechas(q *gorm.DB, col, desde, hasta string) *gorm.DB {
	if d, err := time.Parse(formatoDia, desde); err == nil {
		q = q.Where(col+" >= ?", d)
	}
	if h, err := time.Parse(formatoDia, hasta); err == nil {
		q = q.Where(col+" < ?", h.AddDate(0, 0, 1))
	}
	return q
}
