package types

import (
	"time"

	"github.com/manuscripta/apm/pkg/bitemporal"
)

// ColumnVersionInfo 某页某栏的一个版本，时间区间为 [time_from, time_until)
type ColumnVersionInfo struct {
	ID          int64     `json:"id" db:"id"`
	PageID      int64     `json:"page_id" db:"page_id"`
	Column      int       `json:"column" db:"col"`
	TimeFrom    time.Time `json:"time_from" db:"time_from"`
	TimeUntil   time.Time `json:"time_until" db:"time_until"`
	AuthorTid   int64     `json:"author_tid" db:"author_tid"`
	Description string    `json:"description" db:"descr"`
	IsMinor     bool      `json:"is_minor" db:"is_minor"`
	IsReview    bool      `json:"is_review" db:"is_review"`
	IsPublished bool      `json:"is_published" db:"is_published"`
}

func (v ColumnVersionInfo) Interval() bitemporal.Interval {
	return bitemporal.NewInterval(v.TimeFrom, v.TimeUntil)
}
