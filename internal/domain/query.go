package domain

import (
	"strings"
	"time"
)

type SortField string

const (
	SortByInOutDateTime SortField = "inOutDateTime"
	SortByCreatedAt     SortField = "createdAt"
	SortByUpdatedAt     SortField = "updatedAt"
	SortByRegNo         SortField = "regNo"
	SortByPersonName    SortField = "personName"
	SortByMake          SortField = "make"
	SortByModel         SortField = "model"
	SortByInOutStatus   SortField = "inOutStatus"
)

// ParseSortField maps a client supplied field name onto the whitelist,
// falling back to inOutDateTime.
func ParseSortField(s string) SortField {
	switch f := SortField(strings.TrimSpace(s)); f {
	case SortByInOutDateTime, SortByCreatedAt, SortByUpdatedAt, SortByRegNo,
		SortByPersonName, SortByMake, SortByModel, SortByInOutStatus:
		return f
	}
	return SortByInOutDateTime
}

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

func ParseSortDir(s string) SortDir {
	if strings.EqualFold(strings.TrimSpace(s), string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}

// CarFilter narrows a record query. Zero values mean "no constraint".
type CarFilter struct {
	Search     string
	RegNo      string
	PersonName string
	Make       string
	Model      string
	Status     string
	From       *time.Time
	To         *time.Time
	// Before is an exclusive upper bound, used for whole-day ranges.
	Before *time.Time
}

func (f CarFilter) IsEmpty() bool {
	return f.Search == "" && f.RegNo == "" && f.PersonName == "" && f.Make == "" &&
		f.Model == "" && f.Status == "" && f.From == nil && f.To == nil && f.Before == nil
}

type CarQuery struct {
	Filter CarFilter
	PaginationParams
	SortBy  SortField
	SortDir SortDir
}

func (q *CarQuery) Validate() {
	q.PaginationParams.Validate()
	q.SortBy = ParseSortField(string(q.SortBy))
	q.SortDir = ParseSortDir(string(q.SortDir))

	q.Filter.Search = strings.TrimSpace(q.Filter.Search)
	q.Filter.RegNo = strings.TrimSpace(q.Filter.RegNo)
	q.Filter.PersonName = strings.TrimSpace(q.Filter.PersonName)
	q.Filter.Make = strings.TrimSpace(q.Filter.Make)
	q.Filter.Model = strings.TrimSpace(q.Filter.Model)
	q.Filter.Status = strings.TrimSpace(q.Filter.Status)
}
