package repository

import (
	"strconv"
	"strings"
	"time"

	"car-portal/internal/domain"
)

const carColumns = `id, reg_no, person_name, make, model, in_out_status, in_out_date_time,
	photos, video, created_by, created_at, updated_at`

var sortColumns = map[domain.SortField]string{
	domain.SortByInOutDateTime: "in_out_date_time",
	domain.SortByCreatedAt:     "created_at",
	domain.SortByUpdatedAt:     "updated_at",
	domain.SortByRegNo:         "reg_no",
	domain.SortByPersonName:    "person_name",
	domain.SortByMake:          "make",
	domain.SortByModel:         "model",
	domain.SortByInOutStatus:   "in_out_status",
}

var groupColumns = map[domain.GroupField]string{
	domain.GroupByRegNo:      "reg_no",
	domain.GroupByPersonName: "person_name",
}

// whereBuilder collects AND-ed predicates with numbered placeholders. Every
// "?" in a clause is bound to the same argument.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (b *whereBuilder) add(clause string, arg any) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(b.args))))
}

func (b *whereBuilder) sql() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// buildCarFilter translates f into a WHERE clause. With fullText the search
// term goes through the search_vector index; otherwise it is an OR of
// substring matches over the same fields.
func buildCarFilter(f domain.CarFilter, fullText bool) *whereBuilder {
	b := &whereBuilder{}

	if f.Search != "" {
		if fullText {
			b.add("search_vector @@ plainto_tsquery('simple', ?)", f.Search)
		} else {
			b.add("(reg_no ILIKE ? OR person_name ILIKE ? OR make ILIKE ? OR model ILIKE ?)", containsPattern(f.Search))
		}
	}
	if f.RegNo != "" {
		b.add("reg_no ILIKE ?", containsPattern(f.RegNo))
	}
	if f.PersonName != "" {
		b.add("person_name ILIKE ?", containsPattern(f.PersonName))
	}
	if f.Make != "" {
		b.add("make ILIKE ?", containsPattern(f.Make))
	}
	if f.Model != "" {
		b.add("model ILIKE ?", containsPattern(f.Model))
	}
	if f.Status != "" {
		b.add("in_out_status = ?", f.Status)
	}
	if f.From != nil {
		b.add("in_out_date_time >= ?", *f.From)
	}
	if f.To != nil {
		b.add("in_out_date_time <= ?", *f.To)
	}
	if f.Before != nil {
		b.add("in_out_date_time < ?", *f.Before)
	}

	return b
}

// buildRange is the half-open [from, to) window used for time buckets.
func buildRange(from, to *time.Time) *whereBuilder {
	b := &whereBuilder{}
	if from != nil {
		b.add("in_out_date_time >= ?", *from)
	}
	if to != nil {
		b.add("in_out_date_time < ?", *to)
	}
	return b
}

func orderBy(field domain.SortField, dir domain.SortDir) string {
	col, ok := sortColumns[field]
	if !ok {
		col = sortColumns[domain.SortByInOutDateTime]
	}
	d := "DESC"
	if dir == domain.SortAsc {
		d = "ASC"
	}
	return " ORDER BY " + col + " " + d + " NULLS LAST, id " + d
}

// buildPatch returns the SET assignments for p, starting placeholders at $2
// ($1 is the record id). CreatedBy is never written.
func buildPatch(p domain.CarRecordPatch) ([]string, []any) {
	var sets []string
	var args []any

	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)+1))
	}

	if p.RegNo != nil {
		set("reg_no", strings.TrimSpace(*p.RegNo))
	}
	if p.PersonName != nil {
		set("person_name", domain.NormalizeOptional(p.PersonName))
	}
	if p.Make != nil {
		set("make", domain.NormalizeOptional(p.Make))
	}
	if p.Model != nil {
		set("model", domain.NormalizeOptional(p.Model))
	}
	if p.InOutStatus != nil {
		set("in_out_status", domain.NormalizeOptional(p.InOutStatus))
	}
	if p.InOutDateTime != nil {
		set("in_out_date_time", *p.InOutDateTime)
	}
	if p.Photos != nil {
		set("photos", p.Photos)
	}
	if p.Video != nil {
		set("video", *p.Video)
	}

	return sets, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
