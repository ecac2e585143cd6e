package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"car-portal/internal/domain"
)

type CarRecordRepository interface {
	Create(ctx context.Context, record *domain.CarRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CarRecord, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.CarRecordPatch) (*domain.CarRecord, error)
	Delete(ctx context.Context, id uuid.UUID) (*domain.CarRecord, error)
	Query(ctx context.Context, q domain.CarQuery) ([]domain.CarRecord, int64, error)

	Count(ctx context.Context) (int64, error)
	// CountBetween counts records with from <= inOutDateTime < to; a nil bound
	// is open.
	CountBetween(ctx context.Context, from, to *time.Time) (int64, error)
	Recent(ctx context.Context, limit int) ([]domain.CarRecord, error)
	TopValues(ctx context.Context, field domain.GroupField, limit int) ([]domain.ValueCount, error)

	SupportsFullTextSearch() bool
}

type carRecordRepository struct {
	db       *sqlx.DB
	fullText bool
}

func NewCarRecordRepository(db *sqlx.DB, fullText bool) CarRecordRepository {
	return &carRecordRepository{db: db, fullText: fullText}
}

func (r *carRecordRepository) SupportsFullTextSearch() bool {
	return r.fullText
}

func (r *carRecordRepository) Create(ctx context.Context, record *domain.CarRecord) error {
	record.RegNo = strings.TrimSpace(record.RegNo)
	if record.RegNo == "" {
		return domain.NewValidationError("regNo", "regNo is required")
	}
	if len(record.Photos) > domain.MaxPhotos {
		return domain.NewValidationError("photos", fmt.Sprintf("at most %d photos are allowed", domain.MaxPhotos))
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Photos == nil {
		record.Photos = domain.AttachmentList{}
	}

	query := `
		INSERT INTO car_records (id, reg_no, person_name, make, model, in_out_status,
			in_out_date_time, photos, video, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		record.ID, record.RegNo, record.PersonName, record.Make, record.Model,
		record.InOutStatus, record.InOutDateTime, record.Photos, record.Video,
		record.CreatedBy,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return domain.NewStorageError("insert car record", err)
	}
	return nil
}

func (r *carRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CarRecord, error) {
	var record domain.CarRecord
	query := `SELECT ` + carColumns + ` FROM car_records WHERE id = $1`

	err := r.db.GetContext(ctx, &record, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.NewStorageError("get car record", err)
	}
	return &record, nil
}

func (r *carRecordRepository) Update(ctx context.Context, id uuid.UUID, patch domain.CarRecordPatch) (*domain.CarRecord, error) {
	if patch.RegNo != nil && strings.TrimSpace(*patch.RegNo) == "" {
		return nil, domain.NewValidationError("regNo", "regNo cannot be empty")
	}
	if len(patch.Photos) > domain.MaxPhotos {
		return nil, domain.NewValidationError("photos", fmt.Sprintf("at most %d photos are allowed", domain.MaxPhotos))
	}

	sets, args := buildPatch(patch)
	sets = append(sets, "updated_at = NOW()")
	query := `UPDATE car_records SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + carColumns

	var record domain.CarRecord
	err := r.db.GetContext(ctx, &record, query, append([]any{id}, args...)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.NewStorageError("update car record", err)
	}
	return &record, nil
}

func (r *carRecordRepository) Delete(ctx context.Context, id uuid.UUID) (*domain.CarRecord, error) {
	var record domain.CarRecord
	query := `DELETE FROM car_records WHERE id = $1 RETURNING ` + carColumns

	err := r.db.GetContext(ctx, &record, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.NewStorageError("delete car record", err)
	}
	return &record, nil
}

func (r *carRecordRepository) Query(ctx context.Context, q domain.CarQuery) ([]domain.CarRecord, int64, error) {
	q.Validate()

	where := buildCarFilter(q.Filter, r.fullText)

	var total int64
	records := []domain.CarRecord{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		countQuery := `SELECT COUNT(*) FROM car_records` + where.sql()
		return r.db.GetContext(gctx, &total, countQuery, where.args...)
	})
	g.Go(func() error {
		limitArg := len(where.args) + 1
		query := `SELECT ` + carColumns + ` FROM car_records` + where.sql() +
			orderBy(q.SortBy, q.SortDir) +
			" LIMIT $" + strconv.Itoa(limitArg) + " OFFSET $" + strconv.Itoa(limitArg+1)
		args := append(append([]any{}, where.args...), q.Limit, q.Offset())
		return r.db.SelectContext(gctx, &records, query, args...)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, domain.NewStorageError("query car records", err)
	}

	return records, total, nil
}

func (r *carRecordRepository) Count(ctx context.Context) (int64, error) {
	return r.CountBetween(ctx, nil, nil)
}

func (r *carRecordRepository) CountBetween(ctx context.Context, from, to *time.Time) (int64, error) {
	where := buildRange(from, to)

	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM car_records`+where.sql(), where.args...); err != nil {
		return 0, domain.NewStorageError("count car records", err)
	}
	return count, nil
}

func (r *carRecordRepository) Recent(ctx context.Context, limit int) ([]domain.CarRecord, error) {
	query := `SELECT ` + carColumns + ` FROM car_records
		ORDER BY in_out_date_time DESC, id DESC
		LIMIT $1`

	records := []domain.CarRecord{}
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, domain.NewStorageError("recent car records", err)
	}
	return records, nil
}

func (r *carRecordRepository) TopValues(ctx context.Context, field domain.GroupField, limit int) ([]domain.ValueCount, error) {
	col, ok := groupColumns[field]
	if !ok {
		return nil, domain.NewValidationError("field", fmt.Sprintf("cannot group by %q", field))
	}

	query := `
		SELECT ` + col + ` AS value, COUNT(*) AS count
		FROM car_records
		WHERE ` + col + ` IS NOT NULL AND btrim(` + col + `) <> ''
		GROUP BY ` + col + `
		ORDER BY count DESC, value ASC
		LIMIT $1`

	values := []domain.ValueCount{}
	if err := r.db.SelectContext(ctx, &values, query, limit); err != nil {
		return nil, domain.NewStorageError("top "+string(field), err)
	}
	return values, nil
}
