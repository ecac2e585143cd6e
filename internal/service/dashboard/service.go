package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"car-portal/internal/domain"
	"car-portal/internal/repository"
)

const (
	cacheKeyPrefix = "dashboard:stats:"
	versionKey     = "dashboard:stats:version"

	recentLimit = 10
	topLimit    = 5
	dailyWindow = 7
)

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type Stats struct {
	Total       int64               `json:"total"`
	Today       int64               `json:"today"`
	ThisWeek    int64               `json:"thisWeek"`
	Recent      []domain.CarRecord  `json:"recent"`
	TopRegNos   []domain.ValueCount `json:"topRegNos"`
	TopPersons  []domain.ValueCount `json:"topPersons"`
	DailyCounts []DailyCount        `json:"dailyCounts"`
}

type Service interface {
	GetStats(ctx context.Context) (*Stats, error)
	Invalidate(ctx context.Context)
}

type Options struct {
	// CacheTTL of zero disables the snapshot cache.
	CacheTTL time.Duration
	// Location defines the calendar used for day and week boundaries.
	Location *time.Location
	Now      func() time.Time
}

type service struct {
	carRepo repository.CarRecordRepository
	redis   *redis.Client
	ttl     time.Duration
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(carRepo repository.CarRecordRepository, redis *redis.Client, opts Options, logger *zap.Logger) Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		carRepo: carRepo,
		redis:   redis,
		ttl:     opts.CacheTTL,
		loc:     opts.Location,
		now:     opts.Now,
		logger:  logger.Named("dashboard"),
	}
}

func (s *service) GetStats(ctx context.Context) (*Stats, error) {
	now := s.now().In(s.loc)
	y, m, d := now.Date()
	startOfToday := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	startOfWeek := time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, s.loc)

	// The version is read before any query runs. A mutation that lands while
	// the snapshot is being built bumps it, so the snapshot is stored under a
	// key nobody reads anymore.
	key, cacheable := s.snapshotKey(ctx, startOfToday)
	if cacheable {
		if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
			var stats Stats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	stats := &Stats{DailyCounts: make([]DailyCount, dailyWindow)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() (err error) {
		stats.Total, err = s.carRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Today, err = s.carRepo.CountBetween(gctx, &startOfToday, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.ThisWeek, err = s.carRepo.CountBetween(gctx, &startOfWeek, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.Recent, err = s.carRepo.Recent(gctx, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		stats.TopRegNos, err = s.carRepo.TopValues(gctx, domain.GroupByRegNo, topLimit)
		return err
	})
	g.Go(func() (err error) {
		stats.TopPersons, err = s.carRepo.TopValues(gctx, domain.GroupByPersonName, topLimit)
		return err
	})

	// Days are derived with time.Date so DST transitions still land on
	// local midnight.
	for i := 0; i < dailyWindow; i++ {
		offset := i - (dailyWindow - 1)
		dayStart := time.Date(y, m, d+offset, 0, 0, 0, 0, s.loc)
		dayEnd := time.Date(y, m, d+offset+1, 0, 0, 0, 0, s.loc)
		stats.DailyCounts[i].Date = dayStart.Format("2006-01-02")

		g.Go(func() (err error) {
			stats.DailyCounts[i].Count, err = s.carRepo.CountBetween(gctx, &dayStart, &dayEnd)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if stats.Recent == nil {
		stats.Recent = []domain.CarRecord{}
	}
	if stats.TopRegNos == nil {
		stats.TopRegNos = []domain.ValueCount{}
	}
	if stats.TopPersons == nil {
		stats.TopPersons = []domain.ValueCount{}
	}

	if cacheable {
		if statsJSON, err := json.Marshal(stats); err == nil {
			if err := s.redis.Set(ctx, key, statsJSON, s.ttl).Err(); err != nil {
				s.logger.Warn("cache dashboard stats", zap.Error(err))
			}
		}
	}

	return stats, nil
}

func (s *service) Invalidate(ctx context.Context) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.redis.Incr(ctx, versionKey).Err(); err != nil {
		s.logger.Warn("invalidate dashboard stats", zap.Error(err))
	}
}

// snapshotKey names the cached snapshot for the current facility day and
// cache version.
func (s *service) snapshotKey(ctx context.Context, day time.Time) (string, bool) {
	if !s.cacheEnabled() {
		return "", false
	}
	version, err := s.redis.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("read dashboard cache version", zap.Error(err))
		return "", false
	}
	return cacheKeyPrefix + day.Format("2006-01-02") + ":" + strconv.FormatInt(version, 10), true
}

func (s *service) cacheEnabled() bool {
	return s.redis != nil && s.ttl > 0
}
