package dashboard_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"car-portal/internal/domain"
	"car-portal/internal/mocks"
	"car-portal/internal/service/dashboard"
)

// setupTestRedis starts a throwaway Redis container. Skipped unless
// TEST_INTEGRATION is set.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "docker.io/redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	return client
}

func stubCounts(repo *mocks.CarRecordRepository) {
	repo.On("CountBetween", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	repo.On("Recent", mock.Anything, 10).Return([]domain.CarRecord{}, nil)
	repo.On("TopValues", mock.Anything, mock.Anything, 5).Return([]domain.ValueCount{}, nil)
}

func TestDashboardService_Cache(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	newCached := func(repo *mocks.CarRecordRepository, now *time.Time) dashboard.Service {
		require.NoError(t, client.FlushAll(ctx).Err())
		return dashboard.NewService(repo, client, dashboard.Options{
			CacheTTL: time.Minute,
			Location: facility,
			Now:      func() time.Time { return *now },
		}, nil)
	}

	t.Run("Second read is served from the snapshot", func(t *testing.T) {
		repo := new(mocks.CarRecordRepository)
		now := time.Date(2024, 3, 6, 14, 0, 0, 0, facility)
		svc := newCached(repo, &now)
		repo.On("Count", mock.Anything).Return(int64(42), nil)
		stubCounts(repo)

		first, err := svc.GetStats(ctx)
		require.NoError(t, err)
		second, err := svc.GetStats(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(42), second.Total)
		assert.Equal(t, first.DailyCounts, second.DailyCounts)
		repo.AssertNumberOfCalls(t, "Count", 1)
	})

	t.Run("Invalidate forces a rebuild", func(t *testing.T) {
		repo := new(mocks.CarRecordRepository)
		now := time.Date(2024, 3, 6, 14, 0, 0, 0, facility)
		svc := newCached(repo, &now)
		repo.On("Count", mock.Anything).Return(int64(42), nil).Once()
		repo.On("Count", mock.Anything).Return(int64(43), nil).Once()
		stubCounts(repo)

		_, err := svc.GetStats(ctx)
		require.NoError(t, err)
		svc.Invalidate(ctx)
		stats, err := svc.GetStats(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(43), stats.Total)
		repo.AssertNumberOfCalls(t, "Count", 2)
	})

	t.Run("Mutation during a rebuild does not leave a stale snapshot", func(t *testing.T) {
		repo := new(mocks.CarRecordRepository)
		now := time.Date(2024, 3, 6, 14, 0, 0, 0, facility)
		svc := newCached(repo, &now)
		repo.On("Count", mock.Anything).Return(int64(42), nil).Once().
			Run(func(mock.Arguments) { svc.Invalidate(ctx) })
		repo.On("Count", mock.Anything).Return(int64(43), nil).Once()
		stubCounts(repo)

		stale, err := svc.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(42), stale.Total)

		fresh, err := svc.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(43), fresh.Total)
	})

	t.Run("New facility day starts a new snapshot", func(t *testing.T) {
		repo := new(mocks.CarRecordRepository)
		now := time.Date(2024, 3, 6, 23, 59, 0, 0, facility)
		svc := newCached(repo, &now)
		repo.On("Count", mock.Anything).Return(int64(42), nil)
		stubCounts(repo)

		_, err := svc.GetStats(ctx)
		require.NoError(t, err)
		now = now.Add(2 * time.Minute)
		stats, err := svc.GetStats(ctx)
		require.NoError(t, err)

		assert.Equal(t, "2024-03-07", stats.DailyCounts[len(stats.DailyCounts)-1].Date)
		repo.AssertNumberOfCalls(t, "Count", 2)
	})
}
