package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"car-portal/internal/domain"
	"car-portal/internal/handler"
	"car-portal/internal/middleware"
	"car-portal/internal/mocks"
	"car-portal/internal/service/dashboard"
)

var (
	testUser = &domain.User{ID: uuid.New(), Name: "Asha Rao", Role: domain.RoleUser}
	facility = time.FixedZone("facility", 5*3600+1800)
)

type cdnResolver struct{}

func (cdnResolver) URL(ref domain.AttachmentRef) string { return "https://cdn.example.com" + string(ref) }

func newTestApp(carSvc *mocks.CarService, dashSvc *mocks.DashboardService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(nil)})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.UserContextKey, testUser)
		c.Locals(middleware.UserIDContextKey, testUser.ID)
		return c.Next()
	})

	cars := handler.NewCarHandler(carSvc, cdnResolver{}, facility)
	dash := handler.NewDashboardHandler(dashSvc, cdnResolver{})

	api := app.Group("/api")
	api.Post("/car-entry", cars.Create)
	api.Get("/car-records", cars.List)
	api.Get("/car/:id", cars.Get)
	api.Put("/car/:id", cars.Update)
	api.Delete("/car/:id", cars.Delete)
	api.Get("/dashboard", dash.GetStats)
	return app
}

type testFile struct {
	field, name, contentType, body string
}

func multipartBody(t *testing.T, fields map[string]string, files []testFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestCarHandler_Create(t *testing.T) {
	t.Run("Multipart with photos", func(t *testing.T) {
		carSvc := new(mocks.CarService)
		app := newTestApp(carSvc, nil)

		body, contentType := multipartBody(t,
			map[string]string{"regNo": "AB123", "make": "Toyota", "inOutDateTime": "2024-03-05T09:30"},
			[]testFile{
				{"photos", "front.jpg", "image/jpeg", "front"},
				{"photos", "back.png", "image/png", "back"},
			})

		wantTime := time.Date(2024, 3, 5, 9, 30, 0, 0, facility)
		carSvc.On("Create", mock.Anything, testUser.ID, mock.MatchedBy(func(in domain.CreateCarRecordInput) bool {
			return in.RegNo == "AB123" && *in.Make == "Toyota" && in.PersonName == nil &&
				in.InOutDateTime != nil && in.InOutDateTime.Equal(wantTime)
		}), mock.MatchedBy(func(files domain.Attachments) bool {
			if len(files.Photos) != 2 || files.Video != nil {
				return false
			}
			data, _ := io.ReadAll(files.Photos[0].Reader)
			return files.Photos[0].FileName == "front.jpg" &&
				files.Photos[0].ContentType == "image/jpeg" &&
				string(data) == "front" &&
				files.Photos[1].ContentType == "image/png"
		})).Return(&domain.CarRecord{
			ID:        uuid.New(),
			RegNo:     "AB123",
			Photos:    domain.AttachmentList{"/uploads/1.jpg", "/uploads/2.png"},
			CreatedBy: testUser.ID,
		}, nil).Once()

		req := httptest.NewRequest("POST", "/api/car-entry", body)
		req.Header.Set("Content-Type", contentType)
		resp, err := app.Test(req)
		require.NoError(t, err)

		var got domain.CarRecord
		decode(t, resp, &got)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.Equal(t, []string{"https://cdn.example.com/uploads/1.jpg", "https://cdn.example.com/uploads/2.png"}, got.PhotoURLs)
		assert.Equal(t, testUser.ID, got.CreatedBy)
		carSvc.AssertExpectations(t)
	})

	t.Run("Too many photos", func(t *testing.T) {
		carSvc := new(mocks.CarService)
		app := newTestApp(carSvc, nil)

		files := make([]testFile, 7)
		for i := range files {
			files[i] = testFile{"photos", fmt.Sprintf("%d.jpg", i), "image/jpeg", "x"}
		}
		body, contentType := multipartBody(t, map[string]string{"regNo": "AB123"}, files)

		req := httptest.NewRequest("POST", "/api/car-entry", body)
		req.Header.Set("Content-Type", contentType)
		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		carSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing regNo", func(t *testing.T) {
		carSvc := new(mocks.CarService)
		app := newTestApp(carSvc, nil)

		carSvc.On("Create", mock.Anything, testUser.ID, mock.MatchedBy(func(in domain.CreateCarRecordInput) bool {
			return in.RegNo == ""
		}), mock.Anything).Return(nil, domain.NewValidationError("regNo", "regNo is required")).Once()

		req := httptest.NewRequest("POST", "/api/car-entry", strings.NewReader(`{"make":"Toyota"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		var got middleware.ErrorResponse
		decode(t, resp, &got)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "regNo is required", got.Message)
	})

	t.Run("Rejected media", func(t *testing.T) {
		carSvc := new(mocks.CarService)
		app := newTestApp(carSvc, nil)

		body, contentType := multipartBody(t, map[string]string{"regNo": "AB123"},
			[]testFile{{"video", "clip.txt", "text/plain", "nope"}})
		carSvc.On("Create", mock.Anything, testUser.ID, mock.Anything, mock.MatchedBy(func(files domain.Attachments) bool {
			return files.Video != nil && files.Video.ContentType == "text/plain"
		})).Return(nil, domain.NewMediaRejectedError("only video files are allowed", false)).Once()

		req := httptest.NewRequest("POST", "/api/car-entry", body)
		req.Header.Set("Content-Type", contentType)
		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
	})
}

func TestCarHandler_List(t *testing.T) {
	t.Run("Clamps limit and parses the date range", func(t *testing.T) {
		carSvc := new(mocks.CarService)
		app := newTestApp(carSvc, nil)

		from := time.Date(2024, 3, 1, 0, 0, 0, 0, facility)
		before := time.Date(2024, 3, 2, 0, 0, 0, 0, facility)
		carSvc.On("List", mock.Anything, mock.MatchedBy(func(q domain.CarQuery) bool {
			return q.Limit == domain.MaxLimit && q.Page == 2 &&
				q.SortBy == domain.SortByRegNo && q.SortDir == domain.SortAsc &&
				q.Filter.RegNo == "AB" && q.Filter.Status == "in" &&
				q.Filter.From.Equal(from) && q.Filter.To == nil && q.Filter.Before.Equal(before)
		})).Return(domain.NewPaginatedResponse([]domain.CarRecord{
			{ID: uuid.New(), RegNo: "AB123", Video: refPtr("/uploads/v.mp4")},
		}, 2, domain.MaxLimit, 101), nil).Once()

		req := httptest.NewRequest("GET",
			"/api/car-records?limit=500&page=2&sortBy=regNo&sortDir=asc&regNo=AB&status=in&startDate=2024-03-01&endDate=2024-03-01", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		var got domain.PaginatedResponse[domain.CarRecord]
		decode(t, resp, &got)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, domain.MaxLimit, got.Limit)
		assert.Equal(t, int64(101), got.Total)
		require.Len(t, got.Items, 1)
		require.NotNil(t, got.Items[0].VideoURL)
		assert.Equal(t, "https://cdn.example.com/uploads/v.mp4", *got.Items[0].VideoURL)
		carSvc.AssertExpectations(t)
	})

	t.Run("Invalid date", func(t *testing.T) {
		carSvc := new(mocks.CarService)
		app := newTestApp(carSvc, nil)

		resp, err := app.Test(httptest.NewRequest("GET", "/api/car-records?startDate=yesterday", nil))
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		carSvc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("Timestamp endDate is an inclusive bound", func(t *testing.T) {
		carSvc := new(mocks.CarService)
		app := newTestApp(carSvc, nil)

		to := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
		carSvc.On("List", mock.Anything, mock.MatchedBy(func(q domain.CarQuery) bool {
			return q.Filter.Before == nil && q.Filter.To != nil && q.Filter.To.Equal(to)
		})).Return(domain.NewPaginatedResponse([]domain.CarRecord{}, 1, domain.DefaultLimit, 0), nil).Once()

		resp, err := app.Test(httptest.NewRequest("GET", "/api/car-records?endDate=2024-03-01T18:30:00Z", nil))
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		carSvc.AssertExpectations(t)
	})
}

func TestCarHandler_GetUpdateDelete(t *testing.T) {
	id := uuid.New()

	t.Run("Invalid id", func(t *testing.T) {
		app := newTestApp(new(mocks.CarService), nil)

		resp, err := app.Test(httptest.NewRequest("GET", "/api/car/not-a-uuid", nil))
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Not found", func(t *testing.T) {
		carSvc := new(mocks.CarService)
		app := newTestApp(carSvc, nil)
		carSvc.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound).Once()

		resp, err := app.Test(httptest.NewRequest("GET", "/api/car/"+id.String(), nil))
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("Update passes only sent fields", func(t *testing.T) {
		carSvc := new(mocks.CarService)
		app := newTestApp(carSvc, nil)

		carSvc.On("Update", mock.Anything, id, mock.MatchedBy(func(p domain.CarRecordPatch) bool {
			return p.PersonName != nil && *p.PersonName == "" && p.RegNo == nil && p.Make == nil &&
				p.CreatedBy == nil && p.InOutDateTime == nil
		}), mock.MatchedBy(func(files domain.Attachments) bool { return files.Empty() })).
			Return(&domain.CarRecord{ID: id, RegNo: "AB123"}, nil).Once()

		req := httptest.NewRequest("PUT", "/api/car/"+id.String(),
			strings.NewReader(`{"personName":"","createdBy":"`+uuid.NewString()+`"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		carSvc.AssertExpectations(t)
	})

	t.Run("Update with new video", func(t *testing.T) {
		carSvc := new(mocks.CarService)
		app := newTestApp(carSvc, nil)

		body, contentType := multipartBody(t, map[string]string{"inOutStatus": "out"},
			[]testFile{{"video", "clip.mp4", "video/mp4", "v"}})
		carSvc.On("Update", mock.Anything, id, mock.MatchedBy(func(p domain.CarRecordPatch) bool {
			return p.InOutStatus != nil && *p.InOutStatus == "out" && p.RegNo == nil
		}), mock.MatchedBy(func(files domain.Attachments) bool {
			return files.Video != nil && len(files.Photos) == 0
		})).Return(&domain.CarRecord{ID: id, RegNo: "AB123"}, nil).Once()

		req := httptest.NewRequest("PUT", "/api/car/"+id.String(), body)
		req.Header.Set("Content-Type", contentType)
		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		carSvc.AssertExpectations(t)
	})

	t.Run("Delete", func(t *testing.T) {
		carSvc := new(mocks.CarService)
		app := newTestApp(carSvc, nil)
		carSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		resp, err := app.Test(httptest.NewRequest("DELETE", "/api/car/"+id.String(), nil))
		require.NoError(t, err)

		var got map[string]string
		decode(t, resp, &got)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "Deleted", got["message"])
	})
}

func TestDashboardHandler_GetStats(t *testing.T) {
	dashSvc := new(mocks.DashboardService)
	app := newTestApp(new(mocks.CarService), dashSvc)

	dashSvc.On("GetStats", mock.Anything).Return(&dashboard.Stats{
		Total:       3,
		Recent:      []domain.CarRecord{{ID: uuid.New(), RegNo: "AB123", Photos: domain.AttachmentList{"/uploads/1.jpg"}}},
		TopRegNos:   []domain.ValueCount{{Value: "AB123", Count: 2}, {Value: "CD999", Count: 1}},
		TopPersons:  []domain.ValueCount{},
		DailyCounts: make([]dashboard.DailyCount, 7),
	}, nil).Once()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/dashboard", nil))
	require.NoError(t, err)

	var got dashboard.Stats
	decode(t, resp, &got)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), got.Total)
	assert.Equal(t, []string{"https://cdn.example.com/uploads/1.jpg"}, got.Recent[0].PhotoURLs)
	assert.Len(t, got.DailyCounts, 7)
}

func refPtr(r domain.AttachmentRef) *domain.AttachmentRef { return &r }
