package handler

import (
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"car-portal/internal/domain"
	"car-portal/internal/middleware"
	"car-portal/internal/service/car"
)

const (
	photosField = "photos"
	videoField  = "video"
)

// URLResolver turns a stored attachment reference into a client URL.
type URLResolver interface {
	URL(ref domain.AttachmentRef) string
}

type CarHandler struct {
	carService car.Service
	urls       URLResolver
	loc        *time.Location
}

func NewCarHandler(carService car.Service, urls URLResolver, loc *time.Location) *CarHandler {
	if loc == nil {
		loc = time.Local
	}
	return &CarHandler{
		carService: carService,
		urls:       urls,
		loc:        loc,
	}
}

// carFields holds the text fields of a create or update request. A nil
// pointer means the field was not sent at all.
type carFields struct {
	RegNo         *string `json:"regNo"`
	PersonName    *string `json:"personName"`
	Make          *string `json:"make"`
	Model         *string `json:"model"`
	InOutStatus   *string `json:"inOutStatus"`
	InOutDateTime *string `json:"inOutDateTime"`
}

func (h *CarHandler) Create(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return middleware.Unauthorized("User not authenticated")
	}

	fields, form, err := readCarRequest(c)
	if err != nil {
		return err
	}

	input := domain.CreateCarRecordInput{
		PersonName:  fields.PersonName,
		Make:        fields.Make,
		Model:       fields.Model,
		InOutStatus: fields.InOutStatus,
	}
	if fields.RegNo != nil {
		input.RegNo = *fields.RegNo
	}
	if input.InOutDateTime, err = h.optionalTime("inOutDateTime", fields.InOutDateTime); err != nil {
		return err
	}

	files, closeFiles, err := openAttachments(form)
	if err != nil {
		return err
	}
	defer closeFiles()

	record, err := h.carService.Create(c.Context(), user.ID, input, files)
	if err != nil {
		return err
	}

	h.resolve(record)
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *CarHandler) List(c *fiber.Ctx) error {
	q := domain.CarQuery{
		Filter: domain.CarFilter{
			Search:     c.Query("search"),
			RegNo:      c.Query("regNo"),
			PersonName: c.Query("personName"),
			Make:       c.Query("make"),
			Model:      c.Query("model"),
			Status:     c.Query("status"),
		},
		PaginationParams: domain.PaginationParams{
			Page:  c.QueryInt("page", 1),
			Limit: c.QueryInt("limit", domain.DefaultLimit),
		},
		SortBy:  domain.SortField(c.Query("sortBy")),
		SortDir: domain.SortDir(c.Query("sortDir")),
	}

	if start := strings.TrimSpace(c.Query("startDate")); start != "" {
		t, _, err := parseDateTime(start, h.loc)
		if err != nil {
			return middleware.BadRequest("Invalid startDate")
		}
		q.Filter.From = &t
	}
	if end := strings.TrimSpace(c.Query("endDate")); end != "" {
		t, dateOnly, err := parseDateTime(end, h.loc)
		if err != nil {
			return middleware.BadRequest("Invalid endDate")
		}
		if dateOnly {
			next := t.AddDate(0, 0, 1)
			q.Filter.Before = &next
		} else {
			q.Filter.To = &t
		}
	}
	q.Validate()

	result, err := h.carService.List(c.Context(), q)
	if err != nil {
		return err
	}

	for i := range result.Items {
		h.resolve(&result.Items[i])
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *CarHandler) Get(c *fiber.Ctx) error {
	id, err := parseRecordID(c)
	if err != nil {
		return err
	}

	record, err := h.carService.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	h.resolve(record)
	return c.Status(fiber.StatusOK).JSON(record)
}

func (h *CarHandler) Update(c *fiber.Ctx) error {
	id, err := parseRecordID(c)
	if err != nil {
		return err
	}

	fields, form, err := readCarRequest(c)
	if err != nil {
		return err
	}

	patch := domain.CarRecordPatch{
		RegNo:       fields.RegNo,
		PersonName:  fields.PersonName,
		Make:        fields.Make,
		Model:       fields.Model,
		InOutStatus: fields.InOutStatus,
	}
	if fields.InOutDateTime != nil && strings.TrimSpace(*fields.InOutDateTime) != "" {
		if patch.InOutDateTime, err = h.optionalTime("inOutDateTime", fields.InOutDateTime); err != nil {
			return err
		}
	}

	files, closeFiles, err := openAttachments(form)
	if err != nil {
		return err
	}
	defer closeFiles()

	record, err := h.carService.Update(c.Context(), id, patch, files)
	if err != nil {
		return err
	}

	h.resolve(record)
	return c.Status(fiber.StatusOK).JSON(record)
}

func (h *CarHandler) Delete(c *fiber.Ctx) error {
	id, err := parseRecordID(c)
	if err != nil {
		return err
	}

	if err := h.carService.Delete(c.Context(), id); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Deleted"})
}

func (h *CarHandler) resolve(record *domain.CarRecord) {
	if record != nil && h.urls != nil {
		record.ResolveURLs(h.urls.URL)
	}
}

func (h *CarHandler) optionalTime(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, _, err := parseDateTime(*value, h.loc)
	if err != nil {
		return nil, middleware.BadRequest("Invalid " + field)
	}
	return &t, nil
}

func parseRecordID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, middleware.BadRequest("Invalid record ID")
	}
	return id, nil
}

// readCarRequest accepts either a multipart form (fields plus files) or a
// JSON body with the same field names.
func readCarRequest(c *fiber.Ctx) (carFields, *multipart.Form, error) {
	var fields carFields

	contentType := strings.ToLower(string(c.Request().Header.ContentType()))
	if !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		if len(c.Body()) == 0 {
			return fields, nil, nil
		}
		if err := c.BodyParser(&fields); err != nil {
			return fields, nil, middleware.BadRequest("Invalid request body")
		}
		return fields, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fields, nil, middleware.BadRequest("Invalid multipart form")
	}

	value := func(key string) *string {
		if vs, ok := form.Value[key]; ok && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}
	fields.RegNo = value("regNo")
	fields.PersonName = value("personName")
	fields.Make = value("make")
	fields.Model = value("model")
	fields.InOutStatus = value("inOutStatus")
	fields.InOutDateTime = value("inOutDateTime")

	return fields, form, nil
}

// openAttachments opens the uploaded files of form. The returned func closes
// every opened file and must be called once the service is done with them.
func openAttachments(form *multipart.Form) (domain.Attachments, func(), error) {
	var files domain.Attachments
	var closers []io.Closer
	closeAll := func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}
	if form == nil {
		return files, closeAll, nil
	}

	photos := form.File[photosField]
	videos := form.File[videoField]
	if len(photos) > domain.MaxPhotos {
		return files, closeAll, middleware.BadRequest("At most 6 photos are allowed")
	}
	if len(videos) > 1 {
		return files, closeAll, middleware.BadRequest("Only one video is allowed")
	}

	open := func(fh *multipart.FileHeader) (domain.Upload, error) {
		f, err := fh.Open()
		if err != nil {
			return domain.Upload{}, middleware.BadRequest("Failed to read file " + fh.Filename)
		}
		closers = append(closers, f)
		return domain.Upload{
			Reader:      f,
			FileName:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
		}, nil
	}

	for _, fh := range photos {
		upload, err := open(fh)
		if err != nil {
			closeAll()
			return domain.Attachments{}, func() {}, err
		}
		files.Photos = append(files.Photos, upload)
	}
	if len(videos) == 1 {
		upload, err := open(videos[0])
		if err != nil {
			closeAll()
			return domain.Attachments{}, func() {}, err
		}
		files.Video = &upload
	}

	return files, closeAll, nil
}

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseDateTime accepts RFC 3339, an HTML datetime-local value or a bare
// date. Values without an offset are read in loc. dateOnly reports the bare
// date form.
func parseDateTime(s string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err = time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, nil
		}
	}
	if t, err = time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, err
}
