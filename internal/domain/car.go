package domain

import (
	"database/sql/driver"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const MaxPhotos = 6

// AttachmentRef identifies a stored blob. For the disk backend it is the
// public path (/uploads/<name>), for object storage the object key.
type AttachmentRef string

// AttachmentList is the ordered photo list, persisted as a text[] column.
type AttachmentList []AttachmentRef

func (a AttachmentList) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	arr := make(pq.StringArray, len(a))
	for i, ref := range a {
		arr[i] = string(ref)
	}
	return arr.Value()
}

func (a *AttachmentList) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	list := make(AttachmentList, len(arr))
	for i, s := range arr {
		list[i] = AttachmentRef(s)
	}
	*a = list
	return nil
}

type MediaCategory string

const (
	MediaImage MediaCategory = "image"
	MediaVideo MediaCategory = "video"
)

type InOutStatus string

const (
	StatusIn  InOutStatus = "in"
	StatusOut InOutStatus = "out"
)

type CarRecord struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	RegNo         string         `json:"regNo" db:"reg_no"`
	PersonName    *string        `json:"personName,omitempty" db:"person_name"`
	Make          *string        `json:"make,omitempty" db:"make"`
	Model         *string        `json:"model,omitempty" db:"model"`
	InOutStatus   *string        `json:"inOutStatus,omitempty" db:"in_out_status"`
	InOutDateTime time.Time      `json:"inOutDateTime" db:"in_out_date_time"`
	Photos        AttachmentList `json:"photos" db:"photos"`
	Video         *AttachmentRef `json:"video,omitempty" db:"video"`
	CreatedBy     uuid.UUID      `json:"createdBy" db:"created_by"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" db:"updated_at"`

	PhotoURLs []string `json:"photoUrls,omitempty" db:"-"`
	VideoURL  *string  `json:"videoUrl,omitempty" db:"-"`
}

// Attachments returns every blob reference the record holds.
func (c *CarRecord) Attachments() []AttachmentRef {
	refs := make([]AttachmentRef, 0, len(c.Photos)+1)
	refs = append(refs, c.Photos...)
	if c.Video != nil {
		refs = append(refs, *c.Video)
	}
	return refs
}

// ResolveURLs fills the public URL fields from the stored references.
func (c *CarRecord) ResolveURLs(resolve func(AttachmentRef) string) {
	c.PhotoURLs = make([]string, len(c.Photos))
	for i, ref := range c.Photos {
		c.PhotoURLs[i] = resolve(ref)
	}
	c.VideoURL = nil
	if c.Video != nil {
		u := resolve(*c.Video)
		c.VideoURL = &u
	}
}

type CreateCarRecordInput struct {
	RegNo         string     `json:"regNo"`
	PersonName    *string    `json:"personName,omitempty"`
	Make          *string    `json:"make,omitempty"`
	Model         *string    `json:"model,omitempty"`
	InOutStatus   *string    `json:"inOutStatus,omitempty"`
	InOutDateTime *time.Time `json:"inOutDateTime,omitempty"`
}

// CarRecordPatch carries the fields of a partial update. Nil means unchanged;
// a non-nil empty string clears an optional text field. CreatedBy is accepted
// so callers can pass request payloads through verbatim, but it is never
// applied.
type CarRecordPatch struct {
	RegNo         *string
	PersonName    *string
	Make          *string
	Model         *string
	InOutStatus   *string
	InOutDateTime *time.Time
	Photos        AttachmentList
	Video         *AttachmentRef
	CreatedBy     *uuid.UUID
}

// Upload is one decoded file handed over by the request layer.
type Upload struct {
	Reader      io.Reader
	FileName    string
	ContentType string
	Size        int64
}

// Attachments groups the files sent with a create or update.
type Attachments struct {
	Photos []Upload
	Video  *Upload
}

func (a Attachments) Empty() bool {
	return len(a.Photos) == 0 && a.Video == nil
}

type ValueCount struct {
	Value string `json:"value" db:"value"`
	Count int64  `json:"count" db:"count"`
}

type GroupField string

const (
	GroupByRegNo      GroupField = "regNo"
	GroupByPersonName GroupField = "personName"
)

// NormalizeOptional trims s and maps blank input to nil.
func NormalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
