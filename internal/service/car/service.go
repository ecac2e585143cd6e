package car

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"car-portal/internal/domain"
	"car-portal/internal/media"
	"car-portal/internal/repository"
)

// CacheInvalidator drops derived read models after a record mutation.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Limits caps the size of each ingested attachment.
type Limits struct {
	ImageBytes int64
	VideoBytes int64
}

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input domain.CreateCarRecordInput, files domain.Attachments) (*domain.CarRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CarRecord, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.CarRecordPatch, files domain.Attachments) (*domain.CarRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q domain.CarQuery) (domain.PaginatedResponse[domain.CarRecord], error)
}

type service struct {
	carRepo repository.CarRecordRepository
	store   media.Store
	cache   CacheInvalidator
	limits  Limits
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(carRepo repository.CarRecordRepository, store media.Store, cache CacheInvalidator, limits Limits, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		carRepo: carRepo,
		store:   store,
		cache:   cache,
		limits:  limits,
		logger:  logger.Named("car"),
		now:     time.Now,
	}
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input domain.CreateCarRecordInput, files domain.Attachments) (*domain.CarRecord, error) {
	regNo := strings.TrimSpace(input.RegNo)
	if regNo == "" {
		return nil, domain.NewValidationError("regNo", "regNo is required")
	}
	if err := checkAttachmentCounts(files); err != nil {
		return nil, err
	}

	ingested, err := s.ingest(ctx, files)
	if err != nil {
		return nil, err
	}

	inOut := s.now()
	if input.InOutDateTime != nil {
		inOut = *input.InOutDateTime
	}

	record := &domain.CarRecord{
		ID:            uuid.New(),
		RegNo:         regNo,
		PersonName:    domain.NormalizeOptional(input.PersonName),
		Make:          domain.NormalizeOptional(input.Make),
		Model:         domain.NormalizeOptional(input.Model),
		InOutStatus:   domain.NormalizeOptional(input.InOutStatus),
		InOutDateTime: inOut,
		Photos:        ingested.photos,
		Video:         ingested.video,
		CreatedBy:     userID,
	}

	if err := s.carRepo.Create(ctx, record); err != nil {
		s.discard(ctx, ingested.refs())
		return nil, err
	}

	s.logger.Info("car record created",
		zap.String("id", record.ID.String()),
		zap.String("reg_no", record.RegNo),
		zap.Int("photos", len(record.Photos)),
		zap.Bool("video", record.Video != nil),
	)
	s.invalidate(ctx)
	return record, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*domain.CarRecord, error) {
	return s.carRepo.GetByID(ctx, id)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, patch domain.CarRecordPatch, files domain.Attachments) (*domain.CarRecord, error) {
	// Attachment references only ever come from ingestion, and the creator
	// is fixed at creation.
	patch.CreatedBy = nil
	patch.Photos = nil
	patch.Video = nil

	if patch.RegNo != nil {
		trimmed := strings.TrimSpace(*patch.RegNo)
		if trimmed == "" {
			return nil, domain.NewValidationError("regNo", "regNo cannot be empty")
		}
		patch.RegNo = &trimmed
	}
	if err := checkAttachmentCounts(files); err != nil {
		return nil, err
	}

	existing, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ingested, err := s.ingest(ctx, files)
	if err != nil {
		return nil, err
	}

	var replaced []domain.AttachmentRef
	if len(files.Photos) > 0 {
		patch.Photos = ingested.photos
		replaced = append(replaced, existing.Photos...)
	}
	if files.Video != nil {
		patch.Video = ingested.video
		if existing.Video != nil {
			replaced = append(replaced, *existing.Video)
		}
	}

	updated, err := s.carRepo.Update(ctx, id, patch)
	if err != nil {
		s.discard(ctx, ingested.refs())
		return nil, err
	}

	s.discard(ctx, replaced)
	s.logger.Info("car record updated",
		zap.String("id", id.String()),
		zap.Int("replaced_blobs", len(replaced)),
	)
	s.invalidate(ctx)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.carRepo.Delete(ctx, id)
	if err != nil {
		return err
	}

	refs := deleted.Attachments()
	s.discard(ctx, refs)
	s.logger.Info("car record deleted", zap.String("id", id.String()), zap.Int("blobs", len(refs)))
	s.invalidate(ctx)
	return nil
}

func (s *service) List(ctx context.Context, q domain.CarQuery) (domain.PaginatedResponse[domain.CarRecord], error) {
	q.Validate()

	records, total, err := s.carRepo.Query(ctx, q)
	if err != nil {
		return domain.PaginatedResponse[domain.CarRecord]{}, err
	}
	return domain.NewPaginatedResponse(records, q.Page, q.Limit, total), nil
}

type ingestResult struct {
	photos domain.AttachmentList
	video  *domain.AttachmentRef
}

func (r ingestResult) refs() []domain.AttachmentRef {
	refs := append([]domain.AttachmentRef{}, r.photos...)
	if r.video != nil {
		refs = append(refs, *r.video)
	}
	return refs
}

// ingest stores every upload in files. If any of them is rejected the blobs
// stored so far are removed before the error is returned.
func (s *service) ingest(ctx context.Context, files domain.Attachments) (ingestResult, error) {
	var res ingestResult
	if files.Empty() {
		return res, nil
	}

	res.photos = make(domain.AttachmentList, 0, len(files.Photos))
	for _, upload := range files.Photos {
		ref, err := s.store.Store(ctx, domain.MediaImage, upload, s.limits.ImageBytes)
		if err != nil {
			s.discard(ctx, res.refs())
			return ingestResult{}, err
		}
		res.photos = append(res.photos, ref)
	}

	if files.Video != nil {
		ref, err := s.store.Store(ctx, domain.MediaVideo, *files.Video, s.limits.VideoBytes)
		if err != nil {
			s.discard(ctx, res.refs())
			return ingestResult{}, err
		}
		res.video = &ref
	}
	return res, nil
}

// discard deletes blobs without inheriting the caller's cancellation, so a
// client hanging up does not leave orphans behind.
func (s *service) discard(ctx context.Context, refs []domain.AttachmentRef) {
	if len(refs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		s.store.Delete(ctx, ref)
	}
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(context.WithoutCancel(ctx))
	}
}

func checkAttachmentCounts(files domain.Attachments) error {
	if len(files.Photos) > domain.MaxPhotos {
		return domain.NewValidationError("photos", fmt.Sprintf("at most %d photos are allowed", domain.MaxPhotos))
	}
	return nil
}
