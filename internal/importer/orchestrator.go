package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"product-sheets-service/internal/events"
	"product-sheets-service/internal/mapping"
	"product-sheets-service/internal/metrics"
	"product-sheets-service/internal/models"
	"product-sheets-service/internal/validation"
	"product-sheets-service/internal/workbook"
)

var ErrUnsupportedFile = errors.New("unsupported file type")

var acceptedExtensions = map[string]models.ImportFormat{
	".xlsx": models.ImportFormatXLSX,
	".xls":  models.ImportFormatXLS,
}

// Catalog is the backend the orchestrator reads reference data from and
// submits products to
type Catalog interface {
	FetchReferenceData(ctx context.Context) (*models.ReferenceData, error)
	BulkImport(ctx context.Context, products []models.MappedProduct) (*models.ImportResult, error)
}

// Publisher announces finished imports
type Publisher interface {
	PublishImportCompleted(ctx context.Context, event events.ImportCompletedEvent) error
}

// Orchestrator runs import sessions
type Orchestrator struct {
	store        Store
	catalog      Catalog
	publisher    Publisher
	logger       *logrus.Entry
	now          func() time.Time
	newID        func() string
	previewLimit int
	validate     *validator.Validate
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

func WithLogger(l *logrus.Logger) Option {
	return func(o *Orchestrator) { o.logger = l.WithField("component", "importer") }
}

func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithIDGenerator(f func() string) Option {
	return func(o *Orchestrator) { o.newID = f }
}

func WithPreviewLimit(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.previewLimit = n
		}
	}
}

func New(store Store, catalog Catalog, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:        store,
		catalog:      catalog,
		logger:       logrus.StandardLogger().WithField("component", "importer"),
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
		previewLimit: DefaultPreviewLimit,
		validate:     mapping.NewValidator(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PreviewLimit is the number of rows a session view carries.
func (o *Orchestrator) PreviewLimit() int {
	return o.previewLimit
}

// Open starts a session waiting for a file.
func (o *Orchestrator) Open(ctx context.Context, tenantID, userID string) (Session, error) {
	s := NewSession(o.newID(), tenantID, userID, o.now())
	if err := o.store.Save(ctx, s); err != nil {
		return Session{}, err
	}
	metrics.ObserveSession("opened")
	o.logger.WithFields(logrus.Fields{"session_id": s.ID, "tenant_id": tenantID}).Debug("Import session opened")
	return s, nil
}

// Get returns a session.
func (o *Orchestrator) Get(ctx context.Context, id string) (Session, error) {
	return o.store.Get(ctx, id)
}

// Upload parses a spreadsheet into the session: select -> preview. When the
// file cannot be used the session stays in select with an error notice and
// the returned error says why.
func (o *Orchestrator) Upload(ctx context.Context, id, fileName string, r io.Reader) (Session, error) {
	unlock, err := o.store.Lock(ctx, id)
	if err != nil {
		return Session{}, err
	}
	defer unlock()

	s, err := o.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !s.CanMove(StatePreview) {
		return s, fmt.Errorf("%w: upload in state %s", ErrInvalidTransition, s.State)
	}
	format, ok := acceptedExtensions[strings.ToLower(filepath.Ext(fileName))]
	if !ok {
		s = s.WithNotice(Notice{Level: NoticeError, Message: "Chỉ hỗ trợ file Excel (.xlsx, .xls)"}, o.now())
		return o.fail(ctx, s, ErrUnsupportedFile)
	}
	log := o.logger.WithFields(logrus.Fields{"session_id": id, "file": fileName, "format": format})

	ref, err := o.catalog.FetchReferenceData(ctx)
	if err != nil {
		log.WithError(err).Warn("Reference data unavailable for upload")
		s = s.WithNotice(Notice{Level: NoticeError, Message: "Không thể tải dữ liệu tham chiếu, vui lòng thử lại"}, o.now())
		return o.fail(ctx, s, err)
	}
	schema := models.ProductSchema(ref)
	if err := schema.CheckKeys(); err != nil {
		log.WithError(err).Error("Reference data produced an invalid column layout")
		s = s.WithNotice(Notice{Level: NoticeError, Message: "Dữ liệu tham chiếu không hợp lệ, vui lòng liên hệ quản trị viên"}, o.now())
		return o.fail(ctx, s, err)
	}

	res, err := workbook.Read(r, workbook.WithSchema(schema))
	if err != nil {
		log.WithError(err).Info("Uploaded file could not be parsed")
		metrics.ObserveSession("parse_failed")
		s = s.WithNotice(Notice{Level: NoticeError, Message: "Không thể đọc file " + fileName + ". Vui lòng kiểm tra lại định dạng file."}, o.now())
		return o.fail(ctx, s, err)
	}

	records := make([]models.RowRecord, len(res.Records))
	for i, rec := range res.Records {
		records[i] = schema.Decode(rec)
	}
	verrs := validation.ValidateAll(records, schema)

	s, err = s.Load(fileName, records, res.UnknownHeaders, verrs, o.now())
	if err != nil {
		return s, err
	}
	if n := uploadNotice(len(records), verrs, res.UnknownHeaders); n != nil {
		s = s.WithNotice(*n, o.now())
	}
	if err := o.store.Save(ctx, s); err != nil {
		return s, err
	}

	metrics.ObserveSession("uploaded")
	log.WithFields(logrus.Fields{"rows": len(records), "invalid_rows": len(verrs)}).Info("Import file loaded")
	return s, nil
}

// Repick drops the loaded file so another can be chosen: preview -> select.
func (o *Orchestrator) Repick(ctx context.Context, id string) (Session, error) {
	unlock, err := o.store.Lock(ctx, id)
	if err != nil {
		return Session{}, err
	}
	defer unlock()

	s, err := o.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	s, err = s.Repick(o.now())
	if err != nil {
		return s, err
	}
	if err := o.store.Save(ctx, s); err != nil {
		return s, err
	}
	metrics.ObserveSession("repicked")
	return s, nil
}

// Confirm maps every loaded row and submits the valid ones in one bulk
// request. Rows that fail mapping are reported without blocking the rest.
// If nothing maps, or the backend cannot be reached, the session returns to
// preview with an error notice.
func (o *Orchestrator) Confirm(ctx context.Context, id string) (Session, error) {
	unlock, err := o.store.Lock(ctx, id)
	if err != nil {
		return Session{}, err
	}
	defer unlock()

	s, err := o.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	s, err = s.Begin(o.now())
	if err != nil {
		return s, err
	}
	if err := o.store.Save(ctx, s); err != nil {
		return s, err
	}

	// the outcome is persisted even if the caller goes away mid-submission
	saveCtx := context.WithoutCancel(ctx)
	log := o.logger.WithFields(logrus.Fields{"session_id": id, "tenant_id": s.TenantID, "rows": len(s.Rows)})

	ref, err := o.catalog.FetchReferenceData(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load reference data for import")
		return o.abort(saveCtx, s, Notice{Level: NoticeError, Message: "Không thể tải dữ liệu tham chiếu, vui lòng thử lại"}, nil, err)
	}

	mapped, mErrs := mapping.NewMapper(ref, mapping.WithValidator(o.validate)).MapAll(s.Rows)
	if len(mapped) == 0 {
		log.WithField("mapping_errors", len(mErrs)).Warn("No row could be mapped, import aborted")
		msg := "Không có dòng hợp lệ để nhập"
		if len(mErrs) > 0 {
			msg += ":\n" + SummarizeMappingErrors(mErrs)
		}
		return o.abort(saveCtx, s, Notice{Level: NoticeError, Message: msg}, mErrs, nil)
	}

	result, err := o.catalog.BulkImport(ctx, mapped)
	if err != nil {
		log.WithError(err).Error("Bulk import submission failed")
		metrics.ObserveSubmission("error")
		return o.abort(saveCtx, s, Notice{Level: NoticeError, Message: "Nhập sản phẩm thất bại, vui lòng thử lại"}, mErrs, err)
	}

	s, err = s.Complete(*result, mErrs, o.now())
	if err != nil {
		return s, err
	}
	if len(mErrs) > 0 {
		n := *s.Notice
		n.Message += "\n" + SummarizeMappingErrors(mErrs)
		s = s.WithNotice(n, o.now())
	}
	if err := o.store.Save(saveCtx, s); err != nil {
		return s, err
	}

	outcome := "success"
	if s.Notice.Level != NoticeSuccess {
		outcome = "partial"
	}
	metrics.ObserveSubmission(outcome)
	metrics.ObserveRows(result.Results.Created, result.Results.Updated, result.Results.Failed, len(mErrs))

	if o.publisher != nil {
		event := events.ImportCompletedEvent{
			TenantID:      s.TenantID,
			UserID:        s.UserID,
			SessionID:     s.ID,
			FileName:      s.FileName,
			Rows:          len(s.Rows),
			Created:       result.Results.Created,
			Updated:       result.Results.Updated,
			Failed:        result.Results.Failed,
			MappingFailed: len(mErrs),
			Success:       result.Success,
		}
		if err := o.publisher.PublishImportCompleted(saveCtx, event); err != nil {
			log.WithError(err).Warn("Failed to publish import event")
		}
	}

	log.WithFields(logrus.Fields{
		"created": result.Results.Created,
		"updated": result.Results.Updated,
		"failed":  result.Results.Failed,
	}).Info("Import completed")
	return s, nil
}

// Close discards the session. A running import cannot be closed.
func (o *Orchestrator) Close(ctx context.Context, id string) error {
	unlock, err := o.store.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	s, err := o.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.Closable() {
		return ErrImportInFlight
	}
	if err := o.store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ObserveSession("closed")
	return nil
}

// fail saves a session left in select after a rejected upload.
func (o *Orchestrator) fail(ctx context.Context, s Session, cause error) (Session, error) {
	if err := o.store.Save(ctx, s); err != nil {
		return s, err
	}
	return s, cause
}

func (o *Orchestrator) abort(ctx context.Context, s Session, n Notice, mErrs []models.MappingError, cause error) (Session, error) {
	s, err := s.Abort(n, mErrs, o.now())
	if err != nil {
		return s, err
	}
	if cause == nil {
		metrics.ObserveSubmission("aborted")
	}
	if err := o.store.Save(ctx, s); err != nil {
		return s, err
	}
	return s, cause
}

func uploadNotice(rows int, verrs []models.ValidationError, unknown []string) *Notice {
	switch {
	case rows == 0:
		return &Notice{Level: NoticeWarning, Message: "File không có dòng dữ liệu nào"}
	case len(verrs) > 0:
		return &Notice{Level: NoticeWarning, Message: fmt.Sprintf("Có %d/%d dòng chưa hợp lệ", len(verrs), rows)}
	case len(unknown) > 0:
		return &Notice{Level: NoticeWarning, Message: "Bỏ qua các cột không xác định: " + strings.Join(unknown, ", ")}
	}
	return nil
}
