// Package importer drives a bulk product import from an uploaded workbook
// through preview and confirmation to the backend submission.
package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"product-sheets-service/internal/models"
)

// State is the position of a session in the import flow
type State string

const (
	StateSelect    State = "select"
	StatePreview   State = "preview"
	StateImporting State = "importing"
	StateComplete  State = "complete"
)

// DefaultPreviewLimit caps the rows returned with a session view.
const DefaultPreviewLimit = 100

// summaryLimit is how many mapping errors a notice spells out.
const summaryLimit = 3

var ErrInvalidTransition = errors.New("invalid import state transition")

var transitions = map[State][]State{
	StateSelect:    {StatePreview},
	StatePreview:   {StateSelect, StateImporting},
	StateImporting: {StatePreview, StateComplete},
}

// NoticeLevel styles a notice
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is the transient message shown after a step
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Session is one import dialog, from file selection to result
type Session struct {
	ID               string                   `json:"id"`
	TenantID         string                   `json:"tenantId"`
	UserID           string                   `json:"userId,omitempty"`
	State            State                    `json:"state"`
	FileName         string                   `json:"fileName,omitempty"`
	Rows             []models.RowRecord       `json:"rows,omitempty"`
	UnknownHeaders   []string                 `json:"unknownHeaders,omitempty"`
	ValidationErrors []models.ValidationError `json:"validationErrors,omitempty"`
	MappingErrors    []models.MappingError    `json:"mappingErrors,omitempty"`
	Result           *models.ImportResult     `json:"result,omitempty"`
	Notice           *Notice                  `json:"notice,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
	UpdatedAt        time.Time                `json:"updatedAt"`
}

// NewSession returns a session waiting for a file.
func NewSession(id, tenantID, userID string, now time.Time) Session {
	return Session{
		ID:        id,
		TenantID:  tenantID,
		UserID:    userID,
		State:     StateSelect,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanMove reports whether the session may move to the given state.
func (s Session) CanMove(to State) bool {
	for _, next := range transitions[s.State] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Session) move(to State, now time.Time) (Session, error) {
	if !s.CanMove(to) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, to)
	}
	s.State = to
	s.UpdatedAt = now
	s.Notice = nil
	return s, nil
}

// Load holds the parsed rows of a file: select -> preview.
func (s Session) Load(fileName string, rows []models.RowRecord, unknown []string, verrs []models.ValidationError, now time.Time) (Session, error) {
	next, err := s.move(StatePreview, now)
	if err != nil {
		return s, err
	}
	next.FileName = fileName
	next.Rows = rows
	next.UnknownHeaders = unknown
	next.ValidationErrors = verrs
	next.MappingErrors = nil
	next.Result = nil
	return next, nil
}

// Repick drops the loaded file: preview -> select.
func (s Session) Repick(now time.Time) (Session, error) {
	next, err := s.move(StateSelect, now)
	if err != nil {
		return s, err
	}
	next.FileName = ""
	next.Rows = nil
	next.UnknownHeaders = nil
	next.ValidationErrors = nil
	next.MappingErrors = nil
	return next, nil
}

// Begin starts the submission: preview -> importing.
func (s Session) Begin(now time.Time) (Session, error) {
	next, err := s.move(StateImporting, now)
	if err != nil {
		return s, err
	}
	next.MappingErrors = nil
	next.Result = nil
	return next, nil
}

// Abort returns a failed submission to the preview: importing -> preview.
// The parsed rows are kept so the user can retry.
func (s Session) Abort(notice Notice, mappingErrs []models.MappingError, now time.Time) (Session, error) {
	next, err := s.move(StatePreview, now)
	if err != nil {
		return s, err
	}
	next.MappingErrors = mappingErrs
	next.Notice = &notice
	return next, nil
}

// Complete records the backend result: importing -> complete.
func (s Session) Complete(result models.ImportResult, mappingErrs []models.MappingError, now time.Time) (Session, error) {
	next, err := s.move(StateComplete, now)
	if err != nil {
		return s, err
	}
	next.Result = &result
	next.MappingErrors = mappingErrs
	notice := ResultNotice(result, len(mappingErrs))
	next.Notice = &notice
	return next, nil
}

// WithNotice sets the notice without changing state.
func (s Session) WithNotice(n Notice, now time.Time) Session {
	s.Notice = &n
	s.UpdatedAt = now
	return s
}

// Closable reports whether the dialog may be closed. A running import
// cannot be interrupted.
func (s Session) Closable() bool {
	return s.State != StateImporting
}

// Preview is the capped row table of a loaded file
type Preview struct {
	Rows    []models.RowRecord `json:"rows"`
	Total   int                `json:"total"`
	Omitted int                `json:"omitted"`
}

// PreviewOf returns at most limit rows of the session.
func PreviewOf(s Session, limit int) Preview {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	rows := s.Rows
	total := len(rows)
	if total > limit {
		rows = rows[:limit]
	}
	return Preview{Rows: rows, Total: total, Omitted: total - len(rows)}
}

// View is a session as returned to API clients
type View struct {
	Session
	Rows    []models.RowRecord `json:"rows,omitempty"`
	Preview *Preview           `json:"preview,omitempty"`
}

// ViewOf hides the full row list behind a capped preview.
func ViewOf(s Session, limit int) View {
	v := View{Session: s}
	if s.State == StatePreview || s.State == StateImporting {
		p := PreviewOf(s, limit)
		v.Preview = &p
	}
	return v
}

// SummarizeMappingErrors lists the first few mapping errors and counts the rest.
func SummarizeMappingErrors(errs []models.MappingError) string {
	lines := make([]string, 0, summaryLimit+1)
	for i, e := range errs {
		if i == summaryLimit {
			lines = append(lines, fmt.Sprintf("... và %d lỗi khác", len(errs)-summaryLimit))
			break
		}
		lines = append(lines, fmt.Sprintf("Dòng %d: %s", e.Row, e.Message))
	}
	return strings.Join(lines, "\n")
}

// ResultNotice describes a backend result.
func ResultNotice(r models.ImportResult, unmapped int) Notice {
	counts := fmt.Sprintf("%d tạo mới, %d cập nhật, %d lỗi", r.Results.Created, r.Results.Updated, r.Results.Failed)
	if unmapped > 0 {
		counts += fmt.Sprintf(", %d dòng bỏ qua", unmapped)
	}
	if r.Success && !r.Partial() && unmapped == 0 {
		return Notice{Level: NoticeSuccess, Message: "Nhập sản phẩm thành công: " + counts}
	}
	msg := "Nhập sản phẩm hoàn tất với lỗi: " + counts
	if !r.Success && r.Message != "" {
		msg = r.Message + " (" + counts + ")"
	}
	return Notice{Level: NoticeWarning, Message: msg}
}
