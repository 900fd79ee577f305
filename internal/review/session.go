// Package review holds the parse → preview → select → submit flow shared by
// every import method.
//
// A Session is owned by one caller at a time (one browser session, one CLI
// run) and is not safe for concurrent use. The HTTP layer keeps sessions in
// the user's scs session as JSON and hands them back on every request.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mrlokans/pubimport/internal/entities"
	"github.com/mrlokans/pubimport/internal/importers"
)

// State is the lifecycle position of a Session.
type State string

const (
	StateIdle         State = "idle"
	StateParsing      State = "parsing"
	StatePreviewReady State = "preview_ready"
	StateParseFailed  State = "parse_failed"
	StateSubmitting   State = "submitting"
	StateCleared      State = "cleared"
)

// FallbackSubmitMessage is shown when a failed submit carries no server message.
const FallbackSubmitMessage = "Failed to import publications"

var (
	ErrNothingSelected = errors.New("no publications selected")
	ErrNoRecords       = errors.New("no publications found")
	ErrUnknownRecord   = errors.New("unknown publication id")
	ErrNotReady        = errors.New("session has no parsed publications")
)

// Submitter persists an import request. apiclient.Client and the
// publications repository both satisfy it.
type Submitter interface {
	ImportPublications(ctx context.Context, req entities.ImportRequest) (*entities.ImportResponse, error)
}

// ServerMessenger is implemented by errors that carry a message from the
// persistence endpoint.
type ServerMessenger interface {
	ServerMessage() string
}

// SubmitError is returned by Submit when persisting failed. The session is
// left in preview_ready with its records and selection intact.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Session is the review state for one import method.
type Session struct {
	Method  entities.ImportMethod
	State   State
	Content string
	Records []entities.Publication
	Errors  []string
	Message string

	selected map[string]bool
}

// NewSession returns an idle session for method.
func NewSession(method entities.ImportMethod) *Session {
	return &Session{
		Method:   method,
		State:    StateIdle,
		Errors:   []string{},
		selected: map[string]bool{},
	}
}

// Parse runs parser over content and replaces any previous state. The
// content is kept even when parsing fails so the user can fix and retry.
func (s *Session) Parse(parser importers.Parser, content string) error {
	return s.ParseFile(parser, "", content)
}

// ParseFile is Parse for an uploaded file: every error and warning names
// filename.
func (s *Session) ParseFile(parser importers.Parser, filename, content string) error {
	s.reset()
	s.State = StateParsing
	s.Content = content

	result, err := parser.Parse(content)
	if err != nil {
		if filename != "" {
			err = fmt.Errorf("%s: %w", filename, err)
		}
		s.State = StateParseFailed
		s.Errors = []string{err.Error()}
		s.Message = err.Error()
		return err
	}
	return s.load(result.From(filename))
}

// Load enters preview_ready from records that were already mapped, such as
// a Zotero fetch.
func (s *Session) Load(result importers.ParseResult) error {
	s.reset()
	return s.load(result)
}

func (s *Session) load(result importers.ParseResult) error {
	s.Records = result.Publications
	if s.Records == nil {
		s.Records = []entities.Publication{}
	}
	s.Errors = result.Errors
	if s.Errors == nil {
		s.Errors = []string{}
	}

	// An empty BibTeX file is a failed parse. Empty EndNote exports and
	// Zotero collections are valid and only carry a warning.
	if len(s.Records) == 0 {
		s.Message = "No publications found"
		if s.Method == entities.ImportMethodBibTeX {
			s.State = StateParseFailed
			return ErrNoRecords
		}
		s.State = StatePreviewReady
		return nil
	}

	s.selectAll()
	s.State = StatePreviewReady
	s.Message = fmt.Sprintf("Found %d publications", len(s.Records))
	return nil
}

// Toggle flips the selection of one record.
func (s *Session) Toggle(id string) error {
	if !s.hasRecord(id) {
		return fmt.Errorf("%w: %s", ErrUnknownRecord, id)
	}
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
	return nil
}

// ToggleAll deselects everything when every record is selected and selects
// everything otherwise.
func (s *Session) ToggleAll() {
	if len(s.Records) > 0 && len(s.selected) == len(s.Records) {
		s.selected = map[string]bool{}
		return
	}
	s.selectAll()
}

// IsSelected reports whether id is part of the next submit.
func (s *Session) IsSelected(id string) bool {
	return s.selected[id]
}

// SelectedCount returns how many records are selected.
func (s *Session) SelectedCount() int {
	return len(s.selected)
}

// Selected returns the selected records in record order.
func (s *Session) Selected() []entities.Publication {
	out := make([]entities.Publication, 0, len(s.selected))
	for _, p := range s.Records {
		if s.selected[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// Submit sends the selected records to sub. On success the records and the
// selection are cleared and Message reports the imported count.
func (s *Session) Submit(ctx context.Context, sub Submitter) (*entities.ImportResponse, error) {
	if s.State != StatePreviewReady {
		return nil, ErrNotReady
	}
	selected := s.Selected()
	if len(selected) == 0 {
		return nil, ErrNothingSelected
	}

	s.State = StateSubmitting
	resp, err := sub.ImportPublications(ctx, entities.ImportRequest{
		Publications: selected,
		Method:       s.Method,
	})
	if err != nil {
		return nil, s.failSubmit(submitMessage(err), err)
	}
	if resp == nil || !resp.Success {
		msg := FallbackSubmitMessage
		if resp != nil && resp.Error != "" {
			msg = resp.Error
		}
		return resp, s.failSubmit(msg, nil)
	}

	s.Message = successMessage(resp)
	s.Records = []entities.Publication{}
	s.Errors = []string{}
	s.Content = ""
	s.selected = map[string]bool{}
	s.State = StateCleared
	return resp, nil
}

// Reset discards everything and returns to idle.
func (s *Session) Reset() {
	s.reset()
	s.Message = ""
}

func (s *Session) failSubmit(msg string, err error) error {
	s.State = StatePreviewReady
	s.Message = msg
	return &SubmitError{Message: msg, Err: err}
}

func (s *Session) reset() {
	s.State = StateIdle
	s.Content = ""
	s.Records = []entities.Publication{}
	s.Errors = []string{}
	s.selected = map[string]bool{}
}

func (s *Session) selectAll() {
	s.selected = make(map[string]bool, len(s.Records))
	for _, p := range s.Records {
		s.selected[p.ID] = true
	}
}

func (s *Session) hasRecord(id string) bool {
	for _, p := range s.Records {
		if p.ID == id {
			return true
		}
	}
	return false
}

func submitMessage(err error) string {
	var sm ServerMessenger
	if errors.As(err, &sm) {
		if msg := strings.TrimSpace(sm.ServerMessage()); msg != "" {
			return msg
		}
	}
	return FallbackSubmitMessage
}

func successMessage(resp *entities.ImportResponse) string {
	msg := fmt.Sprintf("Imported %d of %d publications", resp.Imported, resp.Total)
	if len(resp.Warnings) > 0 {
		msg += ". Warnings: " + strings.Join(resp.Warnings, "; ")
	}
	return msg
}

// Snapshot is the serialized form of a Session.
type Snapshot struct {
	Method   entities.ImportMethod  `json:"method"`
	State    State                  `json:"state"`
	Content  string                 `json:"content"`
	Records  []entities.Publication `json:"records"`
	Errors   []string               `json:"errors"`
	Selected []string               `json:"selected"`
	Message  string                 `json:"message,omitempty"`
	Total    int                    `json:"total"`
}

// Snapshot captures the session, listing selected IDs in record order.
func (s *Session) Snapshot() Snapshot {
	ids := make([]string, 0, len(s.selected))
	for _, p := range s.Records {
		if s.selected[p.ID] {
			ids = append(ids, p.ID)
		}
	}
	return Snapshot{
		Method:   s.Method,
		State:    s.State,
		Content:  s.Content,
		Records:  s.Records,
		Errors:   s.Errors,
		Selected: ids,
		Message:  s.Message,
		Total:    len(s.Records),
	}
}

// FromSnapshot rebuilds a Session. Selected IDs that no longer match a
// record are dropped. A snapshot taken mid-parse or mid-submit comes back
// as preview_ready when it has records and idle otherwise.
func FromSnapshot(snap Snapshot) *Session {
	s := NewSession(snap.Method)
	s.State = snap.State
	s.Content = snap.Content
	s.Message = snap.Message
	if snap.Records != nil {
		s.Records = snap.Records
	}
	if snap.Errors != nil {
		s.Errors = snap.Errors
	}
	for _, id := range snap.Selected {
		if s.hasRecord(id) {
			s.selected[id] = true
		}
	}

	if s.State == StateParsing || s.State == StateSubmitting || s.State == "" {
		if len(s.Records) > 0 {
			s.State = StatePreviewReady
		} else {
			s.State = StateIdle
		}
	}
	return s
}

func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	*s = *FromSnapshot(snap)
	return nil
}
