// Package service implements title CSS writes, the user read path and the
// render hook on top of the store.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kraciasty/titlecss"
	"github.com/kraciasty/titlecss/internal/metrics"
	"github.com/kraciasty/titlecss/internal/store"
	"github.com/kraciasty/titlecss/render"
)

// Store is the persistence the service needs.
type Store interface {
	GetUser(ctx context.Context, userID string) (store.User, error)
	ListStyledUsers(ctx context.Context) ([]store.User, error)
	SetTitleCSS(ctx context.Context, userID, css string) error
	ClearTitleCSS(ctx context.Context, userID string) error
	TitleCSS(ctx context.Context, userID string) (string, bool, error)
}

// UpdateResult is the outcome of a title CSS write.
type UpdateResult struct {
	// TitleCSS is the stored value after the write, "" when cleared.
	TitleCSS string `json:"title_css"`
	// Sanitized reports whether the sanitizer changed the trimmed input.
	Sanitized bool `json:"sanitized"`
}

// TitleService coordinates sanitization, storage and rendering of titles.
type TitleService struct {
	store         Store
	guardian      Guardian
	sanitizer     *titlecss.Sanitizer
	newApplicator func() render.Applicator
	logger        *slog.Logger
}

// Option configures a TitleService.
type Option func(*TitleService)

// WithGuardian replaces the default StaffOnly guardian.
func WithGuardian(g Guardian) Option {
	return func(s *TitleService) { s.guardian = g }
}

// WithSanitizer sets the sanitizer applied to serialized users. It must
// provide the titlecss.PolicyCSS and titlecss.PolicyMarkup policies.
func WithSanitizer(san *titlecss.Sanitizer) Option {
	return func(s *TitleService) { s.sanitizer = san }
}

// WithApplicator sets the factory for the applicator used by RenderPage.
// A fresh applicator is created for every page.
func WithApplicator(fn func() render.Applicator) Option {
	return func(s *TitleService) { s.newApplicator = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *TitleService) { s.logger = l }
}

// New creates a TitleService over st.
func New(st Store, opts ...Option) *TitleService {
	s := &TitleService{
		store:         st,
		guardian:      StaffOnly{},
		sanitizer:     titlecss.Default(),
		newApplicator: func() render.Applicator { return render.NewStylesheet() },
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "titles")
	return s
}

// UpdateTitleCSS sanitizes raw and stores the result as the user's title CSS,
// clearing it when nothing survives. The returned value is re-read from the
// store.
func (s *TitleService) UpdateTitleCSS(ctx context.Context, actor Actor, userID, raw string) (UpdateResult, error) {
	if err := s.guardian.CanEditTitle(ctx, actor, userID); err != nil {
		return UpdateResult{}, err
	}

	input := strings.TrimSpace(raw)
	sanitized, err := s.sanitizer.SanitizeString(titlecss.PolicyCSS, input)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("sanitize title css: %w", err)
	}

	outcome := metrics.OutcomeUnchanged
	if sanitized == "" {
		outcome = metrics.OutcomeCleared
		err = s.store.ClearTitleCSS(ctx, userID)
	} else {
		if sanitized != input {
			outcome = metrics.OutcomeAltered
		}
		err = s.store.SetTitleCSS(ctx, userID, sanitized)
	}
	if err != nil {
		return UpdateResult{}, err
	}
	metrics.RecordSanitize(outcome)

	stored, _, err := s.store.TitleCSS(ctx, userID)
	if err != nil {
		return UpdateResult{}, err
	}

	res := UpdateResult{TitleCSS: stored, Sanitized: sanitized != input}
	s.logger.Info("title css updated",
		"user_id", userID,
		"actor_id", actor.ID,
		"outcome", outcome,
		"input_len", len(input),
		"stored_len", len(stored),
	)
	return res, nil
}

// PublicUser is the basic user serializer.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Title    string `json:"title,omitempty" sanitize:"markup"`
	TitleCSS string `json:"title_css,omitempty" sanitize:"css"`
}

// PostAuthor is how a post lists its author.
type PostAuthor struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	UserTitle    string `json:"user_title,omitempty" sanitize:"markup"`
	UserTitleCSS string `json:"user_title_css,omitempty" sanitize:"css"`
}

// PublicUser returns the serialized user. Title CSS is omitted when absent.
func (s *TitleService) PublicUser(ctx context.Context, userID string) (PublicUser, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return PublicUser{}, err
	}

	out := PublicUser{ID: u.ID, Username: u.Username, Title: u.Title, TitleCSS: deref(u.TitleCSS)}
	if err := s.sanitizer.SanitizeStruct(&out); err != nil {
		return PublicUser{}, fmt.Errorf("serialize user %s: %w", userID, err)
	}
	return out, nil
}

// PostAuthor returns the user serialized as a post author.
func (s *TitleService) PostAuthor(ctx context.Context, userID string) (PostAuthor, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return PostAuthor{}, err
	}

	out := PostAuthor{UserID: u.ID, Username: u.Username, UserTitle: u.Title, UserTitleCSS: deref(u.TitleCSS)}
	if err := s.sanitizer.SanitizeStruct(&out); err != nil {
		return PostAuthor{}, fmt.Errorf("serialize post author %s: %w", userID, err)
	}
	return out, nil
}

// Occurrences returns a render occurrence for every styled user. Text is the
// stored title, markup included; the applicators match on its visible text.
func (s *TitleService) Occurrences(ctx context.Context) ([]render.Occurrence, error) {
	users, err := s.store.ListStyledUsers(ctx)
	if err != nil {
		return nil, err
	}

	batch := make([]render.Occurrence, 0, len(users))
	for _, u := range users {
		batch = append(batch, render.Occurrence{Text: u.Title, Style: deref(u.TitleCSS)})
	}
	return batch, nil
}

// RenderPage decorates the HTML page read from r with the styles of every
// styled user and returns the resulting document.
func (s *TitleService) RenderPage(ctx context.Context, r io.Reader) (string, error) {
	batch, err := s.Occurrences(ctx)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	s.newApplicator().Decorate(doc, batch)
	s.logger.Debug("page rendered", "titles", len(batch))

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
