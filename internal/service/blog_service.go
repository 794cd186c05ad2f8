package service

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/repository"
	apperrors "github.com/spec-kit/blog-service/pkg/util/errorutil"
)

const (
	DefaultBlogsPerPage = 2
	MaxBlogsPerPage     = 100
)

// BlogService coordinates blog workflows.
type BlogService struct {
	blogs      repository.BlogRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// BlogDependencies bundles collaborators for the blog service.
type BlogDependencies struct {
	BlogRepo   repository.BlogRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// BlogInput describes the writable fields of a blog.
type BlogInput struct {
	Title   string
	Content string
}

// BlogPage is one page of a listing.
type BlogPage struct {
	Blogs []domain.Blog
	Page  domain.Page
}

// NewBlogService constructs the service.
func NewBlogService(deps BlogDependencies) *BlogService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlogService{blogs: deps.BlogRepo, dispatcher: deps.Dispatcher, logger: logger}
}

// Create stores a new blog written by authorID.
func (s *BlogService) Create(ctx context.Context, authorID int64, input BlogInput) (*domain.Blog, error) {
	input, err := normalizeBlogInput(input)
	if err != nil {
		return nil, err
	}
	blog := &domain.Blog{Title: input.Title, Content: input.Content, AuthorID: authorID}
	if err := s.blogs.Create(ctx, blog); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("blog created", zap.Int64("blog_id", blog.ID), zap.Int64("author_id", authorID))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventBlogCreated, authorID, events.BlogPayload{BlogID: blog.ID, Title: blog.Title}))
	return blog, nil
}

// Get loads a single blog.
func (s *BlogService) Get(ctx context.Context, id int64) (*domain.Blog, error) {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("blog", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return blog, nil
}

// List returns one page of blogs ordered by id. Pages below 1 read as page 1;
// pages past the end are NOT_FOUND.
func (s *BlogService) List(ctx context.Context, page, perPage int) (*BlogPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage == 0 {
		perPage = DefaultBlogsPerPage
	}
	if perPage < 1 || perPage > MaxBlogsPerPage {
		return nil, apperrors.NewValidationError("per_page out of range", map[string]any{
			"field": "per_page",
			"min":   1,
			"max":   MaxBlogsPerPage,
		})
	}

	if page > math.MaxInt/perPage {
		return nil, apperrors.NewValidationError("page out of range", map[string]any{"field": "page"})
	}

	p := domain.Page{Number: page, PerPage: perPage}
	blogs, total, err := s.blogs.List(ctx, perPage, p.Offset())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if len(blogs) == 0 {
		return nil, apperrors.NewDomainError(apperrors.CodeNotFound, "no blogs found", http.StatusNotFound, map[string]any{"page": page})
	}
	p.Total = total
	return &BlogPage{Blogs: blogs, Page: p}, nil
}

// Update rewrites a blog. Only its author may do so.
func (s *BlogService) Update(ctx context.Context, callerID, id int64, input BlogInput) (*domain.Blog, error) {
	blog, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if blog.AuthorID != callerID {
		return nil, apperrors.NewForbidden("only the author can update this blog")
	}
	input, err = normalizeBlogInput(input)
	if err != nil {
		return nil, err
	}

	blog.Title = input.Title
	blog.Content = input.Content
	if err := s.blogs.Update(ctx, blog); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("blog", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("blog updated", zap.Int64("blog_id", blog.ID), zap.Int64("author_id", callerID))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventBlogUpdated, callerID, events.BlogPayload{BlogID: blog.ID, Title: blog.Title}))
	return blog, nil
}

// Search finds blogs whose title contains query, ignoring case.
func (s *BlogService) Search(ctx context.Context, query string) ([]domain.Blog, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewFieldError("q", "search query cannot be empty")
	}
	blogs, err := s.blogs.SearchByTitle(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if len(blogs) == 0 {
		return nil, apperrors.NewDomainError(apperrors.CodeNotFound, "no blogs match the search query", http.StatusNotFound, map[string]any{"q": query})
	}
	return blogs, nil
}

func normalizeBlogInput(input BlogInput) (BlogInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.Title == "" {
		return input, apperrors.NewFieldError("title", "title cannot be empty")
	}
	if input.Content == "" {
		return input, apperrors.NewFieldError("content", "content cannot be empty")
	}
	if utf8.RuneCountInString(input.Title) > domain.MaxBlogTitleLength {
		return input, apperrors.NewValidationError("title is too long", map[string]any{
			"field": "title",
			"max":   domain.MaxBlogTitleLength,
		})
	}
	return input, nil
}

// publish delivers event; handler failures are logged and never fail the caller.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
