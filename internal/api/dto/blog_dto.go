package dto

import (
	"time"

	"github.com/spec-kit/blog-service/internal/domain"
)

// BlogRequest is the body of create and update calls.
type BlogRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// BlogResponse is the public view of a blog.
type BlogResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaginationResponse describes where a page sits in the full listing.
type PaginationResponse struct {
	TotalBlogs   int `json:"total_blogs"`
	TotalPages   int `json:"total_pages"`
	CurrentPage  int `json:"current_page"`
	BlogsPerPage int `json:"blogs_per_page"`
}

// BlogListResponse is one page of blogs.
type BlogListResponse struct {
	Blogs      []BlogResponse     `json:"blogs"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewBlogResponse maps a domain blog.
func NewBlogResponse(blog *domain.Blog) BlogResponse {
	return BlogResponse{
		ID:        blog.ID,
		Title:     blog.Title,
		Content:   blog.Content,
		AuthorID:  blog.AuthorID,
		CreatedAt: blog.CreatedAt,
		UpdatedAt: blog.UpdatedAt,
	}
}

// NewBlogResponses maps a slice of domain blogs.
func NewBlogResponses(blogs []domain.Blog) []BlogResponse {
	out := make([]BlogResponse, 0, len(blogs))
	for i := range blogs {
		out = append(out, NewBlogResponse(&blogs[i]))
	}
	return out
}

// NewBlogListResponse maps a page of blogs.
func NewBlogListResponse(blogs []domain.Blog, page domain.Page) BlogListResponse {
	return BlogListResponse{
		Blogs: NewBlogResponses(blogs),
		Pagination: PaginationResponse{
			TotalBlogs:   page.Total,
			TotalPages:   page.TotalPages(),
			CurrentPage:  page.Number,
			BlogsPerPage: page.PerPage,
		},
	}
}
