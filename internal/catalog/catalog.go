// Package catalog backs the storefront and dashboard views: browsing and
// searching books, reviews, the wishlist, and the book and user management
// screens.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"bookcourier/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Sort orders understood by the book list.
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortNewest    = "newest"
)

// MessageAlreadyInWishlist is the backend's answer to a repeated add.
const MessageAlreadyInWishlist = "already in wishlist"

var (
	ErrValidation        = errors.New("invalid input")
	ErrAlreadyInWishlist = errors.New(MessageAlreadyInWishlist)
)

// API is the subset of the authenticated client the views use.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Patch(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string, out any) error
	PostFile(ctx context.Context, path, field, filename string, r io.Reader, out any) error
}

// Query is the search box and sort picker of the catalog page.
type Query struct {
	Search string
	Sort   string `validate:"omitempty,oneof=price-asc price-desc newest"`
}

func (q Query) encode() string {
	v := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Review is the review form.
type Review struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"required"`
}

// Service is the reader-facing catalog: book lists, reviews and the
// wishlist, with the last fetched copies kept for redraws.
type Service struct {
	api      API
	validate *validator.Validate

	mu       sync.Mutex
	reviews  map[string][]domain.Review
	wishlist []domain.WishlistItem
}

// New returns a Service talking to api.
func New(api API) *Service {
	return &Service{
		api:      api,
		validate: validator.New(),
		reviews:  make(map[string][]domain.Review),
	}
}

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// ListBooks returns the published books matching q.
func (s *Service) ListBooks(ctx context.Context, q Query) ([]domain.Book, error) {
	if err := s.check(q); err != nil {
		return nil, err
	}
	var books []domain.Book
	if err := s.api.Get(ctx, "/books"+q.encode(), &books); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// Book fetches one book by id.
func (s *Service) Book(ctx context.Context, id string) (*domain.Book, error) {
	var b domain.Book
	if err := s.api.Get(ctx, "/books/"+url.PathEscape(id), &b); err != nil {
		return nil, fmt.Errorf("get book %s: %w", id, err)
	}
	return &b, nil
}

// Latest returns the newest published books for the home page.
func (s *Service) Latest(ctx context.Context) ([]domain.Book, error) {
	var books []domain.Book
	if err := s.api.Get(ctx, "/books/latest", &books); err != nil {
		return nil, fmt.Errorf("latest books: %w", err)
	}
	return books, nil
}

// Reviews fetches the reviews of a book and keeps them as the current list.
func (s *Service) Reviews(ctx context.Context, bookID string) ([]domain.Review, error) {
	var list []domain.Review
	if err := s.api.Get(ctx, "/books/"+url.PathEscape(bookID)+"/reviews", &list); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	s.mu.Lock()
	s.reviews[bookID] = list
	s.mu.Unlock()
	return list, nil
}

// SubmitReview posts a review and returns the refreshed list. An empty
// rating or text never reaches the network.
func (s *Service) SubmitReview(ctx context.Context, bookID string, r Review) ([]domain.Review, error) {
	r.Text = strings.TrimSpace(r.Text)
	if err := s.check(r); err != nil {
		return nil, err
	}
	if err := s.api.Post(ctx, "/books/"+url.PathEscape(bookID)+"/review", r, nil); err != nil {
		return nil, fmt.Errorf("submit review: %w", err)
	}
	logrus.WithFields(logrus.Fields{"book_id": bookID, "rating": r.Rating}).Info("review submitted")
	return s.Reviews(ctx, bookID)
}

// Wishlist fetches the caller's saved books.
func (s *Service) Wishlist(ctx context.Context) ([]domain.WishlistItem, error) {
	var items []domain.WishlistItem
	if err := s.api.Get(ctx, "/my-wishlist", &items); err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	s.mu.Lock()
	s.wishlist = items
	s.mu.Unlock()
	return items, nil
}

// InWishlist reports whether bookID is in the list fetched last.
func (s *Service) InWishlist(bookID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.wishlist {
		if it.BookID == bookID {
			return true
		}
	}
	return false
}

// AddToWishlist saves a book. A book already saved yields ErrAlreadyInWishlist.
func (s *Service) AddToWishlist(ctx context.Context, bookID string) error {
	var resp struct {
		Message  string `json:"message"`
		Inserted *bool  `json:"inserted"`
	}
	if err := s.api.Post(ctx, "/wishlist", map[string]string{"bookId": bookID}, &resp); err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}
	defer s.refreshWishlist(ctx)
	if (resp.Inserted != nil && !*resp.Inserted) || resp.Message == MessageAlreadyInWishlist {
		return ErrAlreadyInWishlist
	}
	return nil
}

// RemoveFromWishlist drops bookID from the caller's wishlist and refreshes
// the cached copy.
func (s *Service) RemoveFromWishlist(ctx context.Context, bookID string) error {
	if err := s.api.Delete(ctx, "/wishlist/"+url.PathEscape(bookID), nil); err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	s.refreshWishlist(ctx)
	return nil
}

// ToggleWishlist adds the book when it is not saved and removes it when it is.
func (s *Service) ToggleWishlist(ctx context.Context, bookID string, inList bool) error {
	if inList {
		return s.RemoveFromWishlist(ctx, bookID)
	}
	return s.AddToWishlist(ctx, bookID)
}

func (s *Service) refreshWishlist(ctx context.Context) {
	if _, err := s.Wishlist(ctx); err != nil {
		logrus.WithError(err).Warn("refetch wishlist")
	}
}
