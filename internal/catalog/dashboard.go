package catalog

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"bookcourier/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BookForm is the add and edit book form.
type BookForm struct {
	Title       string          `json:"title" validate:"required"`
	Author      string          `json:"author" validate:"required"`
	Genre       string          `json:"genre"`
	Description string          `json:"description" validate:"required,min=10"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image" validate:"omitempty,url"`
	Status      string          `json:"status,omitempty" validate:"omitempty,oneof=published unpublished"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
}

func (s *Service) checkBook(f BookForm) error {
	if err := s.check(f); err != nil {
		return err
	}
	if !f.Price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than zero", ErrValidation)
	}
	return nil
}

// AddBook validates f and lists it as a new book owned by the caller.
func (s *Service) AddBook(ctx context.Context, f BookForm) (*domain.Book, error) {
	if err := s.checkBook(f); err != nil {
		return nil, err
	}
	var b domain.Book
	if err := s.api.Post(ctx, "/books", f, &b); err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}
	logrus.WithFields(logrus.Fields{"book_id": b.ID, "title": b.Title}).Info("book added")
	return &b, nil
}

// EditBook validates f and replaces the editable fields of book id.
func (s *Service) EditBook(ctx context.Context, id string, f BookForm) (*domain.Book, error) {
	if err := s.checkBook(f); err != nil {
		return nil, err
	}
	var b domain.Book
	if err := s.api.Patch(ctx, "/books/"+url.PathEscape(id), f, &b); err != nil {
		return nil, fmt.Errorf("edit book %s: %w", id, err)
	}
	return &b, nil
}

// MyBooks lists the caller's own listings.
func (s *Service) MyBooks(ctx context.Context) ([]domain.Book, error) {
	var books []domain.Book
	if err := s.api.Get(ctx, "/my-books", &books); err != nil {
		return nil, fmt.Errorf("my books: %w", err)
	}
	return books, nil
}

// AllBooks lists every book regardless of status.
func (s *Service) AllBooks(ctx context.Context) ([]domain.Book, error) {
	var books []domain.Book
	if err := s.api.Get(ctx, "/all-books", &books); err != nil {
		return nil, fmt.Errorf("all books: %w", err)
	}
	return books, nil
}

// SetPublished publishes or unpublishes a book and returns the refreshed list.
func (s *Service) SetPublished(ctx context.Context, id string, published bool) ([]domain.Book, error) {
	if err := s.api.Patch(ctx, "/books/"+url.PathEscape(id)+"/status", map[string]bool{"isPublished": published}, nil); err != nil {
		return nil, fmt.Errorf("set book status: %w", err)
	}
	return s.AllBooks(ctx)
}

// DeleteBook removes a book together with its orders once confirm agrees.
// It returns the number of orders deleted with it.
func (s *Service) DeleteBook(ctx context.Context, id string, confirm func() bool) (int, error) {
	if confirm == nil || !confirm() {
		return 0, fmt.Errorf("delete book %s: aborted", id)
	}
	var resp struct {
		DeletedOrders int `json:"deletedOrders"`
	}
	if err := s.api.Delete(ctx, "/books/"+url.PathEscape(id), &resp); err != nil {
		return 0, fmt.Errorf("delete book %s: %w", id, err)
	}
	logrus.WithFields(logrus.Fields{"book_id": id, "deleted_orders": resp.DeletedOrders}).Info("book deleted")
	return resp.DeletedOrders, nil
}

// UserPage is one page of the user list.
type UserPage struct {
	Users      []domain.User `json:"users"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"total_pages"`
}

// Users returns one page of accounts. Pages start at 1.
func (s *Service) Users(ctx context.Context, page int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	var p UserPage
	if err := s.api.Get(ctx, fmt.Sprintf("/users?page=%d", page), &p); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &p, nil
}

// SetRole promotes or demotes an account.
func (s *Service) SetRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role", ErrValidation)
	}
	var u domain.User
	if err := s.api.Patch(ctx, "/users/"+url.PathEscape(userID)+"/role", map[string]domain.Role{"role": role}, &u); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "role": role}).Info("role changed")
	return &u, nil
}

// SaveProfile stores the caller's display name and photo.
func (s *Service) SaveProfile(ctx context.Context, name, image string) (*domain.User, error) {
	var u domain.User
	body := map[string]string{"name": strings.TrimSpace(name), "image": image}
	if err := s.api.Post(ctx, "/users", body, &u); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return &u, nil
}

// Payments lists the caller's invoices.
func (s *Service) Payments(ctx context.Context) ([]domain.Payment, error) {
	var list []domain.Payment
	if err := s.api.Get(ctx, "/my-payments", &list); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return list, nil
}

// Stats is the dashboard home counter set.
type Stats struct {
	Role            domain.Role `json:"role"`
	TotalOrders     int64       `json:"totalOrders"`
	CompletedOrders int64       `json:"completedOrders"`
	PendingOrders   int64       `json:"pendingOrders"`
	TotalBooks      int64       `json:"totalBooks"`
}

// DashboardStats fetches the counters scoped to the caller's role.
func (s *Service) DashboardStats(ctx context.Context) (*Stats, error) {
	var st Stats
	if err := s.api.Get(ctx, "/dashboard-stats", &st); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &st, nil
}

// UploadImage sends a cover image through the backend and returns its URL.
func (s *Service) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := s.api.PostFile(ctx, "/uploads/image", "image", filename, r, &resp); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return resp.URL, nil
}
