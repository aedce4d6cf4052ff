package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"bookcourier/internal/catalog"
	"bookcourier/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type bookFlags struct {
	title       string
	author      string
	genre       string
	description string
	price       string
	image       string
	status      string
	quantity    int
}

var (
	searchFlag string
	sortFlag   string
	bookForm   bookFlags
)

func printBooks(a *app, books []domain.Book) error {
	w := a.table("ID", "TITLE", "AUTHOR", "GENRE", "PRICE", "STATUS", "SELLER")
	for _, b := range books {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, b.Genre, b.Price.StringFixed(2), b.Status, b.Seller.Email)
	}
	return w.Flush()
}

func formFromFlags() (catalog.BookForm, error) {
	price, err := decimal.NewFromString(bookForm.price)
	if err != nil {
		return catalog.BookForm{}, fmt.Errorf("price: %w", err)
	}
	return catalog.BookForm{
		Title:       bookForm.title,
		Author:      bookForm.author,
		Genre:       bookForm.genre,
		Description: bookForm.description,
		Price:       price,
		Image:       bookForm.image,
		Status:      bookForm.status,
		Quantity:    bookForm.quantity,
	}, nil
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Browse and manage books",
}

// courierctl books list --search atomic --sort price-asc
var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "Search the published catalog",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		books, err := a.catalog.ListBooks(ctx, catalog.Query{Search: searchFlag, Sort: sortFlag})
		if err != nil {
			return err
		}
		return printBooks(a, books)
	}),
}

var booksLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the newest books",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		books, err := a.catalog.Latest(ctx)
		if err != nil {
			return err
		}
		return printBooks(a, books)
	}),
}

var booksShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a book with its reviews",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		b, err := a.catalog.Book(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s by %s\n%s | %s | %s\n\n%s\n", b.Title, b.Author, b.Genre, b.Price.StringFixed(2), b.Status, b.Description)
		reviews, err := a.catalog.Reviews(ctx, b.ID)
		if err != nil {
			return err
		}
		if len(reviews) > 0 {
			fmt.Fprintln(a.out)
			return printReviews(a, reviews)
		}
		return nil
	}),
}

var booksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "List a new book",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard/add-books"); err != nil {
			return err
		}
		form, err := formFromFlags()
		if err != nil {
			return err
		}
		b, err := a.catalog.AddBook(ctx, form)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added %s (%s)\n", b.Title, b.ID)
		return nil
	}),
}

var booksEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit one of your books",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard/edit-books/"+args[0]); err != nil {
			return err
		}
		form, err := formFromFlags()
		if err != nil {
			return err
		}
		b, err := a.catalog.EditBook(ctx, args[0], form)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Saved %s\n", b.Title)
		return nil
	}),
}

func publishCmd(use string, published bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: use + " a book",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			if err := a.enter(ctx, "/dashboard/manage-books"); err != nil {
				return err
			}
			books, err := a.catalog.SetPublished(ctx, args[0], published)
			if err != nil {
				return err
			}
			return printBooks(a, books)
		}),
	}
}

var booksDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a book and its orders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.enter(ctx, "/dashboard/manage-books"); err != nil {
			return err
		}
		n, err := a.catalog.DeleteBook(ctx, args[0], func() bool {
			return confirmer(cmd, "Delete this book and all of its orders?")
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted, %d orders removed\n", n)
		return nil
	},
}

var booksMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your own books",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard/my-books"); err != nil {
			return err
		}
		books, err := a.catalog.MyBooks(ctx)
		if err != nil {
			return err
		}
		return printBooks(a, books)
	}),
}

var booksAllCmd = &cobra.Command{
	Use:   "all",
	Short: "List every book, published or not",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard/manage-books"); err != nil {
			return err
		}
		books, err := a.catalog.AllBooks(ctx)
		if err != nil {
			return err
		}
		return printBooks(a, books)
	}),
}

func printReviews(a *app, reviews []domain.Review) error {
	w := a.table("RATING", "BY", "REVIEW")
	for _, r := range reviews {
		fmt.Fprintf(w, "%d/5\t%s\t%s\n", r.Rating, r.UserName, r.Text)
	}
	return w.Flush()
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Read and write book reviews",
}

var reviewsListCmd = &cobra.Command{
	Use:   "list <book-id>",
	Short: "List the reviews of a book",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		reviews, err := a.catalog.Reviews(ctx, args[0])
		if err != nil {
			return err
		}
		return printReviews(a, reviews)
	}),
}

var reviewsAddCmd = &cobra.Command{
	Use:   "add <book-id> <rating> <text>",
	Short: "Review a book",
	Args:  cobra.ExactArgs(3),
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.signedIn("/books/" + args[0]); err != nil {
			return err
		}
		rating, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: rating must be a number from 1 to 5", catalog.ErrValidation)
		}
		reviews, err := a.catalog.SubmitReview(ctx, args[0], catalog.Review{Rating: rating, Text: args[2]})
		if err != nil {
			return err
		}
		return printReviews(a, reviews)
	}),
}

var wishlistCmd = &cobra.Command{
	Use:   "wishlist",
	Short: "Manage saved books",
}

var wishlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved books",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard/wishlist"); err != nil {
			return err
		}
		items, err := a.catalog.Wishlist(ctx)
		if err != nil {
			return err
		}
		w := a.table("BOOK", "TITLE", "PRICE", "SAVED")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.BookID, it.Book.Title, it.Book.Price.StringFixed(2), it.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	}),
}

var wishlistAddCmd = &cobra.Command{
	Use:   "add <book-id>",
	Short: "Save a book",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard/wishlist"); err != nil {
			return err
		}
		if err := a.catalog.AddToWishlist(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Added to wishlist")
		return nil
	}),
}

var wishlistRemoveCmd = &cobra.Command{
	Use:   "remove <book-id>",
	Short: "Remove a saved book",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard/wishlist"); err != nil {
			return err
		}
		if err := a.catalog.RemoveFromWishlist(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Removed from wishlist")
		return nil
	}),
}

// courierctl upload-image cover.png
var uploadImageCmd = &cobra.Command{
	Use:   "upload-image <file>",
	Short: "Upload a cover image and print its URL",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard/add-books"); err != nil {
			return err
		}
		f, err := openFile(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		var url string
		if a.cdn != nil {
			url, err = a.cdn.Upload(ctx, filepath.Base(args[0]), f)
		} else {
			url, err = a.catalog.UploadImage(ctx, filepath.Base(args[0]), f)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, url)
		return nil
	}),
}

func init() {
	booksListCmd.Flags().StringVarP(&searchFlag, "search", "s", "", "match title, author or genre")
	booksListCmd.Flags().StringVar(&sortFlag, "sort", "", "price-asc, price-desc or newest")

	for _, c := range []*cobra.Command{booksAddCmd, booksEditCmd} {
		c.Flags().StringVar(&bookForm.title, "title", "", "title")
		c.Flags().StringVar(&bookForm.author, "author", "", "author")
		c.Flags().StringVar(&bookForm.genre, "genre", "", "genre")
		c.Flags().StringVar(&bookForm.description, "description", "", "description, at least 10 characters")
		c.Flags().StringVar(&bookForm.price, "price", "", "price, e.g. 12.50")
		c.Flags().StringVar(&bookForm.image, "image", "", "cover URL, see upload-image")
		c.Flags().StringVar(&bookForm.status, "status", "", "published or unpublished")
		c.Flags().IntVar(&bookForm.quantity, "quantity", 0, "copies available")
		_ = c.MarkFlagRequired("title")
		_ = c.MarkFlagRequired("price")
	}
	booksDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")

	booksCmd.AddCommand(booksListCmd, booksLatestCmd, booksShowCmd, booksAddCmd, booksEditCmd,
		publishCmd("publish", true), publishCmd("unpublish", false),
		booksDeleteCmd, booksMineCmd, booksAllCmd)
	reviewsCmd.AddCommand(reviewsListCmd, reviewsAddCmd)
	wishlistCmd.AddCommand(wishlistListCmd, wishlistAddCmd, wishlistRemoveCmd)
}
