package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"bookrental/config"
	"bookrental/model"
	booksvc "bookrental/service/book"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	adminEmail    string
	adminUsername string
	adminPassword string
)

var sampleBooks = []model.BookInput{
	{Title: "The Great Gatsby", Category: "Fiction", Price: 9.99, Publisher: "Scribner", StockQuantity: 5},
	{Title: "1984", Category: "Science Fiction", Price: 12.99, Publisher: "Penguin Books", StockQuantity: 3},
	{Title: "To Kill a Mockingbird", Category: "Fiction", Price: 14.99, Publisher: "Harper Perennial", StockQuantity: 4},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin account and sample books",
	Long: `Create (or promote) the admin account and insert the sample catalog.
Running it again is safe: the admin is matched by email and books by title.

Examples:
  bookrental seed                                # prompts for the admin password
  bookrental seed --admin-password s3cret --admin-email ops@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := resolvePassword(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		cfg := config.Load()
		db, err := connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		svc := build(db, cfg)

		u, created, err := svc.auth.EnsureAdmin(cmd.Context(), model.RegisterReq{
			Email:    adminEmail,
			Username: adminUsername,
			Password: pw,
		})
		if err != nil {
			return fmt.Errorf("admin: %w", err)
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", u.Email)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s already present\n", u.Email)
		}

		who := model.Identity{UserID: u.ID, Role: model.RoleAdmin}
		return seedCatalog(cmd.Context(), svc.books, who, cmd.OutOrStdout())
	},
}

func init() {
	seedCmd.Flags().StringVar(&adminEmail, "admin-email", "admin@example.com", "Admin account email")
	seedCmd.Flags().StringVar(&adminUsername, "admin-username", "admin", "Admin account username")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "", "Admin password (prompted when empty)")
}

func resolvePassword(in io.Reader, out io.Writer) (string, error) {
	if adminPassword != "" {
		return adminPassword, nil
	}
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", errors.New("--admin-password is required when stdin is not a terminal")
	}
	fmt.Fprint(out, "Admin password: ")
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// seedCatalog inserts sampleBooks whose titles are not in the catalog yet.
func seedCatalog(ctx context.Context, books booksvc.Service, who model.Identity, out io.Writer) error {
	existing, err := books.List(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, b := range existing {
		have[strings.ToLower(b.Title)] = true
	}

	for _, in := range sampleBooks {
		if have[strings.ToLower(in.Title)] {
			fmt.Fprintf(out, "skip %q\n", in.Title)
			continue
		}
		b, err := books.Create(ctx, who, in)
		if err != nil {
			return fmt.Errorf("seed %q: %w", in.Title, err)
		}
		fmt.Fprintf(out, "added %q (%s)\n", b.Title, b.ID)
	}
	return nil
}
