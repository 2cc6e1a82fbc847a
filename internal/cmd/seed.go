package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/campuskart/campuskart/internal/auth"
	"github.com/campuskart/campuskart/internal/catalog"
	"github.com/campuskart/campuskart/internal/config"
	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/orders"
	"github.com/campuskart/campuskart/internal/repository"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo users and listings and print their tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, closeStore, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		return seed(cmd.Context(), store, auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

var demoUsers = []domain.User{
	{Name: "Asha Seller", Email: "asha@campus.edu", College: "North Campus", Department: "Physics", Hostel: "Hostel 1"},
	{Name: "Ben Buyer", Email: "ben@campus.edu", College: "North Campus", Department: "History", Hostel: "Hostel 4"},
	{Name: "Chen Runner", Email: "chen@campus.edu", College: "North Campus", Department: "Mechanical", Hostel: "Hostel 2"},
}

var demoProducts = []catalog.ProductInput{
	{Title: "Engineering Mathematics, 10th ed.", Description: "Some pencil notes in chapter 3", Price: 350, Category: domain.CategoryBooks},
	{Title: "Scientific calculator", Description: "fx-991ES, works perfectly", Price: 600, Category: domain.CategoryElectronics},
	{Title: "Study table", Description: "Foldable, pick up from Hostel 1", Price: 900, Category: domain.CategoryFurniture},
}

// seed is idempotent for users: an existing email is reused. Listings are added on every run.
func seed(ctx context.Context, store *repository.Store, issuer *auth.Issuer, out io.Writer) error {
	users := make([]*domain.User, 0, len(demoUsers))
	for _, u := range demoUsers {
		user, err := store.Users.GetByEmail(ctx, u.Email)
		if errors.Is(err, repository.ErrNotFound) {
			u := u
			u.ID = domain.NewID()
			if err := store.Users.Create(ctx, &u); err != nil {
				return fmt.Errorf("failed to create user %s: %w", u.Email, err)
			}
			user = &u
		} else if err != nil {
			return fmt.Errorf("failed to look up user %s: %w", u.Email, err)
		}
		users = append(users, user)
	}

	products := catalog.NewService(store, orders.NewService(store, nil), nil)
	seller := users[0]
	for _, in := range demoProducts {
		p, err := products.Create(ctx, seller.ID, in)
		if err != nil {
			return fmt.Errorf("failed to create listing %q: %w", in.Title, err)
		}
		fmt.Fprintf(out, "listing  %s  %s\n", p.ID, p.Title)
	}

	for _, u := range users {
		token, err := issuer.Issue(u.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "user     %s  %-12s %s\n", u.ID, u.Name, token)
	}
	return nil
}
