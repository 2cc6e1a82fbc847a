package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/campuskart/campuskart/internal/config"
	"github.com/campuskart/campuskart/internal/repository"
	"github.com/campuskart/campuskart/internal/repository/memstore"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "campuskart",
	Short: "CampusKart - campus marketplace with peer delivery",
	Long: `CampusKart lets students list items, place orders or custom requests, and have
other students deliver them. Each order moves through a buyer, seller and runner
lifecycle, and participants chat and get notified along the way.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openStore returns the configured repository bundle and a function that releases it.
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		log.Printf("using in-memory store")
		return memstore.NewStore(), func() {}, nil
	}

	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := repository.Disconnect(context.Background(), db); err != nil {
			log.Printf("failed to close MongoDB: %v", err)
		}
	}
	return repository.NewMongoStore(db), closeFn, nil
}
