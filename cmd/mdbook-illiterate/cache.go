package main

import (
	"context"
	"fmt"
	"time"

	"illiterate/internal/pipeline"
	"illiterate/internal/storage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var pruneAge time.Duration

func init() {
	cachePruneCmd.Flags().DurationVar(&pruneAge, "older-than", 30*24*time.Hour, "Delete entries created longer ago than this")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or prune the conversion cache",
}

// openCacheStore opens the on-disk cache of the book rooted at the first arg.
func openCacheStore(args []string) (*storage.SQLiteCache, string) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	path := pipeline.CachePath(cfg, root)
	if path == "" {
		log.Fatal().Msg("no cache path configured")
	}
	store, err := storage.NewSQLiteCache(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to open cache")
	}
	return store, path
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats [book-root]",
	Short: "Show how many documents the cache holds",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, path := openCacheStore(args)
		defer store.Close()

		n, err := store.Len(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to count cache entries")
		}
		fmt.Printf("💾 %s: %d cached documents\n", path, n)
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune [book-root]",
	Short: "Delete old cache entries",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, path := openCacheStore(args)
		defer store.Close()

		removed, err := store.PruneOlderThan(context.Background(), time.Now().Add(-pruneAge))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to prune cache")
		}
		fmt.Printf("🧹 %s: removed %d entries\n", path, removed)
	},
}
