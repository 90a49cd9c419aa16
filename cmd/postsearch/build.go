package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/searchlab/postsearch/internal/codec"
	"github.com/searchlab/postsearch/internal/engine"
	"github.com/searchlab/postsearch/internal/store"
	"github.com/searchlab/postsearch/internal/tokenizer"
)

var (
	buildInput   string
	buildWorkers int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the index from an NDJSON dataset dump",
	Long: `Reads documents from a newline-delimited JSON file (one post per line,
{"id": ..., "text": ..., "metadata": {...}}), builds the full index with
document vectors, and publishes it atomically into the data directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		if buildInput == "" {
			fatalf("--input is required")
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng := engine.New(tokenizer.Normalize, buildWorkers, 0)
		start := time.Now()
		idx, err := eng.Build(ctx, store.NewFileSource(buildInput))
		if err != nil {
			fatalf("build failed: %v", err)
		}
		path := indexPath()
		if err := codec.Write(path, idx); err != nil {
			fatalf("publishing index failed: %v", err)
		}
		fmt.Printf("indexed %d documents (%d terms) in %s -> %s\n",
			idx.N, idx.TermCount(), time.Since(start).Round(time.Millisecond), path)
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildInput, "input", "i", "", "NDJSON file with one post per line")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "build worker count (0 = GOMAXPROCS)")
	rootCmd.AddCommand(buildCmd)
}
