package main

import (
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/searchlab/postsearch/pkg/logger"
)

var (
	dataDir   string
	indexFile string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "postsearch",
	Short: "Build and query a TF-IDF index over social-media posts",
	Long: `postsearch builds an inverted index over a collection of posts and ranks
them against free-text queries with TF-IDF cosine similarity. The index is
built once from a dataset dump and persisted; searches run against the
persisted index without a database or any running service.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger.SetupWriter(os.Stderr, level, "text")
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaultDir := ".postsearch"
	if home, err := homedir.Dir(); err == nil {
		defaultDir = filepath.Join(home, ".postsearch")
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDir, "directory holding the persisted index")
	rootCmd.PersistentFlags().StringVar(&indexFile, "index-file", "posts.psix", "index file name inside the data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func indexPath() string {
	return filepath.Join(dataDir, indexFile)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
