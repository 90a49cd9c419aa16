package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/searchlab/postsearch/internal/engine"
	"github.com/searchlab/postsearch/internal/export"
	"github.com/searchlab/postsearch/internal/tokenizer"
)

var (
	exportQuery string
	exportK     int
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export ranked results as newline-delimited text",
	Long: `Runs a query against the persisted index and writes the ranked results
as tab-separated lines (rank, post id, score, metadata summary), suitable
for piping into downstream tooling.`,
	Run: func(cmd *cobra.Command, args []string) {
		if exportQuery == "" {
			fatalf("--query is required")
		}
		eng := engine.New(tokenizer.Normalize, 0, exportK)
		if err := eng.LoadFrom(indexPath()); err != nil {
			fatalf("loading index: %v (run 'postsearch build' first)", err)
		}
		resp, err := eng.Search(context.Background(), exportQuery, exportK)
		if err != nil {
			fatalf("search failed: %v", err)
		}

		out := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				fatalf("creating output file: %v", err)
			}
			defer f.Close()
			out = f
		}
		if err := export.Write(out, resp.Results); err != nil {
			fatalf("writing results: %v", err)
		}
		if exportOut != "" {
			fmt.Printf("wrote %d results to %s\n", len(resp.Results), exportOut)
		}
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportQuery, "query", "q", "", "query text")
	exportCmd.Flags().IntVarP(&exportK, "k", "k", 20, "number of results to export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
