package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/searchlab/postsearch/internal/engine"
	"github.com/searchlab/postsearch/internal/index"
	"github.com/searchlab/postsearch/internal/tokenizer"
)

var (
	searchK    int
	searchInfo bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Rank posts against a query",
	Long: `Searches the persisted index. With arguments, runs a single query and
prints the ranked results. Without arguments, enters an interactive loop;
type 'exit' to quit.`,
	Run: func(cmd *cobra.Command, args []string) {
		eng := engine.New(tokenizer.Normalize, 0, searchK)
		if err := eng.LoadFrom(indexPath()); err != nil {
			fatalf("loading index: %v (run 'postsearch build' first)", err)
		}
		ctx := context.Background()

		if len(args) > 0 {
			runQuery(ctx, eng, strings.Join(args, " "))
			return
		}

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("query> ")
			if !scanner.Scan() {
				fmt.Println()
				return
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if strings.EqualFold(line, "exit") {
				return
			}
			runQuery(ctx, eng, line)
		}
	},
}

func runQuery(ctx context.Context, eng *engine.Engine, query string) {
	resp, err := eng.Search(ctx, query, searchK)
	if err != nil {
		fatalf("search failed: %v", err)
	}
	if len(resp.Results) == 0 {
		fmt.Println("no results")
		return
	}

	rows := make([][]string, 0, len(resp.Results))
	for i, r := range resp.Results {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.DocID,
			fmt.Sprintf("%.4f", r.Score),
		})
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"rank", "post", "score"})
	table.Bulk(rows)
	table.Render()
	fmt.Printf("%d matching posts\n", resp.TotalHits)

	if searchInfo {
		idx := eng.Current()
		for _, r := range resp.Results {
			printPostInfo(idx, r)
		}
	}
}

// printPostInfo shows one result's index statistics and pass-through
// metadata, keys sorted.
func printPostInfo(idx *index.Index, r engine.Result) {
	fmt.Printf("\npost %s (score %.4f)\n", r.DocID, r.Score)
	fmt.Printf("  length: %d terms\n", idx.DocLength[r.DocID])
	if st := idx.Stats[r.DocID]; st.MaxTF > 0 {
		fmt.Printf("  top term: %s (%d occurrences)\n", st.MaxTFTerm, st.MaxTF)
	}
	if len(r.Metadata) == 0 {
		fmt.Println("  no metadata")
		return
	}
	keys := make([]string, 0, len(r.Metadata))
	for k := range r.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %v\n", k, r.Metadata[k])
	}
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "k", "k", 20, "number of results to return")
	searchCmd.Flags().BoolVar(&searchInfo, "info", false, "print post metadata for each result")
	rootCmd.AddCommand(searchCmd)
}
