// Package benchmark contains Go benchmarks for index construction, query
// ranking, tokenization, and index persistence, measuring throughput and
// allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/searchlab/postsearch/internal/index"
	"github.com/searchlab/postsearch/internal/store"
	"github.com/searchlab/postsearch/internal/tokenizer"
	"github.com/searchlab/postsearch/internal/weight"
)

var vocabulary = []string{
	"coffee", "morning", "weekend", "travel", "photo", "music", "festival",
	"recipe", "workout", "gaming", "stream", "launch", "update", "review",
	"thread", "debate", "election", "weather", "traffic", "concert",
	"birthday", "puppy", "kitten", "garden", "hiking", "beach", "sunset",
	"coding", "startup", "crypto", "market", "design", "sketch", "novel",
}

// syntheticCorpus builds n posts of ~20 terms each from a fixed vocabulary,
// seeded so every run benchmarks the same data.
func syntheticCorpus(n int) []store.Document {
	rng := rand.New(rand.NewSource(42))
	docs := make([]store.Document, n)
	for i := range docs {
		var sb strings.Builder
		for w := 0; w < 20; w++ {
			if w > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(vocabulary[rng.Intn(len(vocabulary))])
		}
		docs[i] = store.Document{ID: fmt.Sprintf("post-%d", i), Text: sb.String()}
	}
	return docs
}

func BenchmarkIndexBuild(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		docs := syntheticCorpus(size)
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			builder := index.NewBuilder(tokenizer.Normalize, 4)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				idx, err := builder.Build(context.Background(), docs)
				if err != nil {
					b.Fatal(err)
				}
				_ = idx
			}
		})
	}
}

func BenchmarkIndexBuildWorkers(b *testing.B) {
	docs := syntheticCorpus(5000)
	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			builder := index.NewBuilder(tokenizer.Normalize, workers)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				idx, err := builder.Build(context.Background(), docs)
				if err != nil {
					b.Fatal(err)
				}
				_ = idx
			}
		})
	}
}

func BenchmarkComputeVectors(b *testing.B) {
	docs := syntheticCorpus(5000)
	builder := index.NewBuilder(tokenizer.Normalize, 4)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		idx, err := builder.Build(context.Background(), docs)
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		weight.ComputeVectors(idx)
	}
}
