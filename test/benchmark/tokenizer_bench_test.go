package benchmark

import (
	"strings"
	"testing"

	"github.com/searchlab/postsearch/internal/tokenizer"
)

var samplePosts = map[string]string{
	"short": "Just had the best coffee of my life #blessed",
	"medium": `Spent the whole weekend hiking with @jamie and the dogs. The trail
        up to the ridge was muddy but the view from the top made every step worth
        it. Already planning the next trip — thinking about the coast this time.
        Full photo dump coming later, check https://example.com/hike for the route.`,
	"long": strings.Repeat(`Big announcement today! After two years of late nights
        and weekend sprints we are finally launching the app. Huge thanks to the
        whole team and to everyone who tested the early builds and filed bugs.
        Download it now, tell us what breaks, and leave a review if it does not.
        #launch #startup @devteam https://example.com/download `, 20),
}

func BenchmarkNormalize(b *testing.B) {
	for name, text := range samplePosts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Normalize(text)
				_ = tokens
			}
		})
	}
}

func BenchmarkNormalizeParallel(b *testing.B) {
	text := samplePosts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens := tokenizer.Normalize(text)
			_ = tokens
		}
	})
}
