package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/d60-Lab/warbler/config"
	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/repository"
	"github.com/d60-Lab/warbler/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

// Measures home-timeline reads. The timeline is computed at read time
// from the follows table (own messages plus followed users' messages,
// newest first, capped), so the interesting case is a reader who
// follows many busy authors. Destructive: truncates the database it
// points at.
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	_ = db.Exec("TRUNCATE TABLE likes, follows, messages, users RESTART IDENTITY CASCADE").Error

	followRepo := repository.NewFollowRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	ctx := context.Background()

	AUTHORS := 200
	POSTS := 100
	READS := 500
	if s := os.Getenv("AUTHORS"); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			AUTHORS = v
		}
	}
	if s := os.Getenv("POSTS"); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			POSTS = v
		}
	}
	if s := os.Getenv("READS"); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			READS = v
		}
	}

	// seed one reader and AUTHORS authors the reader follows
	reader := model.User{Username: "reader", Email: "reader@example.com", PasswordHash: "x"}
	if err := db.Create(&reader).Error; err != nil {
		panic(err)
	}
	authors := make([]model.User, AUTHORS)
	for i := 0; i < AUTHORS; i++ {
		authors[i] = model.User{
			Username:     fmt.Sprintf("author_%d", i),
			Email:        fmt.Sprintf("author_%d@example.com", i),
			PasswordHash: "x",
		}
	}
	if err := db.CreateInBatches(&authors, 1000).Error; err != nil {
		panic(err)
	}
	for i := 0; i < AUTHORS; i++ {
		if err := followRepo.Create(ctx, reader.ID, authors[i].ID); err != nil {
			panic(err)
		}
	}

	// each author posts POSTS messages with spread timestamps
	base := time.Now().Add(-time.Duration(AUTHORS*POSTS) * time.Second)
	msgs := make([]model.Message, 0, AUTHORS*POSTS)
	n := 0
	for i := range authors {
		for j := 0; j < POSTS; j++ {
			msgs = append(msgs, model.Message{
				Text:      fmt.Sprintf("post %d from author %d", j, i),
				UserID:    authors[i].ID,
				CreatedAt: base.Add(time.Duration(n) * time.Second),
			})
			n++
		}
	}
	if err := db.CreateInBatches(&msgs, 1000).Error; err != nil {
		panic(err)
	}

	// cold read, then hot reads
	st := time.Now()
	first := must(messageRepo.ListTimeline(ctx, reader.ID, 100))
	cold := time.Since(st)

	reads := make([]time.Duration, 0, READS)
	for i := 0; i < READS; i++ {
		st := time.Now()
		if _, err := messageRepo.ListTimeline(ctx, reader.ID, 100); err != nil {
			panic(err)
		}
		reads = append(reads, time.Since(st))
	}

	// author page read for comparison
	st = time.Now()
	authorPage := must(messageRepo.ListByUser(ctx, authors[0].ID, 0, 100))
	authorDur := time.Since(st)

	fmt.Printf("AUTHORS=%d POSTS=%d READS=%d (total messages=%d)\n", AUTHORS, POSTS, READS, AUTHORS*POSTS)
	fmt.Printf("Timeline read (limit=100): cold=%v rows=%d\n", cold, len(first))
	fmt.Printf("Timeline read hot: p50=%v p95=%v p99=%v\n", pct(reads, 0.50), pct(reads, 0.95), pct(reads, 0.99))
	fmt.Printf("Author page read (limit=100): %v rows=%d\n", authorDur, len(authorPage))
}
