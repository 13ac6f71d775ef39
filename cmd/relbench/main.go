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
	"github.com/d60-Lab/warbler/internal/service"
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

// Measures follow-graph write and read latency through the service
// path (existence check + idempotent insert) and the raw repository
// path. Destructive: truncates the database it points at.
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	_ = db.Exec("TRUNCATE TABLE likes, follows, messages, users RESTART IDENTITY CASCADE").Error

	followRepo := repository.NewFollowRepository(db)
	userRepo := repository.NewUserRepository(db)
	relSvc := service.NewRelationshipService(followRepo, userRepo)

	ctx := context.Background()

	N := 10000
	if s := os.Getenv("N"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			N = n
		}
	}
	CONC := 1
	if s := os.Getenv("CONC"); s != "" {
		if c, err := strconv.Atoi(s); err == nil && c > 0 {
			CONC = c
		}
	}
	PAGE := 50
	if s := os.Getenv("PAGE"); s != "" {
		if p, err := strconv.Atoi(s); err == nil && p > 0 {
			PAGE = p
		}
	}

	// seed users: one celebrity everyone follows
	celeb := model.User{Username: "celebrity", Email: "celebrity@example.com", PasswordHash: "x"}
	if err := db.Create(&celeb).Error; err != nil {
		panic(err)
	}
	users := make([]model.User, N)
	for i := 0; i < N; i++ {
		users[i] = model.User{
			Username:     fmt.Sprintf("bench_%d", i),
			Email:        fmt.Sprintf("bench_%d@example.com", i),
			PasswordHash: "x",
		}
	}
	if err := db.CreateInBatches(&users, 1000).Error; err != nil {
		panic(err)
	}

	// service path: CONC workers follow the celebrity
	svcDurs := make([]time.Duration, 0, N)
	svcCh := make(chan time.Duration, N)
	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)

	workers := CONC
	if workers > N {
		workers = N
	}
	doneCh := make(chan struct{}, workers)
	t0 := time.Now()
	for w := 0; w < workers; w++ {
		go func() {
			for i := range feed {
				st := time.Now()
				_ = relSvc.Follow(ctx, users[i].ID, celeb.ID)
				svcCh <- time.Since(st)
			}
			doneCh <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-doneCh
	}
	close(svcCh)
	for d := range svcCh {
		svcDurs = append(svcDurs, d)
	}
	svcTotal := time.Since(t0)

	// repository path: raw edge inserts, celebrity following back
	t1 := time.Now()
	for i := 0; i < N; i++ {
		_ = followRepo.Create(ctx, celeb.ID, users[i].ID)
	}
	repoTotal := time.Since(t1)

	// queries
	q0 := time.Now()
	_, _ = followRepo.ListFollowers(ctx, celeb.ID, 0, PAGE)
	followersDur := time.Since(q0)

	q1 := time.Now()
	_, _ = followRepo.ListFollowing(ctx, celeb.ID, 0, PAGE)
	followingDur := time.Since(q1)

	q2 := time.Now()
	cnt, _ := followRepo.CountFollowers(ctx, celeb.ID)
	countDur := time.Since(q2)

	fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", N, CONC, PAGE)
	fmt.Printf("Service follow latency total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		svcTotal, svcTotal/time.Duration(N), pct(svcDurs, 0.50), pct(svcDurs, 0.95), pct(svcDurs, 0.99))
	fmt.Printf("Repository edge insert total: %v, per op: %v\n", repoTotal, repoTotal/time.Duration(N))
	fmt.Printf("Query followers(%d) latency: %v\n", PAGE, followersDur)
	fmt.Printf("Query following(%d) latency: %v\n", PAGE, followingDur)
	fmt.Printf("Count followers (%d rows) latency: %v\n", cnt, countDur)
}
