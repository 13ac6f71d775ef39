package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/warbler/config"
	"github.com/d60-Lab/warbler/internal/cacheperf"
	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/pkg/database"
)

type request struct {
	page int
	size int
}

// Compares follower-page read strategies (no cache, per-page JSON
// cache, shared id-list + per-user snapshot cache) against the live
// schema. Destructive: truncates the database it points at.
func main() {
	ctx := context.Background()

	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	mustDo(database.Migrate(db))

	mustDo(db.Exec("TRUNCATE TABLE likes, follows, messages, users RESTART IDENTITY CASCADE").Error)

	const (
		followerCount = 20000
		ttl           = 10 * time.Minute
		dbDelay       = 0 * time.Millisecond
	)

	fmt.Println("Setting up test data...")

	subjects := make([]model.User, 3)
	for i := range subjects {
		subjects[i] = model.User{
			Username:     fmt.Sprintf("subject%d", i+1),
			Email:        fmt.Sprintf("subject%d@example.com", i+1),
			PasswordHash: "x",
			ImageURL:     model.DefaultImageURL,
		}
	}
	mustDo(db.Create(&subjects).Error)

	followers := make([]model.User, followerCount)
	for i := 0; i < followerCount; i++ {
		followers[i] = model.User{
			Username:     fmt.Sprintf("fan_%d", i),
			Email:        fmt.Sprintf("fan_%d@example.com", i),
			PasswordHash: "x",
			ImageURL:     model.DefaultImageURL,
			Bio:          "benchmark follower",
		}
	}
	mustDo(db.CreateInBatches(&followers, 1000).Error)

	// Each subject gets 10k followers, with halves overlapping so the
	// shared snapshot cache has something to share.
	base := time.Now()
	edges := make([]model.Follow, 0, followerCount/2*3)
	for i := 0; i < followerCount/2; i++ {
		edges = append(edges,
			model.Follow{
				FollowerID: followers[i].ID,
				FollowedID: subjects[0].ID,
				CreatedAt:  base.Add(-time.Duration(i) * time.Second),
			},
			model.Follow{
				FollowerID: followers[i+followerCount/4].ID,
				FollowedID: subjects[1].ID,
				CreatedAt:  base.Add(-time.Duration(i) * time.Second),
			},
			model.Follow{
				FollowerID: followers[(i+followerCount*3/8)%followerCount].ID,
				FollowedID: subjects[2].ID,
				CreatedAt:  base.Add(-time.Duration(i) * time.Second),
			},
		)
	}
	mustDo(db.CreateInBatches(&edges, 1000).Error)
	fmt.Println("Test data ready: 3 subjects with overlapping followers")

	client := must(database.InitRedis(cfg))
	defer client.Close()

	svc := cacheperf.NewFollowerService(db, client, ttl, dbDelay)

	allReqs := make([]subjectRequest, 0, 9000)
	for i, s := range subjects {
		for _, r := range makeRequests(3000, int64(i)) {
			allReqs = append(allReqs, subjectRequest{userID: s.ID, req: r})
		}
	}

	noCache := runScenario(ctx, svc, allReqs, false, func(ctx context.Context, userID uint, r request) ([]cacheperf.FollowerSnapshot, error) {
		return svc.FetchFollowersNoCache(ctx, userID, r.page, r.size)
	}, client)

	naive := runScenario(ctx, svc, allReqs, true, func(ctx context.Context, userID uint, r request) ([]cacheperf.FollowerSnapshot, error) {
		return svc.FetchFollowersNaiveCache(ctx, userID, r.page, r.size)
	}, client)

	optimized := runScenario(ctx, svc, allReqs, true, func(ctx context.Context, userID uint, r request) ([]cacheperf.FollowerSnapshot, error) {
		return svc.FetchFollowersOptimized(ctx, userID, r.page, r.size)
	}, client)

	fmt.Println("\nFollower list latency (9k req across 3 subjects, 20k followers)")
	for _, row := range []struct {
		name string
		res  scenarioResult
	}{
		{"No cache", noCache},
		{"Naive list cache", naive},
		{"Optimized cache", optimized},
	} {
		fmt.Printf("%-18s avg=%v p95=%v p99=%v db_page=%d db_index=%d db_user_bulk=%d cache_keys=%d mem=%s\n",
			row.name, avg(row.res.durations), pct(row.res.durations, 0.95), pct(row.res.durations, 0.99),
			row.res.counters.PageQueries, row.res.counters.IndexLoads, row.res.counters.UserBulkLoad,
			row.res.cacheKeys, formatBytes(row.res.memoryBytes),
		)
	}
}

type subjectRequest struct {
	userID uint
	req    request
}

type scenarioResult struct {
	durations   []time.Duration
	counters    cacheperf.FollowerDBCounters
	cacheKeys   int
	memoryBytes int64
}

func runScenario(ctx context.Context, svc *cacheperf.FollowerService, reqs []subjectRequest, warm bool, call func(context.Context, uint, request) ([]cacheperf.FollowerSnapshot, error), client *redis.Client) scenarioResult {
	client.FlushAll(ctx)
	svc.ResetCounters()

	if warm {
		fmt.Print("  Warming cache...")
		for _, r := range reqs {
			if _, err := call(ctx, r.userID, r.req); err != nil {
				panic(err)
			}
		}
		fmt.Println(" done")
	}

	fmt.Print("  Running benchmark...")
	out := make([]time.Duration, 0, len(reqs))
	for _, r := range reqs {
		start := time.Now()
		if _, err := call(ctx, r.userID, r.req); err != nil {
			panic(err)
		}
		out = append(out, time.Since(start))
	}
	fmt.Println(" done")

	keys, _ := client.Keys(ctx, "*").Result()

	info, err := client.Info(ctx, "memory").Result()
	var memBytes int64
	if err == nil {
		memBytes = parseRedisMemory(info)
	}

	return scenarioResult{
		durations:   out,
		counters:    svc.Counters(),
		cacheKeys:   len(keys),
		memoryBytes: memBytes,
	}
}

// parseRedisMemory extracts used_memory from Redis INFO output.
func parseRedisMemory(info string) int64 {
	lines := []rune(info)
	var result int64

	for i := 0; i < len(lines); {
		if i+12 < len(lines) && string(lines[i:i+12]) == "used_memory:" {
			i += 12
			var num int64
			for i < len(lines) && lines[i] >= '0' && lines[i] <= '9' {
				num = num*10 + int64(lines[i]-'0')
				i++
			}
			result = num
			break
		}
		i++
	}
	return result
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func makeRequests(n int, seed int64) []request {
	sizes := []int{20, 40, 60}
	out := make([]request, n)
	rnd := rand.New(rand.NewSource(42 + seed))
	for i := 0; i < n; i++ {
		size := sizes[rnd.Intn(len(sizes))]
		page := 1
		if rnd.Float64() > 0.72 {
			// simulate deep pagination or different views
			page = 2 + rnd.Intn(120)
		}
		out[i] = request{page: page, size: size}
	}
	return out
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
