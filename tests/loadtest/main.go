package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
	"watchtime/internal/models"
	"watchtime/internal/reporter"

	goflags "github.com/jessevdk/go-flags"
	"go.uber.org/atomic"
)

type options struct {
	Server   string        `long:"server" description:"Daemon address" default:"127.0.0.1:18090"`
	Workers  int           `long:"workers" description:"Concurrent simulated tabs" default:"50"`
	Duration time.Duration `long:"duration" description:"Length of each phase" default:"10s"`
}

var domains = []string{"www.youtube.com", "www.tiktok.com", "www.instagram.com", "vimeo.com", "local"}

var categories = []string{"Long Form", "YouTube Shorts", "TikTok", "Reels", "Short Video", "Long Form (Background)"}

type result struct {
	endpoint string
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	var opts options
	if _, err := goflags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	fmt.Println("=== watchtime Load Test ===")
	fmt.Printf("Tabs: %d | Duration: %s | Server: %s\n\n", opts.Workers, opts.Duration, opts.Server)

	client := reporter.NewClient(opts.Server, 5*time.Second)
	ctx := context.Background()

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		if _, err := client.Days(ctx); err == nil {
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			os.Exit(1)
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	before, err := client.Rollup(ctx, "", "")
	if err != nil {
		fmt.Println("FAILED: rollup:", err)
		os.Exit(1)
	}

	sent := atomic.NewInt64(0)

	fmt.Println("\n--- Phase 1: Tabs syncing (POST /log) ---")
	runPhase(opts, func(c *reporter.Client, rng *rand.Rand) result {
		return doLog(c, rng, sent)
	})

	fmt.Println("\nWaiting 2s for the aggregation queue to drain...")
	time.Sleep(2 * time.Second)

	after, err := client.Rollup(ctx, "", "")
	if err != nil {
		fmt.Println("FAILED: rollup:", err)
		os.Exit(1)
	}
	// only meaningful for additive mode and when the run did not cross midnight
	added := after.Total - before.Total
	fmt.Printf("\nSent %s, today's total grew by %s", models.FormatClock(sent.Load()), models.FormatClock(added))
	if added == sent.Load() {
		fmt.Println(" (no lost updates)")
	} else {
		fmt.Printf(" (MISMATCH: %d seconds)\n", sent.Load()-added)
	}

	fmt.Println("\n--- Phase 2: Mixed load (70% POST, 30% GET) ---")
	runPhase(opts, func(c *reporter.Client, rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.70:
			return doLog(c, rng, sent)
		case r < 0.85:
			return doDay(c)
		case r < 0.95:
			return doRollup(c, rng)
		default:
			return doDays(c)
		}
	})

	fmt.Println("\n--- Phase 3: Read-heavy load (10% POST, 90% GET) ---")
	runPhase(opts, func(c *reporter.Client, rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doLog(c, rng, sent)
		case r < 0.50:
			return doDay(c)
		case r < 0.85:
			return doRollup(c, rng)
		default:
			return doDays(c)
		}
	})
}

func runPhase(opts options, workFn func(c *reporter.Client, rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			c := reporter.NewClient(opts.Server, 5*time.Second)
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(c, rng)
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(opts.Duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, opts.Duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-16s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 82))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-16s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	if totalOps == 0 {
		return
	}
	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 82))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doLog(c *reporter.Client, rng *rand.Rand, sent *atomic.Int64) result {
	report := &models.Report{
		Action:   models.ActionLogTime,
		Seconds:  int64(rng.Intn(5) + 1),
		Domain:   domains[rng.Intn(len(domains))],
		Title:    fmt.Sprintf("Video %d", rng.Intn(200)),
		Category: categories[rng.Intn(len(categories))],
	}
	start := time.Now()
	err := c.Send(context.Background(), report)
	if err == nil {
		sent.Add(report.Seconds)
	}
	return result{"POST /log", time.Since(start), err != nil}
}

func doDay(c *reporter.Client) result {
	start := time.Now()
	_, err := c.Day(context.Background(), "")
	return result{"GET /day", time.Since(start), err != nil}
}

func doRollup(c *reporter.Client, rng *rand.Rand) result {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -rng.Intn(30))
	start := time.Now()
	_, err := c.Rollup(context.Background(), from.Format(models.DayKeyLayout), to.Format(models.DayKeyLayout))
	return result{"GET /rollup", time.Since(start), err != nil}
}

func doDays(c *reporter.Client) result {
	start := time.Now()
	_, err := c.Days(context.Background())
	return result{"GET /days", time.Since(start), err != nil}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
