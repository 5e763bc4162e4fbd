package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
	listings    int
)

// Metrics
var (
	totalRequests uint64
	created201    uint64
	funds402      uint64 // Payer ran out of balance
	conflict409   uint64
	invalid422    uint64
	failOther     uint64
)

// hotspotPayer is shared by every worker in the hotspot workload, so its
// balance drains and later requests are refused with 402.
var hotspotPayer = "GBENCH" + uuid.NewString()

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
	flag.IntVar(&listings, "listings", 5, "Listing IDs 1..n to book against")
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		checkIn, checkOut := generateStay()
		payload := map[string]interface{}{
			"listingId": fmt.Sprintf("%d", rand.Intn(listings)+1),
			"payer":     generatePayer(),
			"checkIn":   checkIn,
			"checkOut":  checkOut,
			"guests":    1 + rand.Intn(2),
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest("POST", targetURL+"/api/v1/reservations", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case 201:
			atomic.AddUint64(&created201, 1)
		case 402:
			atomic.AddUint64(&funds402, 1)
		case 409:
			atomic.AddUint64(&conflict409, 1)
		case 422:
			atomic.AddUint64(&invalid422, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

// generatePayer returns a fresh address per request, which the simulated
// ledger's friendbot funds on first use.
func generatePayer() string {
	if workload == "hotspot" && rand.Float32() < 0.90 {
		return hotspotPayer
	}
	return "GBENCH" + uuid.NewString()
}

func generateStay() (string, string) {
	in := time.Now().UTC().AddDate(0, 0, 1+rand.Intn(90))
	out := in.AddDate(0, 0, 1+rand.Intn(7))
	return in.Format("2006-01-02"), out.Format("2006-01-02")
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	c201 := atomic.LoadUint64(&created201)
	f402 := atomic.LoadUint64(&funds402)
	f409 := atomic.LoadUint64(&conflict409)
	f422 := atomic.LoadUint64(&invalid422)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()
	var refusedRate float64
	if total > 0 {
		refusedRate = float64(f402) / float64(total) * 100
	}

	results := map[string]interface{}{
		"workload":           workload,
		"duration_sec":       d.Seconds(),
		"total_requests":     total,
		"throughput_tps":     tps,
		"created":            c201,
		"insufficient_funds": f402,
		"conflicts":          f409,
		"invalid":            f422,
		"refused_rate_pct":   refusedRate,
		"errors":             fErr,
	}

	// Print JSON for the python plotter to consume
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	// Also save to file
	filename := fmt.Sprintf("results_%s.json", workload)
	file, err := os.Create(filename)
	if err != nil {
		log.Printf("write %s: %v", filename, err)
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
