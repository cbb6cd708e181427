// seed creates a handful of httpbin-backed Targets and Schedules in
// the local dev database, exercising the same success/4xx/5xx/timeout
// paths the classifier distinguishes between.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ErlanBelekov/http-run-scheduler/internal/coordinator"
	"github.com/ErlanBelekov/http-run-scheduler/internal/domain"
	"github.com/ErlanBelekov/http-run-scheduler/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/http-run-scheduler/internal/usecase"
)

type targetSpec struct {
	name   string
	url    string
	method domain.HTTPMethod
}

var targetSpecs = []targetSpec{
	// Happy path — should complete successfully
	{"httpbin-post-ok", "https://httpbin.org/post", domain.MethodPOST},
	{"httpbin-get-ok", "https://httpbin.org/get", domain.MethodGET},

	// Will fail — server returns 5xx, triggers the retry/backoff path
	{"httpbin-500", "https://httpbin.org/status/500", domain.MethodPOST},
	{"httpbin-503", "https://httpbin.org/status/503", domain.MethodPOST},

	// Will fail — 4xx, classified as non-retryable
	{"httpbin-404", "https://httpbin.org/status/404", domain.MethodGET},

	// Will time out — httpbin delays the response longer than the
	// target's configured timeout
	{"httpbin-timeout", "https://httpbin.org/delay/35", domain.MethodGET},

	// Mixed methods
	{"httpbin-put", "https://httpbin.org/put", domain.MethodPUT},
	{"httpbin-patch", "https://httpbin.org/patch", domain.MethodPATCH},
	{"httpbin-delete", "https://httpbin.org/delete", domain.MethodDELETE},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	targetRepo := postgres.NewTargetRepository(pool)
	scheduleRepo := postgres.NewScheduleRepository(pool)

	targetUsecase := usecase.NewTargetUsecase(targetRepo, 30, 120)
	// A passive Coordinator is enough here: the seed script only
	// needs ComputeNextRunAt to set the first NextRunAt, never a live
	// fire loop — cmd/scheduler's Reconciler picks these up once it's
	// running against the same database.
	coord := coordinator.NewControlPlane(scheduleRepo, targetRepo, time.UTC, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	scheduleUsecase := usecase.NewScheduleUsecase(scheduleRepo, targetRepo, coord)

	fmt.Println("Seeding targets and schedules...")
	fmt.Println()

	var created int
	for _, spec := range targetSpecs {
		target, err := targetUsecase.CreateTarget(ctx, usecase.CreateTargetInput{
			Name:   spec.name,
			URL:    spec.url,
			Method: spec.method,
		})
		if err != nil {
			log.Fatalf("create target %s: %v", spec.name, err)
		}

		interval := 30
		sched, err := scheduleUsecase.CreateSchedule(ctx, usecase.CreateScheduleInput{
			Name:            spec.name + "-schedule",
			TargetID:        target.ID,
			Kind:            domain.KindInterval,
			IntervalSeconds: &interval,
		})
		if err != nil {
			log.Fatalf("create schedule for %s: %v", spec.name, err)
		}

		fmt.Printf("  %-18s target=%s schedule=%s next_run=%s\n",
			spec.name, target.ID, sched.ID, sched.NextRunAt.Format(time.RFC3339))
		created++
	}

	fmt.Println()
	fmt.Printf("Seed complete: %d targets + schedules created (interval=30s).\n", created)
	fmt.Println()
	fmt.Println("Run cmd/scheduler to start firing them, and cmd/server for the API:")
	fmt.Println()
	fmt.Println("  curl -s http://localhost:8080/api/v1/schedules | jq")
	fmt.Println("  curl -s http://localhost:8080/api/v1/runs | jq")
	fmt.Println()
	fmt.Println("Expected outcomes once fired:")
	fmt.Println("  httpbin-post-ok, httpbin-get-ok, httpbin-put/patch/delete  ->  succeeded")
	fmt.Println("  httpbin-500, httpbin-503                                  ->  failed after retries")
	fmt.Println("  httpbin-404                                               ->  failed, non-retryable")
	fmt.Println("  httpbin-timeout                                           ->  failed, timeout")
}
