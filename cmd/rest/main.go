package main

import (
	"context"
	"log"

	"ai-jobanalyzer-be/internal/bootstrap"
	"ai-jobanalyzer-be/internal/config"
	"ai-jobanalyzer-be/internal/server"
	"ai-jobanalyzer-be/internal/tracer"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)

	// 3. Start Background Services
	go func() {
		log.Println("Background: Starting Event Relay Service...")
		if err := container.EventRelayService.Start(context.Background()); err != nil {
			log.Printf("Background Event Relay Error: %v", err)
		}
	}()

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
