package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"ai-salesbot-be/internal/bootstrap"
	"ai-salesbot-be/internal/config"
	"ai-salesbot-be/internal/server"
	"ai-salesbot-be/internal/tracer"
)

func main() {
	color.Cyan("Starting RAG sales chatbot backend")

	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)

	// 3. Start Background Services
	go func() {
		log.Println("Background: Starting Lead Consumer Service...")
		if err := container.LeadConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server with graceful shutdown
	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	color.Yellow("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	container.TenantRegistry.CloseAll(shutdownCtx)
	if container.NatsPublisher != nil {
		container.NatsPublisher.Close()
	}
	_ = container.SysLogger.Sync()

	color.Green("Shutdown complete")
}
