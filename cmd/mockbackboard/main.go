package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/policyxray/policyxray/internal/mockbackboard"
)

func main() {
	addr := flag.String("addr", "", "listen address (default 127.0.0.1:$MOCK_BACKBOARD_PORT)")
	flag.Parse()

	shutdown, baseURL, err := mockbackboard.Start(*addr)
	if err != nil {
		log.Fatalf("mock backboard: %v", err)
	}
	log.Printf("mock backboard listening on %s (point enrichment.base_url here)", baseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
