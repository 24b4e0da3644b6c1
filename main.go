// backend/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownGrace = 30 * time.Second

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := ensureAdmin(db, cfg); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache responseCache
	if cfg.RedisURL != "" {
		rc, err := newRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatal(err)
		}
		defer rc.Close()
		cache = rc
	}

	var blobs BlobStore
	if cfg.S3Bucket != "" {
		store, err := newS3Store(ctx, cfg)
		if err != nil {
			log.Fatal(err)
		}
		blobs = store
	} else {
		log.Println("S3_BUCKET is not set, uploads are disabled")
	}

	srv := NewServer(cfg, db, cache, nil, blobs)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Golang backend running on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
