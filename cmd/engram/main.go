package main

import (
	"log"
	"net/http"
	"os"

	"github.com/Kaushik-93/Engram-sub000/internal/config"
	"github.com/Kaushik-93/Engram-sub000/internal/recall"
	"github.com/Kaushik-93/Engram-sub000/internal/schedule"
	"github.com/Kaushik-93/Engram-sub000/internal/storage"
	"github.com/Kaushik-93/Engram-sub000/internal/sync"
	"github.com/Kaushik-93/Engram-sub000/internal/web"
)

func main() {
	// 1. Parse flags and merge configuration layers
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}
	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Open the database
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	log.Printf("Database opened successfully: %s", cfg.DBPath)

	// 3. Optionally reconcile sources before serving
	if cfg.SyncOnStart {
		if err := sync.Run(db, cfg.ReposDir); err != nil {
			log.Fatalf("Failed to sync sources: %v", err)
		}
	}

	// 4. Serve the recall API
	svc := recall.NewService(db, schedule.DefaultParams())
	srv := web.NewServer(db, svc, cfg.ReposDir)

	log.Printf("Listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
