package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"news-detector/cache"
	"news-detector/config"
	"news-detector/database"
	"news-detector/handlers"
	"news-detector/logger"
	"news-detector/services"
	"news-detector/session"
)

func main() {
	log.SetOutput(logger.GetWriter())
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[MAIN] starting news-detector")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("[MAIN] config: ", err)
	}

	database.InitDB(cfg.DbUrl)

	analyzer := services.BuildAnalyzer(cfg)

	var store session.Store
	if rdb := cache.InitRedis(cfg.RedisUrl); rdb != nil {
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
		log.Println("[MAIN] session store: redis")
	} else {
		store = session.NewMemoryStore(cfg.SessionTTL)
		log.Println("[MAIN] session store: memory")
	}
	sessions := session.NewManager(store, analyzer)

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handlers.NewRouter(sessions, cfg.AdminToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Printf("news-detector listening on http://localhost%s\n", addr)
	fmt.Printf("provider: %s | model: %s | max_tokens: %d\n", cfg.Provider, cfg.Model(), cfg.MaxTokens)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf(`   curl -X POST http://localhost%s/api/analyze -H "Content-Type: application/json" -d '{"text": "..."}'`+"\n", addr)
	fmt.Printf(`   curl -X POST http://localhost%s/api/analyze -H "Content-Type: application/json" -d '{"url": "https://..."}'`+"\n\n", addr)

	if err := server.ListenAndServe(); err != nil {
		log.Fatal("[MAIN] server stopped: ", err)
	}
}
