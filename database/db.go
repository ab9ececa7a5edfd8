package database

import (
	"database/sql"
	"log"

	_ "github.com/lib/pq"
)

var DB *sql.DB

func InitDB(url string) {
	if url == "" {
		log.Println("[DB] DB_URL not set, domain reputation disabled")
		return
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		log.Fatalf("[DB] failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("[DB] database unreachable: %v", err)
	}

	log.Println("[DB] connected to PostgreSQL")

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS domain_stats (
			domain           TEXT PRIMARY KEY,
			total_analyses   INTEGER DEFAULT 0,
			sum_scores       INTEGER DEFAULT 0,
			avg_score        FLOAT   DEFAULT 0,
			last_analyzed_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Fatalf("[DB] failed to create domain_stats: %v", err)
	}

	DB = db
}
