package main

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoquest/internal/auth"
	"github.com/robalobadob/geoquest/internal/catalog"
	"github.com/robalobadob/geoquest/internal/httpserver"
	"github.com/robalobadob/geoquest/internal/progress"
	"github.com/robalobadob/geoquest/internal/store"
)

func main() {
	_ = godotenv.Load()
	if getEnv("LOG_PRETTY", "") != "" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := catalog.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load game catalog")
	}

	// DB_PATH=memory keeps progress in RAM and disables accounts.
	var (
		prog    progress.Store
		players *auth.Players
	)
	if dsn := getEnv("DB_PATH", "./data/geoquest.db"); dsn == "memory" {
		prog = progress.NewMemoryStore()
		log.Warn().Msg("progress kept in memory; accounts disabled")
	} else {
		db := mustOpen(dsn)
		defer db.Close()
		prog = progress.NewSQLStore(db)
		players = auth.NewPlayers(db)
	}

	srv := httpserver.New(store.NewMemoryStore(), prog, players, auth.TokensFromEnv(), httpserver.Config{
		TotalRounds:  getEnvInt("TOTAL_ROUNDS", 15),
		HitThreshold: getEnvFloat("HIT_THRESHOLD", 25),
		SessionTTL:   time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
	})
	go srv.RunJanitor(context.Background(), time.Minute)

	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting geoquest")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func mustOpen(dsn string) *sql.DB {
	db, err := progress.Open(dsn)
	if err != nil {
		log.Fatal().Err(err).Str("dsn", dsn).Msg("open database")
	}
	if err := progress.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	return db
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil && f > 0 {
		return f
	}
	return def
}
