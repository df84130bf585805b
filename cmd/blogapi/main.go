// cmd/blogapi/main.go
//
// Stand-in blog API for local development and integration tests. Serves
// the REST contract the client expects under /api, backed by SQLite.

package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/goblog/internal/blogapi"
	"github.com/robalobadob/goblog/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := blogapi.OpenDB(cfg.BlogAPIDB)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.BlogAPIDB).Msg("open database")
	}
	defer db.Close()

	srv := blogapi.New(blogapi.NewStore(db), blogapi.NewMemoryImages(), blogapi.Options{
		Secret:         cfg.JWTSecret,
		TokenTTL:       cfg.JWTExpires,
		PageSize:       cfg.BlogAPIPageSize,
		PublicURL:      cfg.BlogAPIPublicURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
		ClientOrigin:   cfg.ClientOrigin,
		Secure:         cfg.Production,
	})

	log.Info().Str("port", cfg.BlogAPIPort).Str("db", cfg.BlogAPIDB).Msg("starting blogapi")
	if err := srv.Start(":" + cfg.BlogAPIPort); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
