// main.go
//
// GoBlog web frontend. Serves server-rendered pages and talks to the blog
// REST API at API_BASE_URL on behalf of the browser.

package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/goblog/internal/api"
	"github.com/robalobadob/goblog/internal/config"
	"github.com/robalobadob/goblog/internal/httpserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	gw, err := api.New(cfg.APIBaseURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("api client")
	}
	srv, err := httpserver.New(gw, httpserver.Options{
		CookieName:    cfg.CookieName,
		RedirectDelay: cfg.RedirectDelay,
		Secure:        cfg.Production,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build server")
	}

	log.Info().Str("port", cfg.Port).Str("api", cfg.APIBaseURL).Msg("starting goblog web")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
