package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Acterion/forum-helper/internal/config"
	"github.com/Acterion/forum-helper/internal/db"
	"github.com/Acterion/forum-helper/internal/services"
	"github.com/Acterion/forum-helper/internal/web"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if err := db.Init(cfg.DBPath); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}

	var gen services.Generator
	if cfg.OpenAIKey != "" {
		gen = services.NewOpenAIGenerator(cfg.OpenAIKey, cfg.AssistModel, cfg.AssistTimeout)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set; writing assistant disabled")
	}

	sm := services.NewSessionManager(gen, cfg.EditDebounce)
	r := web.Router(sm)

	log.Info().Str("addr", cfg.Addr).Msg("forum-helper listening")
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
