// Command healthcheck probes the backend's health endpoint once and exits
// non-zero on failure. Intended for deploy checks and allow-list debugging.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/pivori-app/rubi-studio/internal/backend"
	"github.com/pivori-app/rubi-studio/internal/util"
)

func main() {
	_ = godotenv.Load()

	url := flag.String("url", os.Getenv("MT5BRIDGE_BACKEND_URL"), "backend base URL")
	token := flag.String("token", os.Getenv("MT5BRIDGE_API_TOKEN"), "API token")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Parse()

	log := util.NewLogger("info")

	if *url == "" {
		log.Fatal().Msg("backend URL required (-url or MT5BRIDGE_BACKEND_URL)")
	}

	client := backend.New(*url, *token, *timeout, "healthcheck", log)
	status, err := client.Health(context.Background())
	if err != nil {
		if backend.IsHostNotAllowed(err) {
			log.Fatal().Err(err).Msg("backend host not reachable; fix the allowed URL list")
		}
		log.Fatal().Err(err).Int("status", status).Msg("backend unhealthy")
	}
	log.Info().Int("status", status).Str("url", *url).Msg("backend healthy")
}
