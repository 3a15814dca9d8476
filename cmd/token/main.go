// Command token mints a bearer token for the operator API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgerbot/internal/config"
	"github.com/MrJamesThe3rd/ledgerbot/internal/http/auth"
)

func main() {
	_ = godotenv.Load()

	subject := flag.String("sub", "operator", "operator name recorded in the token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	token, err := auth.New(cfg.Auth.Secret, cfg.Auth.TokenTTL).Mint(*subject)
	if err != nil {
		slog.Error("failed to mint token", "error", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
