// Command credits grants credits to a user from the command line:
//
//	credits <user-id> <amount>
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"renderhub/internal/infra"
	"renderhub/internal/ledger"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: credits <user-id> <amount>")
		os.Exit(2)
	}
	userID := os.Args[1]
	amount, err := strconv.ParseFloat(os.Args[2], 64)
	if err != nil || amount <= 0 {
		fmt.Fprintln(os.Stderr, "amount must be a positive number")
		os.Exit(2)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(2)
	}
	logger := infra.NewLogger(os.Getenv("APP_ENV"))

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, databaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	repo := ledger.NewRepo(infra.NewSQLRunner(pool, logger), logger)
	remaining, err := repo.Grant(ctx, userID, amount)
	if err != nil {
		logger.Fatal().Err(err).Str("user_id", userID).Msg("grant failed")
	}
	logger.Info().Str("user_id", userID).Float64("balance", remaining).Msg("credits granted")
}
