package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/wuwenbin0122/authflow/internal/db"
	"github.com/wuwenbin0122/authflow/internal/utils"
)

func main() {
	_ = godotenv.Load()

	cfg, err := utils.LoadConfig()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	postgres, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		panic(err)
	}
	defer postgres.Close()

	const columns = `SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = 'public' AND table_name = 'users' ORDER BY ordinal_position`
	rows, err := postgres.Pool.Query(ctx, columns)
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	fmt.Println("users columns:")
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			panic(err)
		}
		fmt.Printf("- %s (%s, nullable=%s)\n", name, dataType, nullable)
	}
	if rows.Err() != nil {
		panic(rows.Err())
	}

	var total int
	if err := postgres.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		panic(err)
	}
	fmt.Printf("accounts: %d\n", total)
}
