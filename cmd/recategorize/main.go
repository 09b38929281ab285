package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"docshare/internal/config"
	"docshare/internal/database"
	"docshare/internal/model"
)

// printDistribution reports how many documents each category holds.
func printDistribution(ctx context.Context, db *sql.DB, heading string) error {
	fmt.Printf("\n=== %s ===\n", heading)
	rows, err := db.QueryContext(ctx,
		"SELECT category, COUNT(*) AS count FROM documents GROUP BY category ORDER BY count DESC")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return err
		}
		fmt.Printf("  %s: %d\n", category, count)
	}
	return rows.Err()
}

func main() {
	target := flag.String("category", model.DefaultCategory, "category to assign to every document")
	yes := flag.Bool("yes", false, "skip the interactive confirmation")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := printDistribution(ctx, db, "category distribution before"); err != nil {
		log.Fatalf("failed to read category distribution: %v", err)
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&total); err != nil {
		log.Fatalf("failed to count documents: %v", err)
	}
	fmt.Printf("\n%d documents in total.\n", total)

	if total == 0 {
		fmt.Println("nothing to migrate")
		return
	}

	if !*yes {
		fmt.Printf("\nChange the category of every document to %q?\n", *target)
		fmt.Print("Type 'yes' to continue: ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
			fmt.Println("migration cancelled")
			return
		}
	}

	res, err := db.ExecContext(ctx, "UPDATE documents SET category = $1", *target)
	if err != nil {
		log.Fatalf("failed to update categories: %v", err)
	}
	updated, _ := res.RowsAffected()
	fmt.Printf("\nupdated %d documents\n", updated)

	if err := printDistribution(ctx, db, "category distribution after"); err != nil {
		log.Fatalf("failed to read category distribution: %v", err)
	}
}
