// cleanup-test-data removes test-like entities from the database.
//
// Research runs during development tend to leave throwaway entities behind
// ("test raag", "dummy artist", "Yaman2026"). This tool finds and deletes
// them by name pattern so the curated dataset stays clean.
//
// Test patterns matched (case-insensitive):
// - ^test (starts with "test")
// - test$ (ends with "test")
// - ^debug (debug prefix)
// - ^todo (todo prefix)
// - ^fixme (fixme prefix)
// - ^dummy (dummy prefix)
// - ^sample (sample prefix)
// - ^example (example prefix)
// - \d{4}$ (ends with 4 digits, e.g., "Yaman2026")
//
// Usage: go run ./scripts/cleanup-test-data [-dry-run=false] [category]
//
// With no category argument, all categories are scanned. Database
// connection uses standard PG* environment variables.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
)

// testNamePatterns identify throwaway entities. Used with PostgreSQL's ~*
// (case-insensitive regex) operator against the entity name.
var testNamePatterns = []string{
	`^test`,    // Starts with "test"
	`test$`,    // Ends with "test"
	`^debug`,   // Debug prefix
	`^todo`,    // Todo prefix
	`^fixme`,   // Fixme prefix
	`^dummy`,   // Dummy prefix
	`^sample`,  // Sample prefix
	`^example`, // Example prefix
	`\d{4}$`,   // Ends with 4 digits (year-like suffix)
}

func main() {
	dryRun := flag.Bool("dry-run", true, "Show what would be deleted without actually deleting")
	flag.Parse()

	category := ""
	if args := flag.Args(); len(args) > 0 {
		category = args[0]
	}

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, buildConnString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	if *dryRun {
		fmt.Println("DRY RUN - no changes will be made")
		fmt.Println("Run with -dry-run=false to actually delete entities")
		fmt.Println()
	}

	totalDeleted := 0
	for _, pattern := range testNamePatterns {
		count, err := cleanupTestEntities(ctx, conn, category, pattern, *dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error cleaning pattern %q: %v\n", pattern, err)
			os.Exit(1)
		}
		totalDeleted += count
	}

	if *dryRun {
		fmt.Printf("\nTotal entities that would be deleted: %d\n", totalDeleted)
	} else {
		fmt.Printf("\nTotal entities deleted: %d\n", totalDeleted)
	}
}

// cleanupTestEntities deletes entities whose name matches the given regex
// pattern, optionally restricted to one category. If dryRun is true, it only
// shows what would be deleted without making changes.
func cleanupTestEntities(ctx context.Context, conn *pgx.Conn, category, pattern string, dryRun bool) (int, error) {
	if dryRun {
		rows, err := conn.Query(ctx, `
			SELECT category, name, created_at::text
			FROM engine_entities
			WHERE name ~* $1
			  AND ($2 = '' OR category = $2)
		`, pattern, category)
		if err != nil {
			return 0, fmt.Errorf("query failed: %w", err)
		}
		defer rows.Close()

		var count int
		for rows.Next() {
			var cat, name, createdAt string
			if err := rows.Scan(&cat, &name, &createdAt); err != nil {
				return 0, fmt.Errorf("scan failed: %w", err)
			}
			count++
			fmt.Printf("  [%s] %s/%q (created %s)\n", pattern, cat, name, createdAt)
		}
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("rows iteration failed: %w", err)
		}

		if count == 0 {
			fmt.Printf("  [%s] No matching entities\n", pattern)
		}
		return count, nil
	}

	result, err := conn.Exec(ctx, `
		DELETE FROM engine_entities
		WHERE name ~* $1
		  AND ($2 = '' OR category = $2)
	`, pattern, category)
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}

	count := int(result.RowsAffected())
	fmt.Printf("Deleted %d entities matching pattern: %s\n", count, pattern)
	return count, nil
}

func buildConnString() string {
	host := getEnvOrDefault("PGHOST", "localhost")
	port := getEnvOrDefault("PGPORT", "5432")
	user := getEnvOrDefault("PGUSER", "postgres")
	password := os.Getenv("PGPASSWORD")
	dbname := getEnvOrDefault("PGDATABASE", "raag_engine")

	connStr := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		host, port, user, dbname)
	if password != "" {
		connStr += fmt.Sprintf(" password=%s", password)
	}
	return connStr
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
