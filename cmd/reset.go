package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/claims-console/internal/bus"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

var (
	confirmReset bool
	resetRedis   bool
	resetDB      bool
	resetExports bool
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset claim streams, database and exports",
	Long: `Reset clears the Redis claim streams, the SQLite claim catalog and the
export directory.

By default everything is reset. Use --redis-only, --db-only or
--exports-only to reset a single target. An in-memory catalog (:memory:)
has nothing on disk to remove.

WARNING: This operation is irreversible and will permanently delete all data.

Examples:
  # Reset everything (requires confirmation)
  claims-console reset

  # Reset with automatic confirmation
  claims-console reset --yes

  # Reset only the Redis claim streams
  claims-console reset --redis-only --redis redis://localhost:6379`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolVarP(&confirmReset, "yes", "y", false, "Automatically confirm reset operation")
	resetCmd.Flags().BoolVar(&resetRedis, "redis-only", false, "Reset only the Redis claim streams")
	resetCmd.Flags().BoolVar(&resetDB, "db-only", false, "Reset only the database")
	resetCmd.Flags().BoolVar(&resetExports, "exports-only", false, "Remove only the export directory")
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := GetConfig()

	if !resetRedis && !resetDB && !resetExports {
		resetRedis, resetDB, resetExports = true, true, true
	}

	var targets []string
	if resetRedis {
		targets = append(targets, "Redis claim streams")
	}
	if resetDB {
		targets = append(targets, "SQLite database")
	}
	if resetExports {
		targets = append(targets, "exports")
	}

	fmt.Printf("This will permanently delete: %s\n", strings.Join(targets, ", "))

	if !confirmReset && !confirm("Are you sure you want to continue? (y/N): ") {
		fmt.Println("Reset operation cancelled.")
		return nil
	}

	if resetRedis {
		if err := resetRedisData(ctx, config.Redis.URL); err != nil {
			fmt.Printf("Warning: Failed to reset Redis data: %v\n", err)

			onlyRedis := !resetDB && !resetExports
			if onlyRedis {
				return fmt.Errorf("failed to reset Redis data: %w", err)
			}
			if !confirmReset && !confirm("Would you like to continue with the remaining targets? (y/N): ") {
				return fmt.Errorf("reset operation cancelled due to Redis connection failure")
			}
		} else {
			fmt.Println("✓ Redis claim streams cleared")
		}
	}

	if resetDB {
		if err := resetDatabase(config.Database.Path); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		fmt.Println("✓ Database cleared")
	}

	if resetExports {
		dir := resolvePathRelativeToBase(getWorkingDir(), config.Export.Dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove exports: %w", err)
		}
		fmt.Printf("✓ Removed %s\n", dir)
	}

	fmt.Println("Reset operation completed successfully!")
	return nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	var response string
	fmt.Scanln(&response)
	response = strings.ToLower(response)
	return response == "y" || response == "yes"
}

// resetRedisData drops the claim streams and their consumer groups.
func resetRedisData(ctx context.Context, redisURL string) error {
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	rb, err := bus.NewRedisBus(redisURL, componentLogger("bus"))
	if err != nil {
		return err
	}
	defer rb.Close()
	return rb.Reset(ctx)
}

func resetDatabase(dbPath string) error {
	if dbPath == "" || dbPath == store.MemoryPath {
		fmt.Println("In-memory catalog; nothing to remove")
		return nil
	}
	dbPath = resolvePathRelativeToBase(getWorkingDir(), dbPath)

	dbFiles := []string{
		dbPath,
		dbPath + "-shm", // Shared memory file
		dbPath + "-wal", // Write-ahead log file
	}

	var removedFiles []string
	for _, file := range dbFiles {
		if _, err := os.Stat(file); err == nil {
			if err := os.Remove(file); err != nil {
				return fmt.Errorf("failed to remove database file %s: %w", file, err)
			}
			removedFiles = append(removedFiles, filepath.Base(file))
		}
	}

	if len(removedFiles) == 0 {
		fmt.Println("No database files found to remove")
		return nil
	}

	fmt.Printf("Removed database files: %s\n", strings.Join(removedFiles, ", "))
	return nil
}
