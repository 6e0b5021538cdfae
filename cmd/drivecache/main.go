package main

import (
	"fmt"
	"os"

	"drivecache/internal/app"
	"drivecache/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// a.Close(). operation identifies the CLI command being run.
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "drivecache",
	Short: "Local metadata mirror for a remote drive",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cacheID := uuid.New().String()
		cfg := config.NewConfig(cacheID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Cache ID: %s\n", cacheID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Cache ID: %s\n", cfg.CacheID)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		return nil
	},
}

// init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or migrate the mirror schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Init")
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.GetStatus()
		if err != nil {
			return err
		}

		fmt.Printf("Mirror ready at schema version %d\n", st.SchemaVersion)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View mirror status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetStatus")
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.GetStatus()
		if err != nil {
			return err
		}

		fmt.Printf("Schema version: %d\n", st.SchemaVersion)
		fmt.Printf("Nodes:          %d\n", st.Nodes)
		fmt.Printf("Files:          %d\n", st.Files)
		fmt.Printf("Parent edges:   %d\n", st.Edges)
		fmt.Printf("Cached content: %d\n", st.Content)
		if st.Checkpoint != "" {
			fmt.Printf("Checkpoint:     %s\n", st.Checkpoint)
		}
		if st.LastSync != "" {
			fmt.Printf("Last sync:      %s\n", st.LastSync)
		}
		return nil
	},
}

// apply command
var applyCmd = &cobra.Command{
	Use:   "apply FILE",
	Short: "Apply a JSON change set to the mirror",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ApplyChangeSet")
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening change set: %w", err)
		}
		defer f.Close()

		stats, err := a.ApplyChangeSet(f)
		if err != nil {
			return fmt.Errorf("applying change set: %w", err)
		}

		kind := "incremental"
		if stats.Reset {
			kind = "full resync"
		}
		fmt.Printf("Applied %d node(s), purged %d (%s)\n", stats.Nodes, stats.Purged, kind)
		return nil
	},
}

// purge command
var purgeCmd = &cobra.Command{
	Use:   "purge ID...",
	Short: "Remove permanently deleted nodes from the mirror",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Purge")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Purge(args); err != nil {
			return fmt.Errorf("purging: %w", err)
		}

		fmt.Printf("Purged %d node(s)\n", len(args))
		return nil
	},
}

// meta command
var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Inspect process-level settings",
}

var metaGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Read a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetSetting")
		if err != nil {
			return err
		}
		defer a.Close()

		value, err := a.Setting(args[0])
		if err != nil {
			return err
		}

		fmt.Println(value)
		return nil
	},
}

var metaSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Write a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SetSetting")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.SetSetting(args[0], args[1])
	},
}

// drop command
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Destroy the mirror (drops every table)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Drop")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Drop(); err != nil {
			return fmt.Errorf("dropping tables: %w", err)
		}

		fmt.Println("Dropped all tables.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	metaCmd.AddCommand(metaGetCmd)
	metaCmd.AddCommand(metaSetCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(dropCmd)
}
