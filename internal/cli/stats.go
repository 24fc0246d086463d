package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-md-translator/internal/config"
	"github.com/nerdneilsfield/go-md-translator/internal/stats"
)

var (
	// stats 命令的标志
	recentLimit int
	exportPath  string
	resetStats  bool
)

// NewStatsCommand 创建 stats 命令
func NewStatsCommand() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "View translation history",
		Long: `View totals and recent runs from the translation history database.

Examples:
  # Show totals and the last 10 runs
  translator stats

  # Show the last 20 runs
  translator stats --recent 20

  # Show per language pair or per model totals
  translator stats --languages
  translator stats --models

  # Export the history to JSON
  translator stats --export history.json

  # Delete the history
  translator stats --reset`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runStatsCommand,
	}

	statsCmd.Flags().IntVar(&recentLimit, "recent", 10, "number of recent runs to show")
	statsCmd.Flags().StringVar(&exportPath, "export", "", "export the history to a JSON file")
	statsCmd.Flags().BoolVar(&resetStats, "reset", false, "delete the history (asks for confirmation)")
	statsCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	statsCmd.Flags().Bool("cache", false, "show totals with chunk cache statistics, without recent runs")
	statsCmd.Flags().Bool("languages", false, "show only language pair statistics")
	statsCmd.Flags().Bool("models", false, "show only model statistics")

	return statsCmd
}

// runStatsCommand 执行 stats 命令
func runStatsCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		cfg = config.NewDefaultConfig()
	}
	if err := updateConfigFromFlags(cmd, cfg); err != nil {
		return err
	}

	log := newLogger(cfg)
	defer func() {
		_ = log.Sync()
	}()

	if resetStats {
		return handleStatsReset(cmd, cfg.HistoryFile, log)
	}

	db, err := stats.NewDatabase(cfg.HistoryFile, log)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}

	if exportPath != "" {
		return handleStatsExport(cmd, db, exportPath)
	}

	if cfg.UseCache && cfg.CacheDir != "" {
		if err := db.UpdateCacheStats(cfg.CacheDir); err != nil {
			log.Warn("failed to update cache stats", zap.Error(err))
		}
	}

	out := cmd.OutOrStdout()
	visualizer := stats.NewVisualizer(db, out)

	showCache, _ := cmd.Flags().GetBool("cache")
	showLanguages, _ := cmd.Flags().GetBool("languages")
	showModels, _ := cmd.Flags().GetBool("models")

	switch {
	case showCache:
		visualizer.ShowOverview()
	case showLanguages:
		visualizer.ShowLanguagePairs()
	case showModels:
		visualizer.ShowModels()
	default:
		visualizer.ShowOverview()
		fmt.Fprintln(out)
		visualizer.ShowRecentRuns(recentLimit)
	}
	return nil
}

// handleStatsReset 删除历史文件
func handleStatsReset(cmd *cobra.Command, path string, log *zap.Logger) error {
	if !assumeYes {
		ok, err := confirmPrompt("Delete the translation history? This cannot be undone.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "History reset cancelled.")
			return nil
		}
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	log.Info("history deleted", zap.String("path", path))
	fmt.Fprintln(cmd.OutOrStdout(), "History deleted.")
	return nil
}

// handleStatsExport 导出历史为 JSON
func handleStatsExport(cmd *cobra.Command, db *stats.Database, path string) error {
	data, err := json.MarshalIndent(db.GetStats(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "History exported to %s\n", path)
	return nil
}
