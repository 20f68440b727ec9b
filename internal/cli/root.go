package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"trainingcrm/internal/app"
	"trainingcrm/internal/config"
	"trainingcrm/internal/repositories"
	"trainingcrm/internal/store"
	"trainingcrm/internal/utils"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crm",
	Short: "Training sales pipeline CRM.",
	Long: `crm tracks training-sales opportunities through the pipeline
(Teklif verildi -> ... -> Bitti) and serves the kanban, analytics,
customer and calendar views over HTTP.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config/config.yaml, then $HOME/.trainingcrm.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "", "Set log level. Available: debug, info, warn, error, fatal")
}

// loadConfig reads the config and applies the logging settings. The
// --loglevel flag wins over the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if l, _ := cmd.Flags().GetString("loglevel"); l != "" {
		level = l
	}
	if err := utils.SetLogLevel(level); err != nil {
		return nil, err
	}
	utils.SetJSON(cfg.Log.JSON)
	if cfg.Path != "" {
		utils.Log.WithField("path", cfg.Path).Debug("[cli] config loaded")
	}
	return cfg, nil
}

func openTable(ctx context.Context, cfg *config.Config) (repositories.OpportunityTable, func(), error) {
	table, closer, err := app.OpenTable(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return table, func() { _ = closer.Close() }, nil
}

// loadStore opens the table and fetches the current list once.
func loadStore(cmd *cobra.Command) (*config.Config, *store.Store, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.Table.Timeout+5*time.Second)
	defer cancel()
	table, closeFn, err := openTable(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	st := store.New(table)
	if err := st.Load(ctx); err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return cfg, st, closeFn, nil
}
