package cli

import (
	"github.com/spf13/cobra"

	"trainingcrm/internal/app"
	"trainingcrm/internal/utils"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the stale watcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				utils.Log.WithError(err).Warn("close table")
			}
		}()
		return a.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Listen port (overrides server.port)")
}
