package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/messagely/apiserver/config"
	"github.com/messagely/apiserver/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serverCmd represents the server command.
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the message.ly backend server",
	Run: func(cmd *cobra.Command, args []string) {
		logger, err := zap.NewProduction()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		sugar := logger.Sugar()

		cfg := config.LoadConfig()

		srv, err := server.New(cmd.Context(), cfg, sugar)
		if err != nil {
			sugar.Fatalw("failed to start server", "error", err)
		}

		go func() {
			sigint := make(chan os.Signal, 1)
			signal.Notify(sigint, os.Interrupt)
			<-sigint

			sugar.Info("shutting down http server")
			if err := srv.Shutdown(); err != nil {
				sugar.Errorw("shutdown failed", "error", err)
			}
		}()

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server error", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
