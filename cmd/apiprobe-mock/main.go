// apiprobe mock api server
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ezoidc/apiprobe/pkg/mockapi"
	"github.com/ezoidc/apiprobe/pkg/static"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var opts struct {
	listen   string
	secret   string
	logLevel string
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("github.com/ezoidc/apiprobe@%s (%s)\n", static.Version, static.Commit)
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the mock api server",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(opts.logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
		}
		log.Logger = log.Logger.Level(level)

		gin.SetMode(gin.ReleaseMode)
		api, err := mockapi.NewAPI(apiOptions(opts.listen, opts.secret))
		if err != nil {
			return err
		}

		return api.Run()
	},
}

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	rootCmd := &cobra.Command{
		Use:           "apiprobe-mock",
		Long:          `apiprobe mock api server`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringVarP(&opts.listen,
		"listen", "l", defaultListen(),
		"Address to listen on (env: PORT)",
	)
	startCmd.Flags().StringVar(&opts.secret,
		"secret", os.Getenv("APIPROBE_MOCK_SECRET"),
		"HMAC key for signing tokens, at least 32 bytes (env: APIPROBE_MOCK_SECRET)",
	)
	startCmd.Flags().StringVar(&opts.logLevel,
		"log-level", "info",
		"Log level",
	)

	if len(os.Args) == 1 {
		rootCmd.SetArgs([]string{"start"})
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Send()
		os.Exit(1)
	}
}

func apiOptions(listen, secret string) mockapi.Options {
	if secret == "" {
		log.Warn().Msg("no secret configured, signing with a random key that other instances cannot verify")
	}
	return mockapi.Options{
		Listen: listen,
		Secret: []byte(secret),
	}
}

func defaultListen() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}
