// apiprobe cli
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/ezoidc/apiprobe/pkg/client"
	"github.com/ezoidc/apiprobe/pkg/config"
	"github.com/ezoidc/apiprobe/pkg/models"
	"github.com/ezoidc/apiprobe/pkg/providers"
	"github.com/ezoidc/apiprobe/pkg/scripts"
	"github.com/ezoidc/apiprobe/pkg/static"
	"github.com/ezoidc/apiprobe/pkg/store"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type State struct {
	configPath string
	viper      *viper.Viper
	settings   *config.Settings
	store      *store.FileStore
}

var state State

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("github.com/ezoidc/apiprobe@%s (%s)\n", static.Version, static.Commit)
	},
}

var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "List the available scripts",
	Run: func(cmd *cobra.Command, args []string) {
		for _, s := range scripts.All {
			fmt.Printf("%-26s %s\n", s.Name, s.Description)
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run <script>...",
	Short: "Run scripts in the given order, e.g. apiprobe run A2 B1",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var selected []scripts.Script
		for _, name := range args {
			s, ok := scripts.Find(name)
			if !ok {
				return fmt.Errorf("unknown script: %s", name)
			}
			selected = append(selected, s)
		}

		c := client.NewAPIClient(http.DefaultClient, state.settings.BaseURL)
		c.OutputDir = state.settings.OutputDir
		h := &scripts.Harness{
			Client:  c,
			Store:   state.store,
			Console: os.Stdout,
		}

		for _, s := range selected {
			log.Debug().Str("script", s.Name).Msg("running script")
			if err := s.Execute(cmd.Context(), h); err != nil {
				return fmt.Errorf("%s: %w", s.Name, err)
			}
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the claims of the saved access token without verifying it",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, ok := state.store.Load(scripts.KeyAccessToken)
		if !ok || token == "" {
			return fmt.Errorf("no %s in %s", scripts.KeyAccessToken, state.store.Path())
		}

		claims, err := unsafeClaims(token)
		if err != nil {
			return err
		}
		return models.JSONEncoder(os.Stdout).Encode(claims)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write values shared between scripts",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a saved value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, ok := state.store.Load(args[0])
		if !ok {
			return fmt.Errorf("%s is not set", args[0])
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Save a value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return state.store.Save(args[0], args[1])
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all saved values in JSON format",
	RunE: func(cmd *cobra.Command, args []string) error {
		return models.JSONEncoder(os.Stdout).Encode(state.store.All())
	},
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "Print all saved values in ENV format",
	Run: func(cmd *cobra.Command, args []string) {
		values := state.store.All()
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			fmt.Printf(
				"export %s=%s\n",
				shellescape.Quote(strings.ToUpper(key)),
				shellescape.Quote(values[key]),
			)
		}
	},
}

var configImportCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Resolve the values of a seed file and save them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := models.ReadSeed(args[0])
		if err != nil {
			return err
		}

		saved, err := providers.NewResolver().
			WithDefaultProviders(seed.Namespace).
			Import(cmd.Context(), seed.Entries, state.store)
		if err != nil {
			return err
		}
		for _, key := range saved {
			fmt.Printf("saved %s\n", key)
		}
		return nil
	},
}

func main() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	state.viper = config.New()

	rootCmd := &cobra.Command{
		Use:           "apiprobe",
		Long:          `apiprobe cli`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.prepare(cmd)
		},
	}
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scriptsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configEnvCmd)
	configCmd.AddCommand(configImportCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&state.configPath, "config", "c", "",
		"Path to a settings file (default: apiprobe.yaml when present)")
	flags.String("base-url", "", "Root of the API under test (env: APIPROBE_BASE_URL)")
	flags.String("store", "", "Path of the file keeping values between runs (env: APIPROBE_STORE)")
	flags.String("output-dir", "", "Directory receiving response files (env: APIPROBE_OUTPUT_DIR)")
	flags.String("log-level", "", "Log level (env: APIPROBE_LOG_LEVEL)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Send()
		os.Exit(1)
	}
}

func (s *State) prepare(cmd *cobra.Command) error {
	if err := config.BindFlags(s.viper, cmd.Flags()); err != nil {
		return err
	}

	settings, err := config.Load(s.viper, s.configPath)
	if err != nil {
		return err
	}
	s.settings = settings

	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
	}
	log.Logger = log.Logger.Level(level)

	s.store = store.NewFileStore(settings.Store)
	log.Debug().
		Str("base_url", settings.BaseURL).
		Str("store", settings.Store).
		Str("output_dir", settings.OutputDir).
		Msg("loaded settings")
	return nil
}

var allAlgorithms = []jose.SignatureAlgorithm{
	jose.HS256, jose.HS384, jose.HS512,
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.PS256, jose.PS384, jose.PS512,
}

func unsafeClaims(token string) (map[string]any, error) {
	j, err := jwt.ParseSigned(token, allAlgorithms)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims := map[string]any{}
	if err := j.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return nil, err
	}
	return claims, nil
}
