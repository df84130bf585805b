package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/goblog/internal/api"
	"github.com/robalobadob/goblog/internal/config"
	"github.com/robalobadob/goblog/internal/session"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	apiURL  string
	jarPath string
	debug   bool

	gw       *api.Client
	jar      *session.FileJar
	resolver *session.Resolver
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:               "blogctl",
		Short:             "Read and write blog posts from the terminal",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api", "", "API base URL (default $API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&a.jarPath, "jar", "", "cookie jar file (default <config dir>/goblog/cookies.json)")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "log API calls to stderr")

	rootCmd.AddCommand(
		newRegisterCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newPostsCommand(a),
		newUploadCommand(a),
	)
	return rootCmd
}

// setup loads config and opens the cookie jar the session lives in.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if a.debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if a.apiURL == "" {
		a.apiURL = cfg.APIBaseURL
	}
	if a.jarPath == "" {
		if a.jarPath, err = session.DefaultJarPath(); err != nil {
			return err
		}
	}
	if a.jar, err = session.OpenFileJar(a.jarPath); err != nil {
		return err
	}
	a.gw, err = api.New(a.apiURL,
		api.WithJar(a.jar),
		api.WithTimeout(cfg.RequestTimeout),
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
	)
	if err != nil {
		return err
	}
	a.resolver = session.NewResolver(a.jar, cfg.CookieName)
	return nil
}

// requireSession fails early when the local cookie cannot authenticate.
// The server still has the final say.
func (a *app) requireSession() error {
	if !a.resolver.IsAuthenticated() {
		return fmt.Errorf("not logged in (run `blogctl login`)")
	}
	return nil
}
