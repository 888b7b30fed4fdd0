// Command canteenctl is a terminal client for the canteen API. It keeps the
// signed-in profile and token in a local session file.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/client"
	"github.com/sanaol/canteen/internal/logger"
	"github.com/sanaol/canteen/internal/session"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	v       *viper.Viper
	log     *zap.Logger
	session *session.Session
	api     *client.Client
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("canteen")
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "canteenctl",
		Short:        "Order food and manage catering from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	home, _ := os.UserHomeDir()
	pf := root.PersistentFlags()
	pf.String("api", "http://localhost:8081", "API base URL")
	pf.String("session", filepath.Join(home, ".canteen", "session.json"), "session file")
	pf.Int("retries", 1, "retries for failed requests")
	pf.String("log-level", "warn", "log level")
	for _, name := range []string{"api", "session", "retries", "log-level"} {
		_ = a.v.BindPFlag(name, pf.Lookup(name))
	}

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newMenuCmd(a),
		newNotificationsCmd(a),
		newOrdersCmd(a),
		newCateringCmd(a),
		newPointsCmd(a),
		newRedeemCmd(a),
	)
	return root
}

func (a *app) init() error {
	log, err := logger.New(a.v.GetString("log-level"), "console")
	if err != nil {
		return err
	}
	a.log = log

	path := a.v.GetString("session")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}
	store, err := session.NewFileStore(path)
	if err != nil {
		return err
	}
	a.session = session.New(store)

	a.api = client.New(a.v.GetString("api")).WithRetries(a.v.GetInt("retries"))
	return nil
}

// authed returns a client carrying the stored token.
func (a *app) authed(ctx context.Context) (*client.Client, error) {
	tok, err := a.session.Token(ctx)
	if err != nil {
		return nil, err
	}
	if tok == "" {
		return nil, fmt.Errorf("not signed in, run canteenctl login")
	}
	return a.api.WithToken(tok), nil
}
