package cmd

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dangun/myaccount/internal/config"
	"github.com/dangun/myaccount/internal/credentials"
	"github.com/dangun/myaccount/internal/headers"
	"github.com/dangun/myaccount/internal/logging"
	"github.com/dangun/myaccount/internal/memberapi"
	"github.com/dangun/myaccount/internal/mypage"
	"github.com/dangun/myaccount/internal/terminal"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	tokensFile  = "credentials.json"
	sessionFile = "session.json"
)

// app is the state shared by every command of one invocation.
type app struct {
	stateDir   string
	backendURL string
	timeout    time.Duration
	verbose    bool
	paths      mypage.Paths

	fs  afero.Fs
	in  io.Reader
	out io.Writer
}

func newApp() *app {
	return &app{
		fs:  afero.NewOsFs(),
		in:  os.Stdin,
		out: os.Stdout,
		paths: mypage.Paths{
			Login:   config.DefaultLoginPath,
			Listing: config.DefaultListingPath,
			Home:    config.DefaultHomePath,
		},
	}
}

// tokens holds the access token across invocations.
func (a *app) tokens() *credentials.FileStore {
	return credentials.NewFileStore(a.fs, filepath.Join(a.stateDir, tokensFile))
}

// session holds flags that last until the next login.
func (a *app) session() *credentials.FileStore {
	return credentials.NewFileStore(a.fs, filepath.Join(a.stateDir, sessionFile))
}

func (a *app) logger() *slog.Logger {
	if !a.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logging.NewWithWriter(os.Stderr)
}

func (a *app) validate() error {
	if err := validator.New().Var(a.backendURL, "required,url"); err != nil {
		return fmt.Errorf("invalid --backend-url %q (or BACKEND_URL): %w", a.backendURL, err)
	}
	return nil
}

// controller builds a page controller over the terminal adapters.
func (a *app) controller(page *terminal.Page, confirmer mypage.Confirmer) (*mypage.Controller, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	tokens := a.tokens()
	if confirmer == nil {
		confirmer = terminal.NewPrompt(a.in, a.out, false)
	}
	return mypage.New(mypage.Deps{
		Store:     tokens,
		Session:   a.session(),
		Headers:   headers.New(tokens),
		API:       memberapi.New(a.backendURL, memberapi.WithTimeout(a.timeout)),
		Document:  page,
		Notifier:  page,
		Confirmer: confirmer,
		Navigator: page,
		Paths:     a.paths,
		Logger:    a.logger(),
	}), nil
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "myaccount")
	}
	return ".myaccount"
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "myaccount-cli",
		Short: "Manage your member account from the terminal",
		Long: `myaccount-cli shows and edits the member account of the signed in user.

The access token is kept in the state directory; set it with "token set"
after signing in.

Use "myaccount-cli [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(a.out)
	rootCmd.SetIn(a.in)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.stateDir, "state-dir", defaultStateDir(), "directory holding the credential and session files")
	flags.StringVar(&a.backendURL, "backend-url", os.Getenv("BACKEND_URL"), "base URL of the member backend")
	flags.DurationVar(&a.timeout, "timeout", 0, "per-request timeout, 0 for none")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newTokenCmd(a),
		newShowCmd(a),
		newUpdateProfileCmd(a),
		newUpdateAddressCmd(a),
		newDeleteCmd(a),
		newMyPostsCmd(a),
		newLogoutCmd(a),
	)
	return rootCmd
}

// Execute executes the root command
func Execute() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not read .env: %v", err)
	}

	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
