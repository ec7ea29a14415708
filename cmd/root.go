package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/codemedic/cmd/analyse"
	"github.com/scan-io-git/codemedic/cmd/serve"
	"github.com/scan-io-git/codemedic/cmd/version"
	"github.com/scan-io-git/codemedic/internal/config"
	errs "github.com/scan-io-git/codemedic/pkg/shared/errors"
)

const configEnv = "CODEMEDIC_CONFIG"

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "codemedic [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "Codemedic finds, fixes and verifies defects in a code sample.",
		Long: `Codemedic runs a code sample through three model-backed stages:
	detection of bugs and security issues, remediation, and verification of the fix.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CODEMEDIC_CONFIG or config.yml)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(analyse.AnalyseCmd)
	rootCmd.AddCommand(serve.ServeCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return errs.ExitOK
	}

	var cmdErr *errs.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
	return errs.ExitFailed
}

func initConfig() {
	var err error

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env file - %v\n", err)
		os.Exit(1)
	}

	if cfgFile == "" {
		cfgFile = os.Getenv(configEnv)
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing config file function is crashed - %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	version.Init(AppConfig)
	analyse.Init(AppConfig)
	serve.Init(AppConfig)
}
