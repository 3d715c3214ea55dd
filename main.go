package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"webterm/command"
	"webterm/config"
	"webterm/controller"
	"webterm/logging"
	"webterm/server"
	"webterm/terminal"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "webterm",
		Short:         "Backend for the new-tab terminal",
		Long:          "webterm serves a virtual file system, a command shell and autocompletion to the new-tab page over a websocket.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), v)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML, TOML or JSON config file")
	flags.Int("port", 1234, "The port to listen on")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "console", "Log format: json or console")
	flags.String("storage-backend", "bolt", "Storage backend: bolt, memory or sftp")
	flags.String("storage-path", "webterm.db", "Path of the bolt database")

	for key, flag := range map[string]string{
		config.FileKey:    "config",
		"port":            "port",
		"log.level":       "log-level",
		"log.format":      "log-format",
		"storage.backend": "storage-backend",
		"storage.path":    "storage-path",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(newExecCmd(v))
	return cmd
}

func setup(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := logging.Init(cfg.Logging()); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, v *viper.Viper) error {
	cfg, err := setup(v)
	if err != nil {
		return err
	}
	defer logging.Sync()
	log := logging.Named("main")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Errorf("startup failed: %v", err)
		return err
	}
	defer a.Close()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	controller.SetupRoutes(r, controller.NewTerminalController(a.terminalDeps(cfg), a.fs, a.history, cfg.Timeout(), logging.Named("controller")))

	return server.New(cfg.Port, r, logging.Named("server")).Run(ctx)
}

// newExecCmd runs command lines against the configured storage without
// starting the server, e.g. webterm exec "ls -l" "cat notes.txt".
func newExecCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <line>...",
		Short: "Run terminal command lines and print their output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, lines []string) error {
			cfg, err := setup(v)
			if err != nil {
				return err
			}
			defer logging.Sync()

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			env := a.terminalDeps(cfg).Env
			runner := terminal.NewRunner(a.registry, &env, logging.Named("terminal"))

			failed := false
			for _, line := range lines {
				out := runner.Run(cmd.Context(), line)
				printOutcome(cmd, out)
				failed = failed || out.Type == command.TypeError
			}
			if failed {
				return fmt.Errorf("command failed")
			}
			return nil
		},
	}
}

func printOutcome(cmd *cobra.Command, out command.Outcome) {
	if out.Output == "" {
		return
	}
	text := strings.TrimRight(out.Output, "\n")
	switch out.Type {
	case command.TypeError:
		fmt.Fprintln(cmd.ErrOrStderr(), color.RedString(text))
	case command.TypeInfo:
		fmt.Fprintln(cmd.OutOrStdout(), color.CyanString(text))
	default:
		fmt.Fprintln(cmd.OutOrStdout(), text)
	}
}
