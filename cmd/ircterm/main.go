package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/ircterm/internal/app"
	"github.com/vovakirdan/ircterm/internal/chatlog"
	"github.com/vovakirdan/ircterm/internal/config"
	"github.com/vovakirdan/ircterm/internal/log"
	"github.com/vovakirdan/ircterm/internal/store/sqlite"
	"github.com/vovakirdan/ircterm/internal/term"
)

const prompt = "> "

var (
	configPath string
	overrides  config.Config
	historyMax int
)

var rootCmd = &cobra.Command{
	Use:   "ircterm [server]",
	Short: "Terminal IRC client",
	Long: `Connects to an IRC server and chats from the terminal.

The server is host[:port] (port 6667 by default) or a ws:// or wss:// URL.
Type /help once connected for the list of commands.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runClient,
}

var historyCmd = &cobra.Command{
	Use:   "history [destination]",
	Short: "Print archived lines of a channel or nick",
	Long: `Prints lines recorded in the SQLite archive (archive_path).

Without a destination, lists the archived destinations. Server messages
are archived under "*".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var logIDCmd = &cobra.Command{
	Use:   "logid <destination>",
	Short: "Print the chat log identifier and file of a destination",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogID,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file path")
	flags.StringVarP(&overrides.Nick, "nick", "n", "", "nickname (at most 9 characters)")
	flags.StringVarP(&overrides.User, "user", "u", "", "username (at most 9 characters)")
	flags.StringVarP(&overrides.Real, "real", "r", "", "real name (at most 9 characters)")
	flags.BoolVarP(&overrides.KeepLogs, "keep-logs", "k", false, "keep chat logs after exit")
	flags.StringVar(&overrides.LogDir, "log-dir", "", "directory for chat logs")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "diagnostic log level (debug, info, warn, error)")
	flags.StringVar(&overrides.DebugLog, "debug-log", "", "diagnostic log file")
	flags.StringVar(&overrides.ArchivePath, "archive", "", "SQLite archive of chat lines")
	flags.StringVarP(&overrides.Server, "server", "s", "", "server address")

	historyCmd.Flags().IntVar(&historyMax, "limit", 50, "number of lines to print")

	rootCmd.AddCommand(historyCmd, logIDCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration: file and environment, then flags, then
// the positional server argument of the root command.
func loadConfig(args []string, server bool) (config.Config, error) {
	bootLog := log.New("info", os.Stderr)
	cfg, path, err := config.Load(bootLog, configPath)
	if err != nil {
		return cfg, err
	}
	cfg.UpdateFrom(overrides)
	if server && len(args) > 0 {
		cfg.Server = args[0]
	}
	bootLog.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}

func runClient(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args, true)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := log.Open(cfg.LogLevel, cfg.DebugLog)
	if err != nil {
		return err
	}
	defer closeLog()

	console, err := term.New(os.Stdin, os.Stdout, prompt)
	if err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer console.Close()

	application, err := app.New(cfg, logger, console)
	if err != nil {
		return err
	}

	logger.Info().
		Str("nick", cfg.Nick).
		Bool("interactive", console.Interactive()).
		Dur("flood_delay", cfg.FloodDelay).
		Msg("starting ircterm")
	start := time.Now()
	err = application.Run(cmd.Context())
	logger.Info().Dur("uptime", time.Since(start)).Err(err).Msg("ircterm stopped")
	return err
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil, false)
	if err != nil {
		return err
	}
	if cfg.ArchivePath == "" {
		return errors.New("no archive configured: set archive_path or pass --archive")
	}
	if _, err := os.Stat(cfg.ArchivePath); err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	st, err := sqlite.New(cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 0 {
		return app.PrintDestinations(cmd.Context(), st, cfg.Server, cmd.OutOrStdout())
	}
	destination := args[0]
	if destination == "*" {
		destination = ""
	}
	return app.PrintHistory(cmd.Context(), st, cfg.Server, destination, historyMax, cmd.OutOrStdout())
}

func runLogID(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil, false)
	if err != nil {
		return err
	}
	return app.PrintLogID(chatlog.New(cfg.LogDir, cfg.Server), args[0], cmd.OutOrStdout())
}
