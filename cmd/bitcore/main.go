// Package main is the bitcore entry point: an operator terminal serving
// the same slash-command set over a local console and a WebSocket
// endpoint for the browser terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bitcore/internal/commands"
	_ "bitcore/internal/commands/builtin" // command module registration
	"bitcore/internal/console"
	"bitcore/internal/dispatch"
	"bitcore/internal/logchannel"
	"bitcore/internal/logger"
	"bitcore/internal/server"
	"bitcore/internal/services"
)

var (
	logLevel string
	logFile  string
	addr     string
	version  = "0.1.0" // set at build time
)

var rootCmd = &cobra.Command{
	Use:   "bitcore",
	Short: "bitcore - single-operator command console",
	Long: `bitcore is a single-operator terminal for driving a research/chat
pipeline: credentials, memories, missions, prompts, and GitHub sync,
served identically over the local console and a browser terminal.`,
	Run: runConsole,
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the interactive console (default)",
	Run:   runConsole,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the WebSocket endpoint for the browser terminal",
	Run:   runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("bitcore v%s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	serveCmd.Flags().StringVar(&addr, "addr", ":8710", "Listen address for the WebSocket endpoint")

	if err := viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-file flag: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := logger.Configure(logLevel, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
	// Mirror the structured channel into the console logger only when it
	// writes to a file; on a live REPL the mirror would interleave with
	// readline output.
	if logFile != "" {
		logchannel.Default.SetMirror(logger.Logger)
	}
}

// bootstrap initializes services and wires the dispatcher. The mission
// scheduler's runner dispatches through the same pipeline as typed
// commands, with stdio sinks.
func bootstrap() (*dispatch.Dispatcher, error) {
	if err := services.InitializeServices(); err != nil {
		return nil, err
	}

	dispatcher := dispatch.New(commands.GetGlobalRegistry(), logchannel.Default)

	if missions, err := services.GetMissionService(); err == nil {
		missions.SetRunner(func(commandLine string) error {
			result := dispatcher.DispatchLine(commandLine, dispatch.Options{})
			if !result.Success {
				return fmt.Errorf("mission command failed: %s", result.Error)
			}
			return nil
		})
	}
	return dispatcher, nil
}

func runConsole(_ *cobra.Command, _ []string) {
	logger.Info("Starting bitcore console", "version", version)

	dispatcher, err := bootstrap()
	if err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	os.Exit(console.New(dispatcher).Run())
}

func runServe(_ *cobra.Command, _ []string) {
	// The server has no readline UI competing for the terminal, so its
	// channel stream gets the styled renderer.
	if logFile == "" {
		logchannel.Default.SetMirror(logger.NewStyledLogger("bitcore"))
	}

	logger.Info("Starting bitcore server", "version", version, "addr", addr)

	dispatcher, err := bootstrap()
	if err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(dispatcher).ListenAndServe(ctx, addr); err != nil {
		logger.Fatal("Server failed", "error", err)
	}
}
