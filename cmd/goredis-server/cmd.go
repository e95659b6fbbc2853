package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"goredis/internal/config"
	"goredis/internal/server"
)

// version is overwritten at build time with -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "goredis-server",
	Short:   "goredis - a minimal, single-threaded, in-memory key-value server",
	Version: version,
	RunE:    runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Printf("Starting goredis-server v%s\n", version)
	fmt.Printf("%s\n", cfg.String())
	fmt.Println(strings.Repeat("=", 51))

	s := server.New(cfg)
	if err := s.Listen(); err != nil {
		return fmt.Errorf("failed to start listening: %w", err)
	}
	defer s.Close()

	var shuttingDown atomic.Bool
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nshutting down goredis-server...")
		shuttingDown.Store(true)
	}()

	if err := s.Run(shuttingDown.Load); err != nil {
		return fmt.Errorf("event loop exited with error: %w", err)
	}

	fmt.Println("goredis-server stopped")
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		fmt.Println(cfg.String())
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("goredis-server v%s\n", version)
		fmt.Printf("Built with Go %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("host", "H", "0.0.0.0", "Host to bind to")
	rootCmd.PersistentFlags().IntP("port", "p", 1234, "Port to listen on")
	rootCmd.PersistentFlags().Int("max-clients", 10000, "Maximum number of accepted connections")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().Duration("poll-timeout", time.Second, "Event loop poll(2) timeout")

	viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("max_clients", rootCmd.PersistentFlags().Lookup("max-clients"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("poll_timeout", rootCmd.PersistentFlags().Lookup("poll-timeout"))

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute is the CLI entry point.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
