package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"goredis/internal/client"
	"goredis/internal/protocol"
)

var version = "dev"

var (
	host    string
	port    int
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:     "goredis-cli",
	Short:   "goredis-cli - one-shot client for the goredis wire protocol",
	Version: version,
	// Execute prints the one diagnostic line itself.
	SilenceUsage:  true,
	SilenceErrors: true,
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Look up a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOne(append([]string{"get"}, args...))
	},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Insert or overwrite a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOne(append([]string{"set"}, args...))
	},
}

var delCmd = &cobra.Command{
	Use:   "del <key>",
	Short: "Remove a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOne(append([]string{"del"}, args...))
	},
}

// runOne connects, issues one request, prints the response, and reports
// an error for any I/O or protocol failure, per spec.md §6's exit-code
// contract: nonzero with a single diagnostic line.
func runOne(argv []string) error {
	addr := fmt.Sprintf("%s:%d", host, port)

	c, err := client.Dial(addr, timeout)
	if err != nil {
		return err
	}
	defer c.Close()

	v, err := c.Do(argv)
	if err != nil {
		return err
	}

	fmt.Println(v.String())
	if v.Tag == protocol.TypeErr {
		os.Exit(1)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&host, "host", "H", "127.0.0.1", "Server host")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 1234, "Server port")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "Connect timeout")

	rootCmd.AddCommand(getCmd, setCmd, delCmd)
}

// Execute is the CLI entry point.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
