package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/quickchat/backend/internal/client"
)

const defaultServer = "http://localhost:8080"

var (
	serverURL string
	timeout   time.Duration
	verbose   bool
)

// rootCmd reads one message per line and prints the conversation as it grows.
var rootCmd = &cobra.Command{
	Use:   "chatcli",
	Short: "Terminal client for the quickchat backend",
	Long: `Read messages from stdin, one per line, and send each to the quickchat
server as soon as it is entered. Replies are printed in the order they arrive.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		return runInteractive(cmd.InOrStdin(), cmd.OutOrStdout(), newAPIClient(), logger)
	},
}

// sendCmd sends a single message and prints the reply.
var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send one message and print the reply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := newAPIClient().Send(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), reply)
		return err
	},
}

func init() {
	server := os.Getenv("QUICKCHAT_SERVER")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", server, "quickchat server base URL (or set QUICKCHAT_SERVER)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "HTTP timeout per message")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(sendCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newAPIClient() *client.APIClient {
	return client.NewAPIClient(serverURL, &http.Client{Timeout: timeout})
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// runInteractive submits every input line and waits for outstanding replies
// once input ends.
func runInteractive(in io.Reader, out io.Writer, sender client.Sender, logger *zap.Logger) error {
	r := newRenderer(out)
	store := client.NewMessageStore(sender, logger, client.WithOnChange(r.render))

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		store.Submit(scanner.Text())
	}
	store.Wait()
	return scanner.Err()
}
