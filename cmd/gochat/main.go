package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"GoChat/pkg/chat"
	"GoChat/pkg/client"
	"GoChat/pkg/config"
	"GoChat/pkg/logger"
	"GoChat/pkg/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// A second signal after the first one terminates the process outright.
	context.AfterFunc(ctx, stop)

	rootCmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		interrupted := ctx.Err() != nil
		stop()
		if interrupted && errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr)
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	var debug bool

	runChat := func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if debug {
			cfg.Debug = true
		}
		return chatSession(cmd.Context(), cfg, in, out, errOut)
	}

	rootCmd := &cobra.Command{
		Use:           "gochat",
		Short:         "An interactive terminal chat with the OpenAI chat completions API",
		Args:          cobra.NoArgs,
		RunE:          runChat,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log requests, retries and token usage to stderr")

	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Save your OpenAI API key to a .env file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(in)
			fmt.Fprint(out, "Enter your OpenAI API key: ")
			apiKey, _ := reader.ReadString('\n')
			apiKey = strings.TrimSpace(apiKey)
			if apiKey == "" {
				return fmt.Errorf("no API key entered")
			}

			envContent := fmt.Sprintf("%s=%s\n", config.APIKeyEnv, apiKey)
			if err := os.WriteFile(".env", []byte(envContent), 0o600); err != nil {
				return fmt.Errorf("creating .env file: %w", err)
			}

			fmt.Fprintln(out, "API key saved to .env file successfully!")
			return nil
		},
	}

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start a chat session (the default command)",
		Args:  cobra.NoArgs,
		RunE:  runChat,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List the chat models available to your API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ids, err := client.ListChatModels(cmd.Context(), cfg.APIKey, cfg.BaseURL)
			if err != nil {
				return err
			}
			current := color.New(color.FgCyan, color.Bold)
			for _, id := range ids {
				if id == cfg.Model {
					current.Fprintf(out, "%s (current)\n", id)
					continue
				}
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(modelsCmd)

	return rootCmd
}

func chatSession(ctx context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer) error {
	level := logger.LevelWarn
	if cfg.Debug {
		level = logger.LevelDebug
	}
	log := logger.New(errOut, level, "session "+uuid.NewString())

	c := client.NewClient(cfg.APIKey,
		client.WithBaseURL(cfg.BaseURL),
		client.WithModel(cfg.Model),
		client.WithTimeout(cfg.Timeout),
	)
	bot := chat.New(c,
		chat.WithRetries(cfg.Retries),
		chat.WithRetryDelay(cfg.RetryDelay),
		chat.WithLogger(log.WithPrefix("retry")),
	)
	log.Debug("model %s at %s, %d retries every %v", c.Model(), cfg.BaseURL, cfg.Retries, cfg.RetryDelay)

	fmt.Fprintf(out, "INFO: Export your API key as %s. Enter 'q', 'quit' or 'exit' to quit\n", config.APIKeyEnv)

	loop := &session.Loop{
		Bot:    bot,
		In:     in,
		Prompt: out,
		Out:    out,
		Reply:  color.New(color.FgBlue),
		Log:    log,
	}
	return loop.Run(ctx)
}
