package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/docs-chat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	storagePath string
	apiURL      string
	pushURL     string
	configFile  string
	envFile     string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"

	// resolved by the root PersistentPreRunE
	paths internal.Paths
	cfg   internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docs-chat",
	Short: "Chat with the documentation assistant from your terminal",
	Long: `A terminal client for the documentation assistant.

Questions go to the assistant over HTTP; a live WebSocket channel assigns
your session and delivers replies from human support agents. The session
is remembered between runs so a conversation can be picked up later.

Features:
  • Interactive chat window with markdown answers and cited sources
  • One-shot questions for scripts (ask)
  • Live support replies (listen)
  • Transcript export (JSONL, Markdown, YAML, JSON)

Quick Start:
  docs-chat chat                          # Open the chat window
  docs-chat ask "How do I rotate keys?"   # Ask a single question
  docs-chat healthcheck                   # Check backend connectivity

Configuration is read from <config dir>/docs-chat/config.yaml, then .env,
then DOCS_CHAT_* environment variables, then flags.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		return loadConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	internal.SyncLogger()
	if err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Path to the state database (default <config dir>/docs-chat/state.db)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the query API")
	rootCmd.PersistentFlags().StringVar(&pushURL, "push-url", "", "WebSocket URL of the live channel")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default <config dir>/docs-chat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Dotenv file (default <config dir>/docs-chat/.env)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig resolves paths and layers flags over the loaded config
func loadConfig() error {
	detected, err := internal.DetectPaths()
	if err != nil {
		return err
	}
	paths = detected

	opts := internal.LoadOptions{ConfigFile: paths.ConfigFile, EnvFile: paths.EnvFile}
	if configFile != "" {
		opts.ConfigFile = configFile
	}
	if envFile != "" {
		opts.EnvFile = envFile
	}

	loaded, err := internal.LoadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if apiURL != "" {
		loaded.APIURL = apiURL
	}
	if pushURL != "" {
		loaded.PushURL = pushURL
	}
	if storagePath != "" {
		loaded.StoragePath = storagePath
	}
	if loaded.StoragePath == "" {
		loaded.StoragePath = paths.StateDB
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cfg = loaded
	internal.LogDebug("Using API %s, live channel %s, state %s", cfg.APIURL, cfg.PushURL, cfg.StoragePath)
	return nil
}

// chatClient is everything a command needs to talk to the assistant
type chatClient struct {
	store    *internal.Storage
	identity *internal.SessionIdentity
	push     *internal.PushClient
	conv     *internal.Conversation
}

// chatOptions selects the background work a command needs
type chatOptions struct {
	live bool // open the push channel
	poll bool // poll backend health
}

// openChat opens the state database, restores the session and wires a
// conversation.
func openChat(ctx context.Context, opts chatOptions) (*chatClient, error) {
	store, identity, err := openIdentity(ctx)
	if err != nil {
		return nil, err
	}

	query := internal.NewQueryClient(cfg.APIURL, cfg.QueryTimeout, nil)

	var push *internal.PushClient
	if opts.live {
		push = internal.NewPushClient(cfg.PushURL, identity, cfg.Reconnect)
	}

	convOpts := internal.ConversationOptions{APIURL: cfg.APIURL}
	if opts.poll {
		convOpts.HealthInterval = cfg.HealthInterval
	}
	conv := internal.NewConversation(identity, query, push, convOpts)
	return &chatClient{store: store, identity: identity, push: push, conv: conv}, nil
}

func openIdentity(ctx context.Context) (*internal.Storage, *internal.SessionIdentity, error) {
	store, err := internal.OpenStorage(cfg.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state database: %w", err)
	}
	identity := internal.NewSessionIdentity(store)
	if token := identity.Load(ctx); token != "" {
		internal.LogDebug("Resuming session %s", token)
	}
	return store, identity, nil
}

// Close releases the live channel and the state database
func (c *chatClient) Close() error {
	if c.push != nil {
		c.push.Close()
	}
	return c.store.Close()
}
