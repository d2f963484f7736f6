package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/docs-chat/internal"
	"github.com/iksnae/docs-chat/internal/tui"
	"github.com/spf13/cobra"
)

var chatNoLive bool

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat window",
	Long: `Open the interactive chat window.

Type a question and press Enter. Answers are rendered as markdown with their
sources. Replies from support agents arrive over the live channel and are
shown inline. Type /help inside the window for commands.

Logs are written to <config dir>/docs-chat/chat.log while the window is open.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := paths.EnsureConfigDir(); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		restore, err := internal.SetLogOutput(paths.LogFile)
		if err != nil {
			return err
		}
		defer func() {
			if err := restore(); err != nil {
				internal.LogWarn("Failed to close log file: %v", err)
			}
		}()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		client, err := openChat(ctx, chatOptions{live: !chatNoLive, poll: true})
		if err != nil {
			return err
		}
		defer client.Close()

		runDone := make(chan error, 1)
		go func() {
			runDone <- client.conv.Run(ctx)
		}()

		program := tea.NewProgram(
			tui.New(ctx, client.conv),
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
		)
		_, err = program.Run()

		cancel()
		if runErr := <-runDone; runErr != nil {
			internal.LogWarn("Background work ended with error: %v", runErr)
		}
		if err != nil {
			return fmt.Errorf("chat window failed: %w", err)
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().BoolVar(&chatNoLive, "no-live", false, "Do not open the live channel")
	rootCmd.AddCommand(chatCmd)
}
