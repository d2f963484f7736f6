package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/docs-chat/internal"
	"github.com/spf13/cobra"
)

var listenDuration time.Duration

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print live replies from support agents",
	Long: `Open the live channel and print replies from support agents as they arrive.

The session assigned by the server is saved, so later questions from chat or
ask are threaded with these replies. Runs until interrupted, the channel
closes, or --duration elapses.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if listenDuration > 0 {
			ctx, cancel = context.WithTimeout(ctx, listenDuration)
			defer cancel()
		}

		client, err := openChat(ctx, chatOptions{live: true})
		if err != nil {
			return err
		}
		defer client.Close()

		runDone := make(chan error, 1)
		go func() {
			runDone <- client.conv.Run(ctx)
		}()

		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
		transcript := client.conv.Transcript()
		states := client.push.StateChanges()
		printed := 0

		flush := func() {
			msgs := transcript.Snapshot()
			for _, msg := range msgs[min(printed, len(msgs)):] {
				printReply(out, msg)
			}
			printed = len(msgs)
		}

		for {
			select {
			case <-transcript.Changes():
				flush()

			case state := <-states:
				fmt.Fprintln(errOut, infoStyle.Render(fmt.Sprintf("live: %s", state)))

			case <-runDone:
				// Run returns early only once the live channel is gone.
				flush()
				if token := client.identity.Current(); token != "" {
					fmt.Fprintf(errOut, "Session: %s\n", token)
				}
				if client.push.State() == internal.StateError {
					return fmt.Errorf("live channel failed: %w", client.push.LastError())
				}
				return nil

			case <-ctx.Done():
				<-runDone
				flush()
				if token := client.identity.Current(); token != "" {
					fmt.Fprintf(errOut, "Session: %s\n", token)
				}
				return nil
			}
		}
	},
}

func printReply(out io.Writer, msg internal.Message) {
	stamp := ""
	if ts := internal.ParseTimestamp(msg.Timestamp); !ts.IsZero() {
		stamp = " " + ts.Local().Format("15:04")
	}
	fmt.Fprintf(out, "%s %s\n", successStyle.Render("[Support"+stamp+"]"), msg.Text)
	if msg.ThreadRef != "" {
		fmt.Fprintf(out, "  thread: %s\n", msg.ThreadRef)
	}
}

func init() {
	listenCmd.Flags().DurationVarP(&listenDuration, "duration", "d", 0, "Stop listening after this long (0 = until interrupted)")
	rootCmd.AddCommand(listenCmd)
}
