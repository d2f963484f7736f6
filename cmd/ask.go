package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/iksnae/docs-chat/internal"
	"github.com/iksnae/docs-chat/internal/export"
	"github.com/spf13/cobra"
)

var (
	askFormat string
	askOutput string
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Long: `Ask a single question and print the answer with its sources.

The stored session is sent along with the question, so follow-up questions
continue the same conversation. With --format the exchange is printed as a
transcript (jsonl, md, yaml, json) instead; add --out to write it to a file.

Exits non-zero when the assistant could not answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if askOutput != "" && askFormat == "" {
			return errors.New("--out requires --format")
		}
		if askFormat != "" {
			if _, err := export.NewExporter(askFormat); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		client, err := openChat(ctx, chatOptions{})
		if err != nil {
			return err
		}
		defer client.Close()

		question := strings.Join(args, " ")
		var (
			reply   internal.Message
			sendErr error
		)
		err = internal.ShowProgress(ctx, "Asking the assistant...", func() error {
			reply, sendErr = client.conv.Send(ctx, question)
			return sendErr
		})
		if ctx.Err() != nil {
			return err
		}
		if sendErr != nil && !reply.IsError {
			return sendErr
		}

		out := cmd.OutOrStdout()
		switch {
		case askFormat != "" && askOutput != "":
			written, err := export.WriteFile(client.conv.Snapshot(), askFormat, askOutput)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Transcript written to %s\n", written)
		case askFormat != "":
			exporter, _ := export.NewExporter(askFormat)
			if err := exporter.Export(client.conv.Snapshot(), out); err != nil {
				return err
			}
		default:
			printAnswer(out, reply)
		}

		if reply.IsError {
			internal.LogDebug("Query failed: %v", sendErr)
			return errors.New(internal.UserMessage(sendErr))
		}
		return nil
	},
}

func printAnswer(out io.Writer, reply internal.Message) {
	if reply.IsError {
		fmt.Fprintln(out, errorStyle.Render(reply.Text))
		return
	}

	text := reply.Text
	if internal.IsTerminal() {
		if rendered, err := glamour.Render(text, "auto"); err == nil {
			text = strings.TrimRight(rendered, "\n")
		}
	}
	fmt.Fprintln(out, text)

	if len(reply.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, infoStyle.Render("Sources:"))
		for _, src := range reply.Sources {
			fmt.Fprintf(out, "  • %s\n", src.Source)
		}
	}
}

func init() {
	askCmd.Flags().StringVarP(&askFormat, "format", "f", "", "Print the exchange as a transcript (jsonl, md, yaml, json)")
	askCmd.Flags().StringVarP(&askOutput, "out", "o", "", "Write the transcript to this file (requires --format)")
	rootCmd.AddCommand(askCmd)
}
