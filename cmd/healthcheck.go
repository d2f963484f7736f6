package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/docs-chat/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckDetails bool
	healthcheckTimeout = 10 * time.Second
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that docs-chat can reach the assistant",
	Long: `Check the health of docs-chat by verifying:
  • Configuration
  • State database access and the stored session
  • Query API reachability (GET /health)
  • Live channel handshake

This command is useful for debugging connectivity, especially in CI/CD environments.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		fmt.Fprintln(out, sectionStyle.Render("🔍 Docs Chat Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		fmt.Fprintln(out, successStyle.Render("✅ Configuration valid"))
		if healthcheckDetails {
			fmt.Fprintf(out, "   API: %s\n", cfg.APIURL)
			fmt.Fprintf(out, "   Live channel: %s\n", cfg.PushURL)
			fmt.Fprintf(out, "   Query timeout: %s\n", cfg.QueryTimeout)
			if cfg.Reconnect.Enabled() {
				fmt.Fprintf(out, "   Reconnect: up to %d attempts\n", cfg.Reconnect.MaxAttempts)
			} else {
				fmt.Fprintln(out, "   Reconnect: off")
			}
		}
		fmt.Fprintln(out)

		// Step 2: State database
		fmt.Fprintln(out, infoStyle.Render("Step 2: Opening state database..."))
		store, identity, err := openIdentity(ctx)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to open state database:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer store.Close()
		fmt.Fprintln(out, successStyle.Render("✅ State database ready"))
		if healthcheckDetails {
			fmt.Fprintf(out, "   Database: %s\n", store.Path())
		}
		if token := identity.Current(); token != "" {
			fmt.Fprintf(out, "   Session: %s\n", token)
		} else {
			fmt.Fprintln(out, "   No session yet (assigned on first live connection)")
		}
		fmt.Fprintln(out)

		// Step 3: Query API
		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking query API..."))
		query := internal.NewQueryClient(cfg.APIURL, cfg.QueryTimeout, nil)
		apiOK := query.Health(ctx)
		if apiOK {
			fmt.Fprintln(out, successStyle.Render("✅ Query API is healthy"))
		} else {
			fmt.Fprintln(out, errorStyle.Render("❌ Query API is unreachable or unhealthy"))
		}
		if healthcheckDetails {
			fmt.Fprintf(out, "   Endpoint: %s/health\n", query.BaseURL())
		}
		fmt.Fprintln(out)

		// Step 4: Live channel
		fmt.Fprintln(out, infoStyle.Render("Step 4: Opening live channel..."))
		pushErr := probePush(ctx, identity)
		if pushErr == nil {
			fmt.Fprintln(out, successStyle.Render("✅ Live channel handshake succeeded"))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Live channel unavailable:"), pushErr)
			if healthcheckDetails {
				fmt.Fprintln(out, "   Questions still work; support replies will not be delivered")
			}
		}
		fmt.Fprintln(out)

		return summarize(out, apiOK, pushErr)
	},
}

// probePush opens the live channel once and reports whether the
// handshake succeeded.
func probePush(ctx context.Context, identity *internal.SessionIdentity) error {
	ctx, cancel := context.WithTimeout(ctx, healthcheckTimeout)
	defer cancel()

	push := internal.NewPushClient(cfg.PushURL, identity, internal.ReconnectPolicy{})
	runDone := make(chan error, 1)
	go func() {
		runDone <- push.Run(ctx)
	}()
	defer func() {
		push.Close()
		<-runDone
	}()

	for {
		select {
		case state := <-push.StateChanges():
			switch state {
			case internal.StateOpen:
				return nil
			case internal.StateError, internal.StateClosed:
				if err := push.LastError(); err != nil {
					return err
				}
				return fmt.Errorf("channel closed during handshake")
			}
		case <-ctx.Done():
			return fmt.Errorf("no handshake within %s", healthcheckTimeout)
		}
	}
}

func summarize(out io.Writer, apiOK bool, pushErr error) error {
	fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
	fmt.Fprintln(out)

	switch {
	case apiOK && pushErr == nil:
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		fmt.Fprintln(out, successStyle.Render("   • Query API: Available"))
		fmt.Fprintln(out, successStyle.Render("   • Live channel: Available"))
		return nil
	case apiOK:
		fmt.Fprintln(out, warningStyle.Render("⚠️  Query API available but live channel is not"))
		fmt.Fprintln(out, "   • Questions can be asked")
		fmt.Fprintln(out, "   • Support replies will not arrive")
		return nil
	default:
		fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
		fmt.Fprintln(out, "   • The query API did not answer /health")
		fmt.Fprintf(out, "   • Check --api-url or %s\n", internal.EnvAPIURL)
		return fmt.Errorf("health check failed: query API unavailable")
	}
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetails, "details", "d", false, "Show detailed diagnostic information")
}
