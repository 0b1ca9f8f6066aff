package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/splitsync/internal/adapter/http/dto"
	"github.com/iho/splitsync/internal/infrastructure/auth"
)

var (
	baseURL string
	token   string
	timeout time.Duration
	out     io.Writer = os.Stdout
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "splitsync",
		Short:         "SplitSync CLI tool",
		Long:          `A command line interface for a local SplitSync agent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&baseURL, "url", envOr("SPLITSYNC_URL", "http://localhost:8080"), "Base URL of the agent API")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("ACCESS_TOKEN"), "Bearer token for the agent API")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	root.AddCommand(
		groupsCmd(),
		expensesCmd(),
		balancesCmd(),
		settleUpCmd(),
		reportCmd(),
		syncCmd(),
		queueCmd(),
		tokenCmd(),
	)
	return root
}

func client() *apiClient { return newAPIClient(baseURL, token, timeout) }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func groupsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "groups", Short: "Group operations"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			var groups []dto.GroupResponse
			if err := client().do(http.MethodGet, "/api/v1/groups/", nil, &groups); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tOWNER\tSYNC")
			for _, g := range groups {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", g.ID, truncate(g.Name, 32), g.OwnerEmail, g.SyncEnabled)
			}
			return tw.Flush()
		},
	})

	var ownerName string
	var noSync bool
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a group owned by the signed-in user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			syncEnabled := !noSync
			req := dto.CreateGroupRequest{Name: args[0], OwnerName: ownerName, SyncEnabled: &syncEnabled}
			var group dto.GroupResponse
			if err := client().do(http.MethodPost, "/api/v1/groups/", req, &group); err != nil {
				return err
			}
			return printJSON(group)
		},
	}
	create.Flags().StringVar(&ownerName, "owner-name", "", "Display name of the owner")
	create.Flags().BoolVar(&noSync, "no-sync", false, "Keep the group local only")
	cmd.AddCommand(create)

	var email, name string
	addMember := &cobra.Command{
		Use:   "add-member GROUP_ID USER_ID",
		Short: "Add a member to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.AddMemberRequest{UserID: args[1], Email: email, Name: name}
			var member dto.MemberResponse
			if err := client().do(http.MethodPost, "/api/v1/groups/"+url.PathEscape(args[0])+"/members", req, &member); err != nil {
				return err
			}
			return printJSON(member)
		},
	}
	addMember.Flags().StringVar(&email, "email", "", "Member e-mail (required)")
	addMember.Flags().StringVar(&name, "name", "", "Member display name")
	_ = addMember.MarkFlagRequired("email")
	cmd.AddCommand(addMember)

	return cmd
}

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "expenses", Short: "Expense operations"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list GROUP_ID",
		Short: "List a group's expenses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var expenses []dto.ExpenseResponse
			if err := client().do(http.MethodGet, "/api/v1/groups/"+url.PathEscape(args[0])+"/expenses", nil, &expenses); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tPAYER\tAMOUNT\tDESCRIPTION")
			for _, e := range expenses {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.ExpenseDate.Format("2006-01-02"), e.PayerID, e.Amount.StringFixed(2), truncate(e.Description, 40))
			}
			return tw.Flush()
		},
	})

	var payer, description, amount string
	var participants []string
	add := &cobra.Command{
		Use:   "add GROUP_ID",
		Short: "Record an expense split evenly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			req := dto.CreateExpenseRequest{
				PayerID:      payer,
				Description:  description,
				Amount:       value,
				Participants: participants,
			}
			var expense dto.ExpenseResponse
			if err := client().do(http.MethodPost, "/api/v1/groups/"+url.PathEscape(args[0])+"/expenses", req, &expense); err != nil {
				return err
			}
			return printJSON(expense)
		},
	}
	add.Flags().StringVar(&payer, "payer", "", "User ID of the payer (required)")
	add.Flags().StringVar(&description, "description", "", "What the expense was for")
	add.Flags().StringVar(&amount, "amount", "", "Total amount (required)")
	add.Flags().StringSliceVar(&participants, "participants", nil, "User IDs sharing the expense (default: every member)")
	_ = add.MarkFlagRequired("payer")
	_ = add.MarkFlagRequired("amount")
	cmd.AddCommand(add)

	return cmd
}

func balancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balances GROUP_ID",
		Short: "Show each member's net balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var balances []dto.BalanceResponse
			if err := client().do(http.MethodGet, "/api/v1/groups/"+url.PathEscape(args[0])+"/balances", nil, &balances); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "USER\tBALANCE")
			for _, b := range balances {
				fmt.Fprintf(tw, "%s\t%s\n", b.UserID, b.Balance.StringFixed(2))
			}
			return tw.Flush()
		},
	}
}

func settleUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle-up GROUP_ID",
		Short: "Show the fewest payments that settle a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var txs []dto.TransactionResponse
			if err := client().do(http.MethodGet, "/api/v1/groups/"+url.PathEscape(args[0])+"/simplified", nil, &txs); err != nil {
				return err
			}
			if len(txs) == 0 {
				fmt.Fprintln(out, "All settled up.")
				return nil
			}
			for _, tx := range txs {
				fmt.Fprintf(out, "%s pays %s %s\n", tx.FromUserID, tx.ToUserID, tx.Amount.StringFixed(2))
			}
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "report GROUP_ID",
		Short: "Download a group's spreadsheet report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := client().raw(http.MethodGet, "/api/v1/groups/"+url.PathEscape(args[0])+"/report.xlsx", nil)
			if err != nil {
				return err
			}
			if output == "" {
				output = args[0] + ".xlsx"
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(out, "Report written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default GROUP_ID.xlsx)")
	return cmd
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "sync", Short: "Sync operations"}

	cmd.AddCommand(&cobra.Command{
		Use:   "status [GROUP_ID]",
		Short: "Show sync status of one or every group",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				var status dto.SyncStatusResponse
				if err := client().do(http.MethodGet, "/api/v1/groups/"+url.PathEscape(args[0])+"/sync/status", nil, &status); err != nil {
					return err
				}
				return printJSON(status)
			}

			var statuses []dto.SyncStatusResponse
			if err := client().do(http.MethodGet, "/api/v1/sync", nil, &statuses); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "GROUP\tSTATUS\tVERSION\tLAST SYNC\tERROR")
			for _, s := range statuses {
				last := "never"
				if s.LastSyncAt != nil {
					last = s.LastSyncAt.Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.GroupID, s.Status, s.Version, last, truncate(s.LastError, 40))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "now GROUP_ID",
		Short: "Sync a group immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result dto.SyncResultResponse
			if err := client().do(http.MethodPost, "/api/v1/groups/"+url.PathEscape(args[0])+"/sync/now", nil, &result); err != nil {
				return err
			}
			fmt.Fprintf(out, "Sync %s: %s\n", result.GroupID, result.Outcome)
			if result.Status != nil && result.Status.Status == "conflict" {
				fmt.Fprintln(out, "Conflict detected. Inspect with 'sync conflicts' and settle with 'sync resolve' or 'sync merge'.")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "conflicts GROUP_ID",
		Short: "List differences between the local and remote copies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ConflictsResponse
			if err := client().do(http.MethodGet, "/api/v1/groups/"+url.PathEscape(args[0])+"/sync/conflicts", nil, &resp); err != nil {
				return err
			}
			if len(resp.Conflicts) == 0 {
				fmt.Fprintln(out, "No conflicts.")
				return nil
			}
			for _, c := range resp.Conflicts {
				fmt.Fprintf(out, "- %s\n", c)
			}
			return nil
		},
	})

	var keep string
	resolve := &cobra.Command{
		Use:   "resolve GROUP_ID",
		Short: "Resolve a conflict by keeping one side",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep != dto.KeepLocal && keep != dto.KeepRemote {
				return fmt.Errorf("--keep must be %q or %q", dto.KeepLocal, dto.KeepRemote)
			}
			var status dto.SyncStatusResponse
			req := dto.ResolveConflictRequest{Keep: keep}
			if err := client().do(http.MethodPost, "/api/v1/groups/"+url.PathEscape(args[0])+"/sync/resolve", req, &status); err != nil {
				return err
			}
			return printJSON(status)
		},
	}
	resolve.Flags().StringVar(&keep, "keep", "", "Side to keep: local or remote")
	_ = resolve.MarkFlagRequired("keep")
	cmd.AddCommand(resolve)

	cmd.AddCommand(&cobra.Command{
		Use:   "merge GROUP_ID",
		Short: "Resolve a conflict by merging both copies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var status dto.SyncStatusResponse
			if err := client().do(http.MethodPost, "/api/v1/groups/"+url.PathEscape(args[0])+"/sync/merge", nil, &status); err != nil {
				return err
			}
			return printJSON(status)
		},
	})

	return cmd
}

func queueCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "queue", Short: "Offline queue operations"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending local changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var changes []dto.PendingChangeResponse
			if err := client().do(http.MethodGet, "/api/v1/queue", nil, &changes); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "SEQ\tGROUP\tENTITY\tOPERATION\tENQUEUED")
			for _, c := range changes {
				fmt.Fprintf(tw, "%d\t%s\t%s/%s\t%s\t%s\n", c.Seq, c.GroupID, c.EntityType, c.EntityID, c.Operation, c.EnqueuedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "process",
		Short: "Push every group with pending changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.QueueProcessedResponse
			if err := client().do(http.MethodPost, "/api/v1/queue/process", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintf(out, "Processed %d changes, %d remaining\n", resp.Processed, resp.Remaining)
			return nil
		},
	})

	return cmd
}

// tokenCmd issues an access token for development setups that share
// JWT_SECRET with the agent.
func tokenCmd() *cobra.Command {
	var secret string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token USER_ID EMAIL",
		Short: "Issue an access token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			signed, err := auth.NewJWTManager(secret, ttl).Generate(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
