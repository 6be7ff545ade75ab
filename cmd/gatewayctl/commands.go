package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"whatsapp-crm-gateway/internal/gateway"
)

func newContactsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "List contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := flags.gateway(cmd)
			if err != nil {
				return err
			}
			res, err := gw.ListContacts(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newMessagesCmd(flags *globalFlags) *cobra.Command {
	var (
		limit int
		sort  string
	)
	cmd := &cobra.Command{
		Use:   "messages <contact-id>",
		Short: "List one page of a contact's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := flags.gateway(cmd)
			if err != nil {
				return err
			}
			res, err := gw.ListMessages(cmd.Context(), args[0], limit, gateway.ParseSortOrder(sort))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", gateway.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&sort, "sort", string(gateway.SortDesc), "asc or desc")
	return cmd
}

func newSendCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send <contact-id> <text>...",
		Short: "Send a text message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := flags.gateway(cmd)
			if err != nil {
				return err
			}
			res, err := gw.SendMessage(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				printDiagnostics(cmd, err)
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the provider session's connection status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := flags.gateway(cmd)
			if err != nil {
				return err
			}
			st, err := gw.GetConnectionStatus(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}

func newDisconnectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Log the provider session out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := flags.gateway(cmd)
			if err != nil {
				return err
			}
			res, err := gw.Disconnect(cmd.Context())
			if err != nil {
				printDiagnostics(cmd, err)
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newCandidatesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates [operation]",
		Short: "Print the endpoint candidates in probe order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := flags.table()
			if err != nil {
				return err
			}
			ops := gateway.Operations
			if len(args) == 1 {
				op := gateway.Operation(args[0])
				if len(table.Candidates(op)) == 0 {
					return fmt.Errorf("unknown operation %q", args[0])
				}
				ops = []gateway.Operation{op}
			}
			out := cmd.OutOrStdout()
			for _, op := range ops {
				fmt.Fprintln(out, op)
				for _, c := range table.Candidates(op) {
					fmt.Fprintf(out, "  %3d  %-6s %-60s %s\n", c.Priority, c.Verb, c.Path, c.Body)
				}
			}
			return nil
		},
	}
}

func printDiagnostics(cmd *cobra.Command, err error) {
	var ce *gateway.CascadeExhaustedError
	if !errors.As(err, &ce) {
		return
	}
	w := cmd.ErrOrStderr()
	for _, f := range ce.Failures {
		fmt.Fprintln(w, "  -", f.String())
	}
}
