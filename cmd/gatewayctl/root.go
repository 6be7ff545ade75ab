package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"whatsapp-crm-gateway/internal/config"
	"whatsapp-crm-gateway/internal/gateway"
	"whatsapp-crm-gateway/internal/logging"
)

type globalFlags struct {
	baseURL    string
	token      string
	instance   string
	candidates string
	timeout    time.Duration
	retries    int
	verbose    bool
}

func newRootCmd() *cobra.Command {
	cfg := config.LoadConfig()
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "gatewayctl",
		Short: "Run single gateway operations against a WhatsApp provider deployment",
		Long: `gatewayctl runs one gateway operation against a provider deployment and
prints the normalized result as JSON. Probe failures are logged to stderr
with -v, which shows which endpoint variant a deployment answers to.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.baseURL, "base-url", cfg.ProviderBaseURL, "provider base URL (PROVIDER_BASE_URL)")
	pf.StringVar(&flags.token, "token", cfg.ProviderToken, "provider API token (PROVIDER_TOKEN)")
	pf.StringVar(&flags.instance, "instance", cfg.ProviderInstance, "provider instance id (PROVIDER_INSTANCE)")
	pf.StringVar(&flags.candidates, "candidates", cfg.CandidatesFile, "YAML file with extra endpoint candidates")
	pf.DurationVar(&flags.timeout, "timeout", cfg.ProbeTimeout, "timeout per candidate attempt")
	pf.IntVar(&flags.retries, "retries", cfg.ProbeRetries, "re-runs of a read cascade after transport failures")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log every candidate attempt to stderr")

	root.AddCommand(
		newContactsCmd(flags),
		newMessagesCmd(flags),
		newSendCmd(flags),
		newStatusCmd(flags),
		newDisconnectCmd(flags),
		newCandidatesCmd(flags),
	)
	return root
}

func (f *globalFlags) gateway(cmd *cobra.Command) (*gateway.Gateway, error) {
	if f.baseURL == "" {
		return nil, fmt.Errorf("--base-url or PROVIDER_BASE_URL is required")
	}
	table, err := f.table()
	if err != nil {
		return nil, err
	}

	level := "error"
	if f.verbose {
		level = "debug"
	}
	logger := logging.New(level, "text", cmd.ErrOrStderr())

	creds := gateway.Credentials{BaseURL: f.baseURL, Token: f.token, InstanceID: f.instance}
	return gateway.New(creds,
		gateway.WithTable(table),
		gateway.WithAttemptTimeout(f.timeout),
		gateway.WithRetries(f.retries),
		gateway.WithLogger(logger),
	), nil
}

func (f *globalFlags) table() (gateway.Table, error) {
	if f.candidates == "" {
		return gateway.DefaultTable(), nil
	}
	return gateway.LoadTable(f.candidates)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
