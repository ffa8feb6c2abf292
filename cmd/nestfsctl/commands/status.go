package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
	"github.com/marmos91/nestfs/internal/cli/credentials"
	"github.com/marmos91/nestfs/internal/cli/output"
	"github.com/marmos91/nestfs/internal/cli/timeutil"
	"github.com/marmos91/nestfs/pkg/apiclient"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the status of the connected NestFS server.

This command checks the server health endpoint and displays status and
uptime. With --verbose it also queries the readiness endpoint for drive
and node counts.

Examples:
  # Status of the server from the current context
  nestfsctl status

  # Include drive and node counts
  nestfsctl status -v

  # Machine-readable output
  nestfsctl status -o json`,
	RunE: runStatus,
}

// ServerStatus is the display shape for the status command.
type ServerStatus struct {
	Server    string `json:"server" yaml:"server"`
	Status    string `json:"status" yaml:"status"`
	Healthy   bool   `json:"healthy" yaml:"healthy"`
	Service   string `json:"service,omitempty" yaml:"service,omitempty"`
	StartedAt string `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime    string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Drives    *int   `json:"drives,omitempty" yaml:"drives,omitempty"`
	Nodes     *int   `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	ctx, err := store.GetCurrentContext()
	if err != nil {
		return fmt.Errorf("not logged in. Run 'nestfsctl login' first")
	}

	serverURL := ctx.ServerURL
	if cmdutil.Flags.ServerURL != "" {
		serverURL = cmdutil.Flags.ServerURL
	}
	if serverURL == "" {
		return fmt.Errorf("no server configured. Run 'nestfsctl login' first")
	}

	status := ServerStatus{
		Server:  serverURL,
		Status:  "unreachable",
		Healthy: false,
	}

	// The health endpoints are unauthenticated, so a bare client suffices
	client := apiclient.New(serverURL)

	health, err := client.Health()
	if err != nil {
		status.Error = err.Error()
	} else {
		status.Status = health.Status
		status.Healthy = health.Healthy()
		status.Service = stringField(health.Data, "service")
		status.StartedAt = stringField(health.Data, "started_at")
		status.Uptime = stringField(health.Data, "uptime")
		if health.Error != "" {
			status.Error = health.Error
		}
	}

	if cmdutil.IsVerbose() && status.Healthy {
		if ready, err := client.Ready(); err == nil {
			if n, ok := intField(ready.Data, "drives"); ok {
				status.Drives = &n
			}
			if n, ok := intField(ready.Data, "nodes"); ok {
				status.Nodes = &n
			}
		}
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}

	return nil
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// intField reads a numeric field, which JSON decoding hands over as float64.
func intField(data map[string]any, key string) (int, bool) {
	f, ok := data[key].(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func printStatusTable(status ServerStatus) {
	fmt.Println()
	fmt.Println("NestFS Server Status")
	fmt.Println("====================")
	fmt.Println()
	fmt.Printf("  Server:     %s\n", status.Server)

	if status.Healthy {
		fmt.Printf("  Status:     \033[32m● %s\033[0m\n", status.Status)
	} else if status.Status == "unreachable" {
		fmt.Printf("  Status:     \033[31m○ %s\033[0m\n", status.Status)
	} else {
		fmt.Printf("  Status:     \033[33m● %s\033[0m\n", status.Status)
	}

	if status.Service != "" {
		fmt.Printf("  Service:    %s\n", status.Service)
	}
	if status.StartedAt != "" {
		fmt.Printf("  Started:    %s\n", timeutil.FormatTime(status.StartedAt))
	}
	if status.Uptime != "" {
		fmt.Printf("  Uptime:     %s\n", timeutil.FormatUptime(status.Uptime))
	}
	if status.Drives != nil {
		fmt.Printf("  Drives:     %d\n", *status.Drives)
	}
	if status.Nodes != nil {
		fmt.Printf("  Nodes:      %d\n", *status.Nodes)
	}
	if status.Error != "" {
		fmt.Printf("  Error:      %s\n", status.Error)
	}
	fmt.Println()
}
