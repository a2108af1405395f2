package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the connection to the API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}
}

func runStatus(ctx context.Context) error {
	serverURL := getServerURL()
	fmt.Printf("Server:  %s\n", serverURL)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := newAPIClient().Health(ctx); err != nil {
		fmt.Printf("Status:  ✗ cannot reach server (%v)\n", err)
		fmt.Println("\nRun 'sr serve' or set SR_SERVER_URL.")
		return nil
	}
	fmt.Println("Status:  ✓ connected")
	return nil
}
