package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func newProbeCmd(a *app) *cobra.Command {
	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Test the UART connection",
		Long: `Open the port, send a short probe and report any reply. An idle
bootloader may stay silent, which is not treated as a failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.runProbe(ctx)
		},
	}
	a.addConnectionFlags(probeCmd)
	return probeCmd
}

func (a *app) runProbe(ctx context.Context) error {
	p, err := a.deviceProfile()
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Testing UART connection...")
	result, err := a.newUploader(p).Probe(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Connection test failed")
		return err
	}

	if result.Responded() {
		fmt.Fprintf(a.out, "Received response: %q\n", result.Reply)
	} else {
		fmt.Fprintln(a.out, "No response received (bootloader may be waiting)")
	}
	fmt.Fprintln(a.out, "Connection test passed")
	return nil
}
