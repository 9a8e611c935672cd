package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mincpu/uartload/transport"
)

// listPorts is replaced in tests.
var listPorts = transport.ListPorts

func newPortsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := listPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(a.out, "No serial ports found")
				return nil
			}
			for _, port := range ports {
				fmt.Fprintln(a.out, port)
			}
			return nil
		},
	}
}
