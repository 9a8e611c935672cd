package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mincpu/uartload/bootloader"
	"github.com/mincpu/uartload/profile"
	"github.com/mincpu/uartload/protocol"
	"github.com/mincpu/uartload/transport"
)

// app carries the flag values and collaborators shared by all commands.
type app struct {
	port        string
	baud        int
	timeout     time.Duration
	verbose     bool
	profilePath string
	device      string

	opener transport.Opener
	log    *logrus.Logger
	out    io.Writer
}

// newRootCmd builds the command tree. opener is used to reach the device.
func newRootCmd(opener transport.Opener) *cobra.Command {
	a := &app{
		opener: opener,
		log:    logrus.New(),
	}

	rootCmd := &cobra.Command{
		Use:   "uartload",
		Short: "MinCPU UART program loader",
		Long: `Upload program images to a MinCPU soft processor through its
UART bootloader.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.out = cmd.OutOrStdout()
			a.log.SetOutput(cmd.ErrOrStderr())
			if a.verbose {
				a.log.SetLevel(logrus.DebugLevel)
			} else {
				a.log.SetLevel(logrus.WarnLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "make verbose (enable debug logging)")

	rootCmd.AddCommand(
		newUploadCmd(a),
		newProbeCmd(a),
		newPortsCmd(a),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	if err := newRootCmd(transport.Serial{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if h := hint(err); h != "" {
			fmt.Fprintln(os.Stderr, h)
		}
		os.Exit(1)
	}
}

// addConnectionFlags registers the flags needed to reach a device.
func (a *app) addConnectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&a.port, "port", "p", "", "serial port (e.g. COM3, /dev/ttyUSB0)")
	cmd.Flags().IntVarP(&a.baud, "baud", "b", protocol.DefaultBaudRate, "baud rate")
	cmd.Flags().DurationVar(&a.timeout, "timeout", protocol.DefaultTimeout, "communication timeout")
	cmd.Flags().StringVar(&a.profilePath, "profile", "", "device profile file (INI)")
	cmd.Flags().StringVar(&a.device, "device", "", "device section in the profile file")
	_ = cmd.MarkFlagRequired("port")
}

// deviceProfile resolves the protocol profile selected on the command line.
func (a *app) deviceProfile() (protocol.Profile, error) {
	if a.profilePath == "" {
		if a.device != "" {
			return protocol.Profile{}, errors.New("--device requires --profile")
		}
		return protocol.DefaultProfile(), nil
	}

	set, err := profile.Load(a.profilePath)
	if err != nil {
		return protocol.Profile{}, err
	}

	name := a.device
	if name == "" {
		names := set.Names()
		if len(names) != 1 {
			return protocol.Profile{}, fmt.Errorf("profile file defines %d devices, choose one with --device", len(names))
		}
		name = names[0]
	}
	return set.Get(name)
}

// newUploader builds an uploader from the connection flags.
func (a *app) newUploader(p protocol.Profile, opts ...bootloader.Option) *bootloader.Uploader {
	base := []bootloader.Option{
		bootloader.WithBaudRate(a.baud),
		bootloader.WithTimeout(a.timeout),
		bootloader.WithProfile(p),
		bootloader.WithLogger(newLogAdapter(a.log)),
	}
	return bootloader.New(a.opener, a.port, append(base, opts...)...)
}
