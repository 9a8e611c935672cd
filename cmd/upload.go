package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mincpu/uartload/bootloader"
	"github.com/mincpu/uartload/firmware"
)

func newUploadCmd(a *app) *cobra.Command {
	var address string
	var test bool

	uploadCmd := &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload a program image",
		Long: `Upload a .bin or Intel HEX program image to the device. The image is
loaded at --address, or at the base address recorded in a HEX file, or at the
profile's default load address.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if test {
				return a.runProbe(ctx)
			}
			if len(args) == 0 {
				return fmt.Errorf("%w: no image file given", errUsage)
			}
			return a.runUpload(ctx, args[0], address, cmd.Flags().Changed("address"))
		},
	}

	a.addConnectionFlags(uploadCmd)
	uploadCmd.Flags().StringVarP(&address, "address", "a", "", "load address (e.g. 0x1000)")
	uploadCmd.Flags().BoolVarP(&test, "test", "t", false, "test the connection only")
	return uploadCmd
}

func (a *app) runUpload(ctx context.Context, path, address string, addressSet bool) error {
	p, err := a.deviceProfile()
	if err != nil {
		return err
	}

	img, err := firmware.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Loaded %s file: %s\n", img.Format, path)
	fmt.Fprintf(a.out, "  Size: %d bytes\n", len(img.Data))

	addr := p.LoadAddress
	switch {
	case addressSet:
		if addr, err = parseAddress(address); err != nil {
			return err
		}
	case img.HasAddress:
		addr = img.Address
	}

	fmt.Fprintf(a.out, "\nStarting upload to MinCPU...\n")
	fmt.Fprintf(a.out, "  File: %s\n", path)
	fmt.Fprintf(a.out, "  Size: %d bytes\n", len(img.Data))
	fmt.Fprintf(a.out, "  Load address: 0x%08x\n\n", addr)

	up := a.newUploader(p, bootloader.WithProgressCallback(progressPrinter(a.out)))
	result, err := up.UploadAt(ctx, img.Data, addr)
	if err != nil {
		fmt.Fprintln(a.out)
		return err
	}

	fmt.Fprintf(a.out, "\nUpload successful!\n")
	fmt.Fprintf(a.out, "  Sent %d bytes (%d padded) in %d chunks\n", result.ImageSize, result.PaddedSize, result.Chunks)
	fmt.Fprintf(a.out, "  Elapsed: %s\n", result.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(a.out, "MinCPU should now be running your program.\n")
	return nil
}

// parseAddress accepts decimal, 0x hex, 0o octal and 0b binary addresses.
func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid load address %q: %w", s, err)
	}
	return uint32(v), nil
}

// progressPrinter prints phase changes and, on a terminal, a running
// percentage during the payload phase.
func progressPrinter(w io.Writer) bootloader.ProgressCallback {
	tty := isTerminal(w)
	last := ""
	return func(p bootloader.Progress) {
		if p.Phase != last {
			if last == bootloader.PhasePayload && tty {
				fmt.Fprintln(w)
			}
			last = p.Phase
			if msg := phaseMessage(p); msg != "" {
				fmt.Fprintln(w, msg)
			}
		}
		if p.Phase == bootloader.PhasePayload && tty {
			fmt.Fprintf(w, "\rProgress: %.1f%%", p.Percentage)
		}
	}
}

func phaseMessage(p bootloader.Progress) string {
	switch p.Phase {
	case bootloader.PhaseHandshake:
		return "Sending magic word..."
	case bootloader.PhaseHeader:
		return fmt.Sprintf("Sending program size: %d bytes", p.TotalBytes)
	case bootloader.PhasePayload:
		return fmt.Sprintf("Sending program data (%d bytes)...", p.TotalBytes)
	case bootloader.PhaseStatus:
		return "Waiting for bootloader response..."
	}
	return ""
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
