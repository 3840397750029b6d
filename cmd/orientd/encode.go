package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"orientd/internal/encode"
	"orientd/internal/orientation"
)

func newEncodeCommand() *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Show the lock constraint or system UI flags a request maps to",
	}
	cmd.PersistentFlags().StringVar(&platform, "platform", "android", "target platform (android|apple)")

	cmd.AddCommand(&cobra.Command{
		Use:   "preferred [names...]",
		Short: "Encode a set of allowed orientations",
		Example: `  orientd encode preferred portraitUp portraitDown
  orientd encode preferred --platform apple landscapeLeft`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := orientation.ParsePlatform(platform)
			if err != nil {
				return err
			}
			printPreferred(cmd.OutOrStdout(), p, args)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "force [name]",
		Short: "Encode a forced orientation; no name clears the lock",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := orientation.ParsePlatform(platform)
			if err != nil {
				return err
			}
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			c := encode.Force(p, name)
			fmt.Fprintf(cmd.OutOrStdout(), "constraint=%s native=%d\n", c, c.Native())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "overlays [names...]",
		Short:   "Encode the system UI overlays to keep visible (android)",
		Example: `  orientd encode overlays SystemUiOverlay.top`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := orientation.ParsePlatform(platform)
			if err != nil {
				return err
			}
			if p != orientation.Android {
				return fmt.Errorf("overlays are not encoded for platform %s", p)
			}
			f := encode.Overlays(args)
			fmt.Fprintf(cmd.OutOrStdout(), "flags=%s top=%t bottom=%t\n", f, f.TopVisible(), f.BottomVisible())
			return nil
		},
	})
	return cmd
}

func printPreferred(w io.Writer, p orientation.Platform, names []string) {
	m := encode.MaskOf(names)
	c := encode.ForMask(m)
	fmt.Fprintf(w, "mask=0x%X constraint=%s native=%d", uint8(m), c, c.Native())
	if encode.Lossy(m) {
		fmt.Fprint(w, " lossy=true")
	}
	if p == orientation.Apple {
		fmt.Fprintf(w, " interface_mask=0x%X", uint(encode.PreferredInterfaceMask(names)))
	}
	fmt.Fprintln(w)
}
