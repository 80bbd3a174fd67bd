package cmd

import (
	"github.com/spf13/cobra"

	"github.com/selimozcann/RealityScout/internal/model"
)

func newDestCmd(opts *options) *cobra.Command {
	c := &cobra.Command{
		Use:   "dest <host[:port]>",
		Short: "Check a host as the dest of a Reality server",
		Long: "Checks TLS 1.3, HTTP/2, CDN fronting, redirects and latency. Without a port\n" +
			"the first reachable of the configured default ports (443, 80) is used.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, model.VariantDest, args[0])
		},
	}
	c.Flags().BoolVar(&opts.privileged, "privileged", false, "Use a raw ICMP socket (requires root)")
	c.Flags().IntVar(&opts.pingCount, "ping-count", 5, "Echo requests sent by the latency probe")
	return c
}
