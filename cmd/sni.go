package cmd

import (
	"github.com/spf13/cobra"

	"github.com/selimozcann/RealityScout/internal/model"
)

func newSNICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sni <host>",
		Short: "Check a host as the SNI of a Reality server",
		Long:  "Checks TLS 1.3, HTTP/2, HTTP/3, CDN fronting and redirects on port 443.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, model.VariantSNI, args[0])
		},
	}
}
