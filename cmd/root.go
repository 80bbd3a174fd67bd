package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	configPath  string
	timeout     time.Duration
	outputJSONL string
	outputHTML  string
	noColor     bool
	noBanner    bool
	verbose     bool
	logFormat   string

	// dest only
	privileged bool
	pingCount  int
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "realityscout",
		Short:         "Check whether a host suits as a Reality dest or SNI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file")
	pf.DurationVar(&opts.timeout, "timeout", 0, "Override every per-probe timeout")
	pf.StringVar(&opts.outputJSONL, "json", "", "JSON report output file")
	pf.StringVar(&opts.outputHTML, "html", "", "HTML report output file")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&opts.noBanner, "no-banner", false, "Suppress the banner")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging and progress lines")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(newDestCmd(opts), newSNICmd(opts))
	return root
}

// Execute runs the CLI until completion or interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}
