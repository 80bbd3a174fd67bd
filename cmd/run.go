package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/selimozcann/RealityScout/internal/banner"
	"github.com/selimozcann/RealityScout/internal/capability"
	"github.com/selimozcann/RealityScout/internal/config"
	"github.com/selimozcann/RealityScout/internal/model"
	"github.com/selimozcann/RealityScout/internal/output"
	"github.com/selimozcann/RealityScout/internal/runner"
	"github.com/selimozcann/RealityScout/internal/util"
)

const statusBuffer = 64

func run(cmd *cobra.Command, opts *options, v model.Variant, arg string) error {
	log, err := newLogger(cmd.ErrOrStderr(), opts.logFormat, opts.verbose)
	if err != nil {
		return err
	}
	target, err := parseTarget(v, arg)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, opts, v)
	if err != nil {
		return err
	}
	if opts.noColor {
		color.NoColor = true
	}

	out := cmd.OutOrStdout()
	if !opts.noBanner {
		banner.Print(out)
	}
	if util.IsInternalHost(target.Host) {
		log.WithField("host", target.Host).Warn("target is an internal address")
	}

	prov, err := capability.Ensure(cfg, v, capability.Options{Log: log})
	if err != nil {
		return err
	}

	console := output.NewConsole(out)
	console.Progress = opts.verbose
	console.Header(v, target, cfg.DefaultPorts)

	set, err := runner.Assemble(cfg, v, runner.Deps{Resolver: prov.Resolver, Pinger: prov.Pinger, Log: log})
	if err != nil {
		return err
	}
	defer func() { _ = set.Close() }()

	events := make(chan model.Status, statusBuffer)
	done := console.Stream(events)
	r := runner.New(runner.Config{
		Variant:       v,
		Ports:         cfg.DefaultPorts,
		PortTimeout:   cfg.Timeouts.PortCheck,
		Stagger:       cfg.Stagger,
		OnPortAttempt: console.PortAttempt,
		Log:           log,
	}, set.Probers, events)
	rep, err := r.Run(cmd.Context(), target)
	close(events)
	<-done
	if err != nil {
		return err
	}
	console.Final(rep)

	params := buildParamsMap(opts, cfg, v, rep.Target)
	if opts.outputJSONL != "" {
		if err := writeJSONLFile(cmd.ErrOrStderr(), opts.outputJSONL, []output.Record{output.BuildRecord(rep)}, opts.verbose); err != nil {
			return err
		}
	}
	if opts.outputHTML != "" {
		if err := writeHTMLFile(cmd.ErrOrStderr(), opts.outputHTML, output.BuildPage(rep, params), opts.verbose); err != nil {
			return err
		}
	}
	return nil
}

// parseTarget validates the positional argument. sni always probes 443.
func parseTarget(v model.Variant, arg string) (model.Target, error) {
	host, port, hasPort, err := util.SplitHostPort(arg)
	if err != nil {
		return model.Target{}, fmt.Errorf("invalid target %q: %w", arg, err)
	}
	if v == model.VariantSNI {
		if hasPort {
			return model.Target{}, errors.New("sni takes a host without port")
		}
		return model.Target{Host: host}.WithPort(443), nil
	}
	if hasPort {
		return model.Target{Host: host}.WithPort(port), nil
	}
	return model.Target{Host: host}, nil
}

func loadConfig(cmd *cobra.Command, opts *options, v model.Variant) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("timeout") {
		if opts.timeout <= 0 {
			return nil, fmt.Errorf("--timeout must be > 0 (got %s)", opts.timeout)
		}
		cfg.OverrideTimeouts(opts.timeout)
	}
	if v == model.VariantDest {
		if cmd.Flags().Changed("ping-count") {
			cfg.Ping.Count = opts.pingCount
		}
		if opts.privileged {
			cfg.Ping.Privileged = true
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildParamsMap(opts *options, cfg *config.Config, v model.Variant, target model.Target) map[string]string {
	ports := make([]string, len(cfg.DefaultPorts))
	for i, p := range cfg.DefaultPorts {
		ports[i] = strconv.Itoa(int(p))
	}
	params := map[string]string{
		"variant":          string(v),
		"target":           target.Addr(),
		"timeout_tls":      cfg.TLSTimeout(v).String(),
		"timeout_http":     cfg.Timeouts.HTTP.String(),
		"timeout_cdn":      cfg.Timeouts.CDN.String(),
		"whois_server":     cfg.CDN.WhoisServer,
		"strict_redirects": strconv.FormatBool(cfg.StrictRedirects),
		"user_agent":       cfg.UserAgent,
		"output_json":      opts.outputJSONL,
		"output_html":      opts.outputHTML,
	}
	if v == model.VariantDest {
		params["default_ports"] = strings.Join(ports, ", ")
		params["ping_count"] = strconv.Itoa(cfg.Ping.Count)
		params["privileged"] = strconv.FormatBool(cfg.Ping.Privileged)
	}
	if opts.configPath != "" {
		params["config"] = opts.configPath
	}
	if cfg.CDN.GeoLiteASNPath != "" {
		params["geolite_asn"] = cfg.CDN.GeoLiteASNPath
	}
	return params
}

func writeJSONLFile(logw io.Writer, path string, records []output.Record, verbose bool) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create JSON directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create JSON file: %w", err)
	}
	defer f.Close()
	if err := output.WriteJSONL(f, records); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	if verbose {
		fmt.Fprintf(logw, "[write] JSON report -> %s\n", path)
	}
	return nil
}

func writeHTMLFile(logw io.Writer, path string, page output.PageData, verbose bool) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create HTML directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create HTML file: %w", err)
	}
	defer f.Close()
	if err := output.RenderHTML(f, page); err != nil {
		return fmt.Errorf("write HTML: %w", err)
	}
	if verbose {
		fmt.Fprintf(logw, "[write] HTML report -> %s\n", path)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
