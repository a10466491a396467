// Package cli implements the mvn2get command-line interface.
//
// The single command downloads artifact files from Maven 2 style
// repositories: positional arguments name artifacts either as
// group:artifact:version notation or as full repository URLs, and the
// flags mirror the configuration file keys. Configuration is resolved
// in the order flags > --config file (or .mvn2get.json discovery) >
// built-in defaults, then handed to the resolver as a plain value.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/groboclown/mvn2get/pkg/buildinfo"
	"github.com/groboclown/mvn2get/pkg/config"
	"github.com/groboclown/mvn2get/pkg/maven"
	"github.com/groboclown/mvn2get/pkg/resolver"
	"github.com/groboclown/mvn2get/pkg/verify"
)

// appName is the application name used for display and config files.
const appName = "mvn2get"

// ErrProblems is returned when the run completed but the problem
// ledger is not empty; the process exits 1.
var ErrProblems = errors.New("problems discovered")

// CLI holds shared state for the command.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

type flags struct {
	configFile          string
	outDir              string
	recursive           bool
	overwrite           bool
	verbosity           int
	progress            bool
	depManagement       bool
	errorFile           string
	noLocal             bool
	noRemoteDownload    bool
	noPGP               bool
	pgpKeyring          string
	requireValidLicense bool
	requireLicense      bool
}

// RootCommand creates the root cobra command.
func (c *CLI) RootCommand() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:   appName + " [flags] artifact...",
		Short: "Download artifact files from Maven 2 style repositories",
		Long: `Tool to download dependencies from a remote Maven repository for checking
usage, before adding them into a local repository. All the files published
for the artifact are pulled down, checksum and signature verified, and
optionally resolved recursively through their POM dependencies.

Artifacts are either Maven-style URLs or gradle compact notation
(group:artifact:version).`,
		Version:      buildinfo.Version,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, args, &f)
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	fs := root.Flags()
	fs.StringVarP(&f.configFile, "config", "c", "", "configuration file to load")
	fs.StringVarP(&f.outDir, "dir", "d", "", "directory to store the downloaded files (defaults to the current directory)")
	fs.BoolVarP(&f.recursive, "resolve", "r", false, "resolve the POM files and their dependencies, recursively")
	fs.BoolVarP(&f.overwrite, "overwrite", "O", false, "overwrite any already existing file with the same name")
	fs.CountVarP(&f.verbosity, "verbosity", "v", "increase output verbosity")
	fs.BoolVarP(&f.progress, "progress", "p", false, "show progress indicator")
	fs.BoolVarP(&f.depManagement, "parent", "P", false, "download dependency management children (declared in parent and bom files)")
	fs.StringVarP(&f.errorFile, "error-file", "e", "", "file to add the discovered problems to")
	fs.BoolVarP(&f.noLocal, "no-local", "x", false, "do not search local URLs for the dependency")
	fs.BoolVarP(&f.noRemoteDownload, "no-remote-download", "t", false, "do not download files from the remote repo")
	fs.BoolVar(&f.noPGP, "no-pgp", false, "do not perform PGP signature checking")
	fs.StringVar(&f.pgpKeyring, "pgp-keyring", "", "keyring file holding the trusted artifact signing keys")
	fs.BoolVar(&f.requireValidLicense, "require-valid-license", false, "require that artifacts declaring a license have an explicitly allowed one")
	fs.BoolVar(&f.requireLicense, "require-license", false, "require that all downloaded artifacts declare a license name or URL")

	return root
}

func (c *CLI) run(cmd *cobra.Command, args []string, f *flags) error {
	cfg, err := config.Discover(f.configFile)
	if err != nil {
		return err
	}
	applyFlags(&cfg, cmd, f)
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.Logger.SetLevel(logLevelFor(cfg.LogLevel))

	seeds := make([]maven.Coordinate, 0, len(args))
	for _, arg := range args {
		coord, err := parseArtifactArg(arg, cfg)
		if err != nil {
			return err
		}
		seeds = append(seeds, coord)
	}

	sink := &eventSink{logger: c.Logger, trace: cfg.LogLevel == config.LogTrace}
	if cfg.ShowProgress {
		sink.spin = newSpinner(cmd.Context(), cfg.ProgressIndicators)
		sink.spin.Start()
		defer sink.spin.Stop()
	}

	verifier, err := newVerifier(cfg, f.pgpKeyring)
	if err != nil {
		return err
	}

	res := resolver.New(cfg,
		resolver.WithSink(sink),
		resolver.WithVerifier(verifier),
	)
	if err := res.Resolve(cmd.Context(), seeds); err != nil {
		return err
	}
	return c.report(res, cfg)
}

// applyFlags copies every flag the user actually set over the loaded
// configuration. An untouched flag never overrides the file.
func applyFlags(cfg *config.Config, cmd *cobra.Command, f *flags) {
	set := cmd.Flags().Changed
	if set("dir") {
		cfg.OutDir = f.outDir
	}
	if set("resolve") {
		cfg.Recursive = f.recursive
	}
	if set("overwrite") {
		cfg.Overwrite = f.overwrite
	}
	if set("progress") {
		cfg.ShowProgress = f.progress
	}
	if set("parent") {
		cfg.IncludeDepManagement = f.depManagement
	}
	if set("error-file") {
		cfg.ProblemFile = f.errorFile
	}
	if set("no-local") {
		// The flag wins over the configuration's check_in_local.
		cfg.CheckInLocal = !f.noLocal
	}
	if set("no-remote-download") {
		cfg.DoRemoteDownload = !f.noRemoteDownload
	}
	if set("no-pgp") {
		cfg.NoPGP = f.noPGP
	}
	if set("require-valid-license") {
		cfg.AllowUnacceptableLicenses = !f.requireValidLicense
	}
	if set("require-license") {
		cfg.AllowNoLicense = !f.requireLicense
		cfg.RequireLicense = f.requireLicense
	}
	switch {
	case f.verbosity >= 3:
		cfg.LogLevel = config.LogTrace
	case f.verbosity == 2:
		cfg.LogLevel = config.LogDebug
	case f.verbosity == 1:
		cfg.LogLevel = config.LogInfo
	}
}

// newVerifier picks the signature verifier: the null verifier when PGP
// checking is off or no keyring was supplied, otherwise the openpgp
// implementation over the given keyring.
func newVerifier(cfg config.Config, keyring string) (verify.SignatureVerifier, error) {
	if cfg.NoPGP || keyring == "" {
		return verify.NullVerifier{}, nil
	}
	v, err := verify.NewOpenPGPVerifier(keyring)
	if err != nil {
		return nil, fmt.Errorf("loading PGP keyring: %w", err)
	}
	return v, nil
}

// report dumps the problem ledger and turns a non-empty ledger into
// the exit-1 error.
func (c *CLI) report(res *resolver.Resolver, cfg config.Config) error {
	ledger := res.Ledger()
	all := ledger.All()
	if len(all) == 0 {
		return nil
	}

	fmt.Fprintln(os.Stderr, "\nDiscovered problems:")
	for _, p := range all {
		fmt.Fprintln(os.Stderr, "    "+p.String())
	}
	if cfg.ProblemFile != "" {
		if err := ledger.WriteFile(cfg.ProblemFile); err != nil {
			c.Logger.Warnf("could not write problem file: %v", err)
		}
	}
	return fmt.Errorf("%w: %d recorded", ErrProblems, len(all))
}
