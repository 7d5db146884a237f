// Package command provides CLI command definitions for blobnom-cli.
package command

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/iamd3vil/blobnom/internal/cli/client"
	"github.com/iamd3vil/blobnom/internal/cli/connection"
	"github.com/iamd3vil/blobnom/internal/cli/output"
	"github.com/iamd3vil/blobnom/internal/cli/repl"
	"github.com/iamd3vil/blobnom/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "blobnom-cli",
		Usage:   "Blobnom cache command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PingCommand(),
			GetCommand(),
			SetCommand(),
			DelCommand(),
			ExistsCommand(),
			InfoCommand(),
			StatsCommand(),
			BackupCommand(),
			VersionCommand(),
		},
		Action: runDefault,
	}

	return app
}

// runDefault enters the REPL when no subcommand is given.
func runDefault(c *cli.Context) error {
	if c.Args().Present() {
		return fmt.Errorf("unknown command %q", c.Args().First())
	}

	cl, err := dialCache(c)
	if err != nil {
		return err
	}
	defer cl.Close()

	fmt.Printf("connected to %s\n", ParseGlobalFlags(c).Server)
	return repl.New(cl, os.Stdin, os.Stdout).Run()
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "cache server address (tcp://host:port, tls://host:port, unix:///path, or host:port)",
			EnvVars: []string{"BLOBNOM_SERVER"},
			Value:   "127.0.0.1:6379",
		},
		&cli.StringFlag{
			Name:    "admin",
			Aliases: []string{"a"},
			Usage:   "admin HTTP address for stats and backup",
			EnvVars: []string{"BLOBNOM_ADMIN"},
			Value:   "127.0.0.1:7171",
		},
		&cli.StringFlag{
			Name:    "cacert",
			Usage:   "CA certificate file for tls:// and https:// addresses",
			EnvVars: []string{"BLOBNOM_CACERT"},
		},
		&cli.BoolFlag{
			Name:    "insecure",
			Usage:   "skip TLS certificate verification",
			EnvVars: []string{"BLOBNOM_INSECURE"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: plain, json, table (default per command)",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "per-command timeout",
			Value:   client.DefaultTimeout,
		},
		&cli.BoolFlag{
			Name:    "interactive",
			Aliases: []string{"i"},
			Usage:   "start the interactive REPL",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	// Server addresses
	Server string
	Admin  string

	// TLS trust settings
	CACert   string
	Insecure bool

	// Output format
	Output string // plain, json, table

	// Per-command timeout
	Timeout time.Duration
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:   c.String("server"),
		Admin:    c.String("admin"),
		CACert:   c.String("cacert"),
		Insecure: c.Bool("insecure"),
		Output:   c.String("output"),
		Timeout:  c.Duration("timeout"),
	}
}

// customTrust reports whether the flags override the default trust
// settings.
func (f *GlobalFlags) customTrust() bool {
	return f.CACert != "" || f.Insecure
}

// dialCache opens a cache connection per the global flags.
func dialCache(c *cli.Context) (*client.Client, error) {
	flags := ParseGlobalFlags(c)
	if !flags.customTrust() {
		return client.Connect(flags.Server, flags.Timeout)
	}

	conf, err := connection.ClientTLS(flags.CACert, flags.Insecure)
	if err != nil {
		return nil, err
	}
	return client.ConnectTLS(flags.Server, flags.Timeout, conf)
}

// adminClient builds an admin API client per the global flags.
func adminClient(c *cli.Context) (*connection.AdminClient, error) {
	flags := ParseGlobalFlags(c)
	if !flags.customTrust() {
		return connection.NewAdminClient(flags.Admin), nil
	}

	conf, err := connection.ClientTLS(flags.CACert, flags.Insecure)
	if err != nil {
		return nil, err
	}
	return connection.NewAdminClientTLS(flags.Admin, conf), nil
}

// formatterFor picks the formatter: the --output flag when set,
// otherwise the command's natural format.
func formatterFor(c *cli.Context, fallback output.Format) output.Formatter {
	if f := c.String("output"); f != "" {
		return output.NewFormatter(output.Format(f))
	}
	return output.NewFormatter(fallback)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
