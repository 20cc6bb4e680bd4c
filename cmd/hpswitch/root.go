package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/hpswitch/internal/config"
	"github.com/HerbHall/hpswitch/pkg/hpswitch"
	"github.com/HerbHall/hpswitch/pkg/mib"
	"github.com/HerbHall/hpswitch/pkg/snmp"
)

// Exit codes by error kind.
const (
	exitFailure    = 1
	exitValidation = 2
	exitResolution = 3
	exitTransport  = 4
	exitAgent      = 5
)

// app is the state shared by every subcommand. The switch is opened on
// first use so commands such as resolve work without a host.
type app struct {
	settings *config.Settings
	logger   *zap.Logger
	sw       *hpswitch.Switch

	// extra switch options, used by tests to swap the transport
	switchOpts []hpswitch.Option
}

// Option configures NewCommand.
type Option func(*app)

// withSwitchOptions appends options passed to hpswitch.New.
func withSwitchOptions(opts ...hpswitch.Option) Option {
	return func(a *app) { a.switchOpts = append(a.switchOpts, opts...) }
}

// NewCommand returns the root command for the hpswitch CLI and a function
// that releases the switch and flushes the logger. The release function
// must run after Execute whether or not the command failed.
func NewCommand(opts ...Option) (cmd *cobra.Command, release func() error) {
	a := &app{}
	for _, opt := range opts {
		opt(a)
	}

	var configPath string

	cmd = &cobra.Command{
		Use:   "hpswitch",
		Short: "query and configure HP switches over SNMP",
		Long: `hpswitch reads port, VLAN, forwarding and routing tables from HP
Networking switches and applies simple changes through SNMP SET.

Settings come from hpswitch.yaml, HPSWITCH_* environment variables and
the flags below, in increasing order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			for key, flag := range map[string]string{
				"switch.host":      "host",
				"switch.community": "community",
				"snmp.timeout":     "timeout",
				"snmp.retries":     "retries",
				"snmp.walk_mode":   "walk-mode",
				"mib.dirs":         "mib-dir",
				"output":           "output",
				"logging.level":    "log-level",
			} {
				if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(flag)); err != nil {
					return fmt.Errorf("binding --%s: %w", flag, err)
				}
			}

			settings, err := config.New(v).Settings()
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(v)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			a.settings, a.logger = settings, logger
			if f := v.ConfigFileUsed(); f != "" {
				logger.Debug("configuration loaded",
					zap.String("component", "config"),
					zap.String("source", f),
				)
			}
			return nil
		},
	}

	cmd.AddCommand(
		NewGetCommand(a),
		NewSetCommand(a),
		NewWalkCommand(a),
		NewResolveCommand(a),
		NewSystemCommand(a),
		NewIPCommand(a),
		NewPortsCommand(a),
		NewPortCommand(a),
		NewVLANsCommand(a),
		NewVLANCommand(a),
		NewMACCommand(a),
		NewRoutesCommand(a),
		NewRouteCommand(a),
	)

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default: hpswitch.yaml in ., ./configs or /etc/hpswitch)")
	flags.String("host", "", "switch hostname or address, optionally host:port")
	flags.String("community", "", "SNMP community")
	flags.Duration("timeout", snmp.DefaultTimeout, "per-attempt SNMP timeout")
	flags.Int("retries", snmp.DefaultRetries, "SNMP retries after a timeout")
	flags.String("walk-mode", string(snmp.WalkGetNext), "walk PDU: getnext or bulk")
	flags.StringSlice("mib-dir", nil, "extra directories searched for MIB files")
	flags.StringP("output", "o", "json", "output format: json or yaml")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")

	return cmd, a.close
}

// open returns the switch named by the settings, creating it on first use.
func (a *app) open() (*hpswitch.Switch, error) {
	if a.sw != nil {
		return a.sw, nil
	}
	s := a.settings
	if s.Switch.Host == "" {
		return nil, snmp.NewError(snmp.KindValidation, "open", "",
			errors.New("no switch configured: set --host, switch.host or HPSWITCH_SWITCH_HOST"))
	}

	cfg := s.SNMPConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = snmp.DefaultTimeout
	}
	opts := []hpswitch.Option{
		hpswitch.WithSNMPConfig(cfg),
		hpswitch.WithMIBDirs(s.MIB.Dirs...),
		hpswitch.WithModules(s.MIB.Modules...),
		hpswitch.WithLogger(a.logger),
	}
	sw, err := hpswitch.New(s.Switch.Host, s.Switch.Community, append(opts, a.switchOpts...)...)
	if err != nil {
		return nil, err
	}
	a.sw = sw
	return sw, nil
}

// resolver loads the configured module set without opening a switch.
func (a *app) resolver() (*mib.Resolver, error) {
	if a.sw != nil {
		return a.sw.Resolver(), nil
	}
	modules := append(append([]string(nil), mib.DefaultModules...), a.settings.MIB.Modules...)
	m, err := mib.LoadModules(modules,
		mib.WithDirs(a.settings.MIB.Dirs...),
		mib.WithLogger(a.logger),
	)
	if err != nil {
		return nil, snmp.NewError(snmp.KindResolution, "resolve", "", fmt.Errorf("load MIB modules: %w", err))
	}
	return mib.NewResolver(m), nil
}

func (a *app) close() error {
	var err error
	if a.sw != nil {
		err = a.sw.Close()
		a.sw = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case snmp.IsValidationError(err):
		return exitValidation
	case snmp.IsResolutionError(err):
		return exitResolution
	case snmp.IsTransportError(err):
		return exitTransport
	case snmp.IsAgentError(err):
		return exitAgent
	default:
		return exitFailure
	}
}
