package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosnmp/gosnmp"
	"github.com/spf13/cobra"

	"github.com/HerbHall/hpswitch/pkg/mib"
	"github.com/HerbHall/hpswitch/pkg/models"
	"github.com/HerbHall/hpswitch/pkg/snmp"
)

// NewGetCommand returns the get command.
func NewGetCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "get NAME...",
		Short: "GET one or more objects",
		Example: `  hpswitch get sysName.0
  hpswitch get IF-MIB::ifOperStatus.3 1.3.6.1.2.1.1.3.0`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: a.completeObjectNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			sw, err := a.open()
			if err != nil {
				return err
			}
			out := make([]models.Variable, 0, len(args))
			for _, name := range args {
				v, err := sw.Get(cmd.Context(), name)
				if err != nil {
					return err
				}
				out = append(out, sw.Label(v))
			}
			return a.printer(cmd.OutOrStdout()).print(out)
		},
	}
	return cmd
}

// NewWalkCommand returns the walk command.
func NewWalkCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:               "walk NAME",
		Short:             "walk the subtree under an object",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeObjectNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			sw, err := a.open()
			if err != nil {
				return err
			}
			vars, err := sw.Walk(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := make([]models.Variable, 0, len(vars))
			for _, v := range vars {
				out = append(out, sw.Label(v))
			}
			return a.printer(cmd.OutOrStdout()).print(out)
		},
	}
	return cmd
}

// NewSetCommand returns the set command.
func NewSetCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "set NAME TYPE VALUE [NAME TYPE VALUE]...",
		Short: "SET one or more objects in a single PDU",
		Long: `Set sends every binding in one SET request; the switch applies all of
them or none. TYPE is one of:

  i  INTEGER        u  Gauge32/Unsigned32   c  Counter32
  C  Counter64      t  TimeTicks            a  IpAddress
  o  OBJECT ID      s  OCTET STRING         x  hex OCTET STRING`,
		Example: `  hpswitch set sysLocation.0 s "Rack B1"
  hpswitch set ifAdminStatus.3 i 2`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%3 != 0 {
				return fmt.Errorf("expected NAME TYPE VALUE triples, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings := make([]snmp.Binding, 0, len(args)/3)
			for i := 0; i < len(args); i += 3 {
				b, err := parseBinding(args[i], args[i+1], args[i+2])
				if err != nil {
					return snmp.NewError(snmp.KindValidation, "set", args[i], err)
				}
				bindings = append(bindings, b)
			}
			sw, err := a.open()
			if err != nil {
				return err
			}
			return sw.Set(cmd.Context(), bindings...)
		},
	}
	return cmd
}

// parseBinding converts a net-snmp style type letter and value.
func parseBinding(name, typ, raw string) (snmp.Binding, error) {
	b := snmp.Binding{Name: name}
	switch typ {
	case "i":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return b, fmt.Errorf("invalid INTEGER %q", raw)
		}
		b.Type, b.Value = gosnmp.Integer, n
	case "u", "c", "t":
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return b, fmt.Errorf("invalid unsigned value %q", raw)
		}
		b.Type, b.Value = map[string]gosnmp.Asn1BER{
			"u": gosnmp.Gauge32,
			"c": gosnmp.Counter32,
			"t": gosnmp.TimeTicks,
		}[typ], uint32(n)
	case "C":
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return b, fmt.Errorf("invalid Counter64 %q", raw)
		}
		b.Type, b.Value = gosnmp.Counter64, n
	case "a":
		b.Type, b.Value = gosnmp.IPAddress, raw
	case "o":
		b.Type, b.Value = gosnmp.ObjectIdentifier, raw
	case "s":
		b.Type, b.Value = gosnmp.OctetString, raw
	case "x":
		clean := strings.NewReplacer(" ", "", ":", "", "-", "").Replace(raw)
		data, err := hex.DecodeString(clean)
		if err != nil {
			return b, fmt.Errorf("invalid hex string %q", raw)
		}
		b.Type, b.Value = gosnmp.OctetString, data
	default:
		return b, fmt.Errorf("unknown type %q", typ)
	}
	return b, nil
}

// objectInfo is the output of resolve.
type objectInfo struct {
	Ref    string `json:"ref" yaml:"ref"`
	OID    string `json:"oid" yaml:"oid"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Module string `json:"module,omitempty" yaml:"module,omitempty"`
	Kind   string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Syntax string `json:"syntax,omitempty" yaml:"syntax,omitempty"`
	Access string `json:"access,omitempty" yaml:"access,omitempty"`
}

// NewResolveCommand returns the resolve command.
func NewResolveCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "resolve REF...",
		Short: "translate object names to OIDs and back",
		Long: `Resolve looks references up in the loaded MIB modules without contacting
a switch. A name resolves to its OID; a numeric OID is labelled with the
deepest object above it.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: a.completeObjectNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.resolver()
			if err != nil {
				return err
			}
			out := make([]objectInfo, 0, len(args))
			for _, ref := range args {
				oid, err := r.Resolve(ref)
				if err != nil {
					return snmp.NewError(snmp.KindResolution, "resolve", ref, err)
				}
				info := objectInfo{Ref: ref, OID: oid.String()}
				if n, ok := r.NodeAt(oid); ok {
					name, index, _ := r.Translate(oid)
					info.Name = name
					if len(index) > 0 {
						info.Name += "." + index.String()
					}
					info.Module = n.Module
					info.Kind = n.Kind.String()
					info.Syntax = n.Syntax.String()
					info.Access = string(n.Access)
				}
				out = append(out, info)
			}
			return a.printer(cmd.OutOrStdout()).print(out)
		},
	}
	return cmd
}

// completeObjectNames offers the object names of the loaded modules that
// start with the word being completed. Completion runs without the
// persistent pre-run, so only the built-in modules are searched unless
// settings were already loaded.
func (a *app) completeObjectNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if toComplete != "" && (toComplete[0] == '.' || (toComplete[0] >= '0' && toComplete[0] <= '9')) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var m *mib.MIB
	if a.settings != nil {
		r, err := a.resolver()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		m = r.MIB()
	} else {
		var err error
		if m, err = mib.LoadModules(mib.DefaultModules); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
	}
	return m.Names(toComplete), cobra.ShellCompDirectiveNoFileComp
}
