package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/HerbHall/hpswitch/pkg/models"
	"github.com/HerbHall/hpswitch/pkg/snmp"
)

// NewSystemCommand returns the system command.
func NewSystemCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "system",
		Short: "show the switch system group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sw, err := a.open()
			if err != nil {
				return err
			}
			info, err := sw.SystemInfo(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer(cmd.OutOrStdout()).print(info)
		},
	}
	return cmd
}

// NewIPCommand returns the ip command.
func NewIPCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "ip",
		Short: "list the switch's IP addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sw, err := a.open()
			if err != nil {
				return err
			}
			addrs, err := sw.IPAddresses(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer(cmd.OutOrStdout()).print(addrs)
		},
	}
	return cmd
}

// NewMACCommand returns the mac command.
func NewMACCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "mac [MAC]",
		Short: "find the port a MAC address was learned on, or list the forwarding table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sw, err := a.open()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				table, err := sw.MACAddresses(cmd.Context())
				if err != nil {
					return err
				}
				return a.printer(cmd.OutOrStdout()).print(table)
			}
			port, err := sw.GetPortForMAC(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printer(cmd.OutOrStdout()).print(models.PortMapping{MAC: args[0], Port: port.Number()})
		},
	}
	return cmd
}

// NewPortsCommand returns the ports command.
func NewPortsCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "ports",
		Short: "list bridge ports with their status and native VLAN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sw, err := a.open()
			if err != nil {
				return err
			}
			ports, err := sw.Ports(cmd.Context())
			if err != nil {
				return err
			}
			out := make([]models.PortInfo, 0, len(ports))
			for _, p := range ports {
				info, err := p.Info(cmd.Context())
				if err != nil {
					return err
				}
				out = append(out, info)
			}
			return a.printer(cmd.OutOrStdout()).print(out)
		},
	}
	return cmd
}

// NewPortCommand returns the port command and its subcommands.
func NewPortCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "port",
		Short: "change a single port",
	}

	status := &cobra.Command{
		Use:   "status PORT up|down|testing",
		Short: "set a port's administrative status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInt("port", args[0])
			if err != nil {
				return err
			}
			st, err := models.ParsePortStatus(args[1])
			if err != nil {
				return snmp.NewError(snmp.KindValidation, "port status", args[1], err)
			}
			sw, err := a.open()
			if err != nil {
				return err
			}
			p, err := sw.Port(n)
			if err != nil {
				return err
			}
			return p.SetAdminStatus(cmd.Context(), st)
		},
	}

	pvid := &cobra.Command{
		Use:   "pvid PORT VLAN",
		Short: "set a port's native VLAN",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInt("port", args[0])
			if err != nil {
				return err
			}
			vlan, err := parseInt("VLAN", args[1])
			if err != nil {
				return err
			}
			sw, err := a.open()
			if err != nil {
				return err
			}
			p, err := sw.Port(n)
			if err != nil {
				return err
			}
			return p.SetPVID(cmd.Context(), vlan)
		},
	}

	cmd.AddCommand(status, pvid)
	return cmd
}

// NewVLANsCommand returns the vlans command.
func NewVLANsCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "vlans",
		Short: "list static VLANs with their member ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sw, err := a.open()
			if err != nil {
				return err
			}
			vlans, err := sw.VLANs(cmd.Context())
			if err != nil {
				return err
			}
			out := make([]models.VLANInfo, 0, len(vlans))
			for _, v := range vlans {
				info, err := v.Info(cmd.Context())
				if err != nil {
					return err
				}
				out = append(out, info)
			}
			return a.printer(cmd.OutOrStdout()).print(out)
		},
	}
	return cmd
}

// NewVLANCommand returns the vlan command and its subcommands.
func NewVLANCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "vlan",
		Short: "create, change or delete a VLAN",
	}

	create := &cobra.Command{
		Use:   "create ID NAME",
		Short: "create a static VLAN",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseInt("VLAN", args[0])
			if err != nil {
				return err
			}
			sw, err := a.open()
			if err != nil {
				return err
			}
			_, err = sw.CreateVLAN(cmd.Context(), id, args[1])
			return err
		},
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "delete a static VLAN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseInt("VLAN", args[0])
			if err != nil {
				return err
			}
			sw, err := a.open()
			if err != nil {
				return err
			}
			return sw.DeleteVLAN(cmd.Context(), id)
		},
	}

	rename := &cobra.Command{
		Use:   "rename ID NAME",
		Short: "rename a static VLAN",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseInt("VLAN", args[0])
			if err != nil {
				return err
			}
			sw, err := a.open()
			if err != nil {
				return err
			}
			v, err := sw.VLAN(id)
			if err != nil {
				return err
			}
			return v.SetName(cmd.Context(), args[1])
		},
	}

	var egress, untagged []int
	ports := &cobra.Command{
		Use:     "ports ID",
		Short:   "replace a VLAN's member ports",
		Example: `  hpswitch vlan ports 10 --egress 1,2,24 --untagged 1,2`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseInt("VLAN", args[0])
			if err != nil {
				return err
			}
			sw, err := a.open()
			if err != nil {
				return err
			}
			v, err := sw.VLAN(id)
			if err != nil {
				return err
			}
			return v.SetPorts(cmd.Context(), egress, untagged)
		},
	}
	ports.Flags().IntSliceVar(&egress, "egress", nil, "ports carrying the VLAN")
	ports.Flags().IntSliceVar(&untagged, "untagged", nil, "egress ports sending the VLAN untagged")

	cmd.AddCommand(create, del, rename, ports)
	return cmd
}

func parseInt(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, snmp.NewError(snmp.KindValidation, "parse", s, fmt.Errorf("invalid %s %q", what, s))
	}
	return n, nil
}
