package main

import (
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"

	"github.com/HerbHall/hpswitch/pkg/models"
	"github.com/HerbHall/hpswitch/pkg/snmp"
)

// NewRoutesCommand returns the routes command.
func NewRoutesCommand(a *app) (cmd *cobra.Command) {
	var ipv6 bool

	cmd = &cobra.Command{
		Use:   "routes",
		Short: "list static routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sw, err := a.open()
			if err != nil {
				return err
			}
			var routes []models.StaticRoute
			if ipv6 {
				routes, err = sw.StaticIPv6Routes(cmd.Context())
			} else {
				routes, err = sw.StaticIPv4Routes(cmd.Context())
			}
			if err != nil {
				return err
			}
			if routes == nil {
				routes = []models.StaticRoute{}
			}
			return a.printer(cmd.OutOrStdout()).print(routes)
		},
	}
	cmd.Flags().BoolVar(&ipv6, "ipv6", false, "list IPv6 routes instead of IPv4")
	return cmd
}

// NewRouteCommand returns the route command and its subcommands.
func NewRouteCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "route",
		Short: "add or remove a static route",
	}

	var ifIndex, metric int
	add := &cobra.Command{
		Use:     "add DESTINATION NEXTHOP",
		Short:   "add a static route",
		Example: `  hpswitch route add 10.20.0.0/16 192.168.1.254 --ifindex 1 --metric 1`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			route, err := parseRoute(args[0], args[1])
			if err != nil {
				return err
			}
			route.IfIndex, route.Metric = ifIndex, metric
			sw, err := a.open()
			if err != nil {
				return err
			}
			if route.Is6() {
				return sw.AddStaticIPv6Route(cmd.Context(), route)
			}
			return sw.AddStaticIPv4Route(cmd.Context(), route)
		},
	}
	add.Flags().IntVar(&ifIndex, "ifindex", 0, "outgoing interface index (0 lets the switch choose)")
	add.Flags().IntVar(&metric, "metric", 1, "route metric")

	remove := &cobra.Command{
		Use:   "remove DESTINATION NEXTHOP",
		Short: "remove a static route",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			route, err := parseRoute(args[0], args[1])
			if err != nil {
				return err
			}
			sw, err := a.open()
			if err != nil {
				return err
			}
			if route.Is6() {
				return sw.RemoveStaticIPv6Route(cmd.Context(), route)
			}
			return sw.RemoveStaticIPv4Route(cmd.Context(), route)
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}

func parseRoute(dest, nextHop string) (models.StaticRoute, error) {
	prefix, err := netip.ParsePrefix(dest)
	if err != nil {
		return models.StaticRoute{}, snmp.NewError(snmp.KindValidation, "route", dest, fmt.Errorf("invalid destination: %w", err))
	}
	nh, err := netip.ParseAddr(nextHop)
	if err != nil {
		return models.StaticRoute{}, snmp.NewError(snmp.KindValidation, "route", nextHop, fmt.Errorf("invalid next hop: %w", err))
	}
	return models.StaticRoute{Destination: prefix, NextHop: nh}, nil
}
