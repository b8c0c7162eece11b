package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func theatersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "theaters",
		Short: "List the registered theaters and their UTM placement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable("THEATER", "ZONE", "HEMISPHERE", "EPSG", "NORTHING OFFSET", "EASTING OFFSET")
			for _, th := range a.registry.Theaters() {
				hemisphere := "N"
				if th.Southern {
					hemisphere = "S"
				}
				t.Row(th.Name, strconv.Itoa(th.Zone), hemisphere, strconv.Itoa(th.EPSG()),
					strconv.FormatFloat(th.NorthingOffset, 'f', 2, 64),
					strconv.FormatFloat(th.EastingOffset, 'f', 2, 64))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}
