package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newParentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parents <pid>",
		Short: "List the parents of a PID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				node, err := d.node(args[0])
				if err != nil {
					return err
				}

				parents, err := node.Parents().All(cmd.Context())
				if err != nil {
					return err
				}
				if len(parents) == 0 {
					fmt.Println("No parents found.")
					return nil
				}
				for _, pid := range parents {
					fmt.Printf("%s:%s (%s)\n", pid.PIDType, pid.PIDValue, pid.Status)
				}
				return nil
			})
		},
	}
}
