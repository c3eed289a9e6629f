package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the configured relation types",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				for _, rt := range d.Config.RelationTypes {
					kind := "unordered"
					if rt.Ordered {
						kind = "ordered"
					}
					fmt.Printf("%d\t%s\t%s\t(%s)\n", rt.ID, rt.Name, rt.Label, kind)
				}
				return nil
			})
		},
	}
}
