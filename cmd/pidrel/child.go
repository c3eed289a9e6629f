package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
)

func newChildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "child",
		Short: "Manage the children of a PID",
	}
	cmd.AddCommand(
		newChildAddCmd(),
		newChildRemoveCmd(),
		newChildListCmd(),
	)
	return cmd
}

func newChildAddCmd() *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "add <parent> <child>",
		Short: "Relate a child PID to a parent PID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				relType, err := d.relationType()
				if err != nil {
					return err
				}
				child, err := parsePIDArg(args[1])
				if err != nil {
					return err
				}

				if relType.Ordered {
					node, err := d.orderedNode(args[0])
					if err != nil {
						return err
					}
					if err := node.InsertChild(cmd.Context(), child, index); err != nil {
						return err
					}
				} else {
					node, err := d.node(args[0])
					if err != nil {
						return err
					}
					if err := node.InsertChild(cmd.Context(), child); err != nil {
						return err
					}
				}
				fmt.Printf("Added %s as %s child of %s\n", args[1], relType.Name, args[0])
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&index, "index", -1, "Position for ordered relation types (-1 appends)")
	return cmd
}

func newChildRemoveCmd() *cobra.Command {
	var reorder bool

	cmd := &cobra.Command{
		Use:   "remove <parent> <child>",
		Short: "Remove the relation between a parent and a child PID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				relType, err := d.relationType()
				if err != nil {
					return err
				}
				child, err := parsePIDArg(args[1])
				if err != nil {
					return err
				}

				if relType.Ordered {
					node, err := d.orderedNode(args[0])
					if err != nil {
						return err
					}
					if err := node.RemoveChild(cmd.Context(), child, reorder); err != nil {
						return err
					}
				} else {
					node, err := d.node(args[0])
					if err != nil {
						return err
					}
					if err := node.RemoveChild(cmd.Context(), child); err != nil {
						return err
					}
				}
				fmt.Printf("Removed %s from %s\n", args[1], args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&reorder, "reorder", false, "Compact the remaining indexes (ordered types only)")
	return cmd
}

func newChildListCmd() *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "list <parent>",
		Short: "List the children of a PID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				node, err := d.node(args[0])
				if err != nil {
					return err
				}

				query := node.Children()
				if len(statuses) > 0 {
					filter := make([]entities.PIDStatus, 0, len(statuses))
					for _, s := range statuses {
						status := entities.PIDStatus(s)
						if !status.IsValid() {
							return fmt.Errorf("invalid status %q", s)
						}
						filter = append(filter, status)
					}
					query = query.Status(filter...)
				}

				children, err := query.All(cmd.Context())
				if err != nil {
					return err
				}
				if len(children) == 0 {
					fmt.Println("No children found.")
					return nil
				}
				for _, pid := range children {
					fmt.Printf("%s:%s (%s)\n", pid.PIDType, pid.PIDValue, pid.Status)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only list children in these statuses")
	return cmd
}
