package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
)

func newPIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pid",
		Short: "Manage persistent identifiers",
	}
	cmd.AddCommand(
		newPIDCreateCmd(),
		newPIDResolveCmd(),
		newPIDStatusCmd(),
	)
	return cmd
}

func newPIDCreateCmd() *cobra.Command {
	var provider string
	var status string

	cmd := &cobra.Command{
		Use:   "create <scheme:value>",
		Short: "Register a new persistent identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parsePIDArg(args[0])
			if err != nil {
				return err
			}
			return withDeps(func(d *Deps) error {
				pid, err := d.Repo.Create(cmd.Context(), ref.PIDType(), ref.PIDValue(), provider, entities.PIDStatus(status))
				if err != nil {
					return err
				}
				fmt.Printf("Created pid %s:%s (id %d, status %s)\n", pid.PIDType, pid.PIDValue, pid.ID, pid.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider name")
	cmd.Flags().StringVar(&status, "status", string(entities.PIDStatusRegistered), "Initial status")
	return cmd
}

func newPIDResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <scheme:value>",
		Short: "Look up a persistent identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parsePIDArg(args[0])
			if err != nil {
				return err
			}
			return withDeps(func(d *Deps) error {
				pid, err := d.Repo.Resolve(cmd.Context(), ref.PIDType(), ref.PIDValue(), "")
				if err != nil {
					return err
				}
				fmt.Printf("id:       %d\n", pid.ID)
				fmt.Printf("pid:      %s:%s\n", pid.PIDType, pid.PIDValue)
				if pid.Provider != "" {
					fmt.Printf("provider: %s\n", pid.Provider)
				}
				fmt.Printf("status:   %s\n", pid.Status)
				fmt.Printf("object:   %s\n", pid.ObjectUUID)
				return nil
			})
		},
	}
}

func newPIDStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <scheme:value> <status>",
		Short: "Update the status of a persistent identifier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parsePIDArg(args[0])
			if err != nil {
				return err
			}
			status := entities.PIDStatus(args[1])
			if !status.IsValid() {
				return fmt.Errorf("invalid status %q", args[1])
			}
			return withDeps(func(d *Deps) error {
				pid, err := d.Repo.Resolve(cmd.Context(), ref.PIDType(), ref.PIDValue(), "")
				if err != nil {
					return err
				}
				if err := d.Repo.SetStatus(cmd.Context(), pid.ID, status); err != nil {
					return err
				}
				fmt.Printf("Updated %s:%s to %s\n", pid.PIDType, pid.PIDValue, status)
				return nil
			})
		},
	}
}
