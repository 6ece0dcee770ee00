package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/estopo/cmd/estopo/handlers"
)

// Certs returns the certificate management command group.
func Certs() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Manage the cluster's certificate bundle",
	}

	cmd.AddCommand(certsProvision())
	cmd.AddCommand(certsRotate())

	return cmd
}

func certsProvision() *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Generate the certificate bundle if it does not exist",
		Long: `Generate the certificate bundle if it does not exist.

An existing bundle is verified and reused unchanged. Leaves for roles
added to the topology are issued from the existing CA.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Certs(cmd.Context(), global.configPath, false)
		},
	}
}

func certsRotate() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Replace the certificate bundle with new material",
		Long: `Replace the certificate bundle with new material.

The next apply updates every unit to the new certificates.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Certs(cmd.Context(), global.configPath, true)
		},
	}
}
