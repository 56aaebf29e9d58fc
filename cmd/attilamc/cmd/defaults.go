package cmd

import (
	"fmt"

	"github.com/sarchlab/attila/mem/ddrsched"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults [file]",
	Short: "Print or save the default controller configuration.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := ddrsched.DefaultConfig()

		if len(args) == 1 {
			return cfg.SaveConfig(args[0])
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), string(out))

		return err
	},
}

func init() {
	rootCmd.AddCommand(defaultsCmd)
}
