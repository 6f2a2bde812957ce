package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/revgraph/pkg/config"
)

// configCommand creates the config command that prints the effective
// configuration as TOML.
func (c *CLI) configCommand() *cobra.Command {
	var showPath bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if showPath {
				path := c.configPath
				if path == "" {
					if path, err = config.DefaultPath(); err != nil {
						return err
					}
				}
				printKeyValue(w, "path", path)
				return nil
			}
			return cfg.Encode(w)
		},
	}

	cmd.Flags().BoolVar(&showPath, "path", false, "print the config file location instead")
	return cmd
}
