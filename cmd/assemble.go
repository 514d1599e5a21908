package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kayz/promptcraft/internal/prompt"
)

var (
	assembleConfigPath string
	assembleOutputPath string
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble a system prompt from a YAML config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if assembleConfigPath == "" {
			return fmt.Errorf("--file is required")
		}

		data, err := os.ReadFile(assembleConfigPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}

		var cfg prompt.Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}

		out := prompt.Assemble(cfg.Normalized())

		if assembleOutputPath == "" {
			fmt.Println(out)
			return nil
		}
		if err := os.WriteFile(assembleOutputPath, []byte(out), 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	},
}

func init() {
	assembleCmd.Flags().StringVar(&assembleConfigPath, "file", "", "Path to YAML config file")
	assembleCmd.Flags().StringVar(&assembleOutputPath, "output", "", "Write output to file (default: stdout)")
	rootCmd.AddCommand(assembleCmd)
}
