package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var parseInputPath string

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract a structured config from prompt text using the AI provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		if parseInputPath == "" {
			return fmt.Errorf("--file is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		client, err := aiClient(cfg)
		if err != nil {
			return fmt.Errorf("create ai client: %w", err)
		}

		data, err := os.ReadFile(parseInputPath)
		if err != nil {
			return fmt.Errorf("read prompt: %w", err)
		}

		parsed, err := client.ParseConfig(cmd.Context(), string(data))
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(parsed)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseInputPath, "file", "", "Path to prompt text file")
	rootCmd.AddCommand(parseCmd)
}
