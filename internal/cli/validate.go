package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsix-harvester/vsix-harvester/internal/manifest"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [manifest]",
		Short: "Check a manifest against the schema without downloading",
		Long: `Validate a JSON or YAML manifest and print every schema violation.
Without an argument the configured input manifest is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				s, err := loadSettings(cmd)
				if err != nil {
					return err
				}
				path = s.Input
			}

			result, err := manifest.ValidateFile(path)
			if err != nil {
				return fmt.Errorf("%w: %w", manifest.ErrInvalidManifest, err)
			}

			out := cmd.OutOrStdout()
			if result.Valid {
				fmt.Fprintf(out, "%s %s\n", successStyle.Render("✓"), path)
				return nil
			}
			fmt.Fprintf(out, "%s %s\n", errorStyle.Render("✗"), path)
			for _, issue := range result.Issues {
				fmt.Fprintf(out, "  %s\n", issue)
			}
			return &manifest.ValidationError{Path: path, Issues: result.Issues}
		},
	}
}
