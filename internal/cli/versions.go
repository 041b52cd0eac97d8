package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vsix-harvester/vsix-harvester/internal/extension"
	"github.com/vsix-harvester/vsix-harvester/internal/marketplace"
)

// versionRow is one line of "versions" output.
type versionRow struct {
	Version    string `json:"version"`
	Engine     string `json:"engine,omitempty"`
	PreRelease bool   `json:"preRelease"`
	Platform   string `json:"targetPlatform,omitempty"`
	Compatible *bool  `json:"compatible,omitempty"`
	Selected   bool   `json:"selected"`
}

func newVersionsCmd(info BuildInfo) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "versions <publisher.name>",
		Short: "List published versions of an extension",
		Long: `List the versions the marketplace publishes for an extension, newest first,
with each version's engine requirement. With --engine-version the compatible
versions are flagged and the one a harvest would pick is marked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := extension.Parse(args[0])
			if err != nil {
				return err
			}
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), s.Verbose)
			client, err := newClient(s, info, logger)
			if err != nil {
				return err
			}

			versions, err := client.QueryVersions(cmd.Context(), id, true)
			if err != nil {
				return err
			}

			req := marketplace.ResolveRequest{
				ID:              id,
				EngineVersion:   s.EngineVersion,
				AllowPreRelease: s.PreRelease,
				StrictEngine:    s.StrictEngine,
			}
			selected := ""
			if res, err := marketplace.Resolve(versions, req); err == nil {
				selected = res.Version
			}

			rows := buildVersionRows(versions, req, selected)
			if limit > 0 && len(rows) > limit {
				rows = rows[:limit]
			}

			if asJSON {
				data, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling versions: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\tVERSION\tENGINE\tPRE-RELEASE\tPLATFORM\tCOMPATIBLE")
			for _, r := range rows {
				mark := ""
				if r.Selected {
					mark = "*"
				}
				compatible := "-"
				if r.Compatible != nil {
					compatible = fmt.Sprint(*r.Compatible)
				}
				platform := r.Platform
				if platform == "" {
					platform = "universal"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\t%s\n", mark, r.Version, r.Engine, r.PreRelease, platform, compatible)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "show at most this many versions (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func buildVersionRows(versions []marketplace.Version, req marketplace.ResolveRequest, selected string) []versionRow {
	rows := make([]versionRow, 0, len(versions))
	marked := false
	for _, v := range versions {
		engine, _ := v.EngineRequirement()
		row := versionRow{
			Version:    v.Version,
			Engine:     engine,
			PreRelease: v.IsPreRelease(),
			Platform:   v.TargetPlatform,
		}
		if req.EngineVersion != "" {
			ok := engine != "" && marketplace.Satisfies(engine, req.EngineVersion) &&
				(req.AllowPreRelease || !row.PreRelease)
			row.Compatible = &ok
		}
		if !marked && selected != "" && v.Version == selected {
			row.Selected = true
			marked = true
		}
		rows = append(rows, row)
	}
	return rows
}
