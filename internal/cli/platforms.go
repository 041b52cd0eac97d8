package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vsix-harvester/vsix-harvester/internal/platform"
)

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List the platform categories a manifest may use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, hostKnown := platform.Host()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MANIFEST KEY\tTARGET PLATFORM\tFILE SUFFIX\t")
			for _, t := range platform.All() {
				token, ok := t.QueryToken()
				suffix := ".vsix"
				if ok {
					suffix = "@" + token + ".vsix"
				} else {
					token = "-"
				}
				note := ""
				if ok && hostKnown && t == host {
					note = "(this machine)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.FieldName(), token, suffix, note)
			}
			return w.Flush()
		},
	}
}
