package cli

import (
	"fmt"
	"sort"

	"github.com/opencode-ai/querycat/internal/queries"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

// templateDetail is the structured form of "querycat show".
type templateDetail struct {
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	Source       string              `json:"source"`
	Metadata     map[string]any      `json:"metadata,omitempty"`
	Parameters   []queries.Parameter `json:"parameters"`
	Placeholders []string            `json:"placeholders"`
	Query        string              `json:"query"`
}

var showCmd = &cobra.Command{
	Use:   "show <template>",
	Short: "Show a query template",
	Long:  "Show a template's metadata, effective parameters and raw query text.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		tmpl, err := catalog.Get(args[0])
		if err != nil {
			return err
		}

		detail := templateDetail{
			Name:         tmpl.Name,
			Description:  tmpl.Description,
			Source:       tmpl.Source,
			Metadata:     tmpl.Metadata,
			Parameters:   tmpl.EffectiveParameters(),
			Placeholders: tmpl.Placeholders(),
			Query:        tmpl.Query,
		}

		out := cmd.OutOrStdout()
		if structuredOutput() {
			return WriteOutput(out, detail)
		}

		fmt.Fprintf(out, "Name:        %s\n", detail.Name)
		if detail.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", detail.Description)
		}
		fmt.Fprintf(out, "Source:      %s\n", detail.Source)

		if len(detail.Metadata) > 0 {
			keys := make([]string, 0, len(detail.Metadata))
			for k := range detail.Metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(out, "Metadata:")
			for _, k := range keys {
				fmt.Fprintf(out, "  %s: %v\n", k, detail.Metadata[k])
			}
		}

		fmt.Fprintln(out)
		if len(detail.Parameters) == 0 {
			fmt.Fprintln(out, "Parameters: none")
		} else {
			rows := make([][]string, 0, len(detail.Parameters))
			for _, param := range detail.Parameters {
				def := "-"
				if param.HasDefault {
					def = fmt.Sprintf("%q", fmt.Sprint(param.Default))
				}
				rows = append(rows, []string{param.Name, string(param.Type), formatYesNo(param.Required()), def, param.Description})
			}
			if err := writeTable(out, []string{"PARAMETER", "TYPE", "REQUIRED", "DEFAULT", "DESCRIPTION"}, rows); err != nil {
				return err
			}
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "Query:")
		fmt.Fprintln(out, detail.Query)
		return nil
	},
}
