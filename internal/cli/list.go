package cli

import (
	"fmt"
	"strconv"

	"github.com/opencode-ai/querycat/internal/queries"
	"github.com/spf13/cobra"
)

var (
	listTags        []string
	listEnvironment string
	listFamily      string
	listShadowed    bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringSliceVar(&listTags, "tag", nil, "only templates whose file has one of these tags")
	listCmd.Flags().StringVar(&listEnvironment, "env", "", "only templates for this data environment")
	listCmd.Flags().StringVar(&listFamily, "family", "", "only templates for this data family")
	listCmd.Flags().BoolVar(&listShadowed, "shadowed", false, "list templates hidden by a higher-precedence file")
}

// templateListing is the structured form of one list row.
type templateListing struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source"`
	Tags        []string `json:"tags,omitempty"`
	Parameters  int      `json:"parameters"`
	Required    []string `json:"required"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List query templates",
	Long:    "List the query templates in the catalog, optionally filtered by tag, environment or family.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		var templates []*queries.Template
		if listShadowed {
			templates = catalog.Shadowed()
		} else {
			templates = catalog.Filter(queries.Filter{
				Tags:        listTags,
				Environment: listEnvironment,
				Family:      listFamily,
			})
		}

		listings := make([]templateListing, 0, len(templates))
		for _, tmpl := range templates {
			listings = append(listings, newTemplateListing(tmpl))
		}

		out := cmd.OutOrStdout()
		if structuredOutput() {
			return WriteOutput(out, listings)
		}

		if len(listings) == 0 {
			fmt.Fprintln(out, "No templates found.")
			return nil
		}

		rows := make([][]string, 0, len(listings))
		for _, l := range listings {
			rows = append(rows, []string{l.Name, strconv.Itoa(l.Parameters), formatList(l.Required), l.Source, l.Description})
		}
		return writeTable(out, []string{"NAME", "PARAMS", "REQUIRED", "SOURCE", "DESCRIPTION"}, rows)
	},
}

func newTemplateListing(tmpl *queries.Template) templateListing {
	params := tmpl.EffectiveParameters()
	required := make([]string, 0)
	for _, param := range params {
		if param.Required() {
			required = append(required, param.Name)
		}
	}
	return templateListing{
		Name:        tmpl.Name,
		Description: tmpl.Description,
		Source:      tmpl.Source,
		Tags:        tmpl.Tags(),
		Parameters:  len(params),
		Required:    required,
	}
}
