package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/opencode-ai/querycat/internal/catalogd"
	"github.com/opencode-ai/querycat/internal/db"
	"github.com/opencode-ai/querycat/internal/history"
	"github.com/opencode-ai/querycat/internal/models"
	"github.com/opencode-ai/querycat/internal/queries"
	"github.com/spf13/cobra"
)

var (
	resolveParams  []string
	resolveRecord  bool
	resolveServer  string
	resolveTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringArrayVarP(&resolveParams, "param", "p", nil, "parameter override as name=value (repeatable)")
	resolveCmd.Flags().BoolVar(&resolveRecord, "record", false, "record the resolution in history")
	resolveCmd.Flags().StringVar(&resolveServer, "server", "", "resolve through a catalog service at host:port")
	resolveCmd.Flags().DurationVar(&resolveTimeout, "timeout", 10*time.Second, "timeout for --server requests")
}

// resolveOutput is the structured form of "querycat resolve".
type resolveOutput struct {
	Template     string            `json:"template"`
	Query        string            `json:"query"`
	Values       map[string]string `json:"values"`
	ResolvedAt   time.Time         `json:"resolved_at"`
	ResolutionID string            `json:"resolution_id,omitempty"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <template>",
	Short: "Resolve a query template",
	Long: `Resolve a query template into a runnable query.

Parameters not given with -p use the template's defaults. Datetime parameters accept
timestamps or relative offsets such as -7 (days), -12h or 30m.`,
	Example: `  querycat resolve list_alerts
  querycat resolve host_alerts -p host_name=web01 -p start=-7
  querycat resolve top_alerting_hosts -p limit=25 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		var (
			output *resolveOutput
			err    error
		)
		if resolveServer != "" {
			output, err = resolveRemote(ctx, args[0])
		} else {
			output, err = resolveLocal(ctx, args[0])
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if structuredOutput() {
			return WriteOutput(out, output)
		}
		fmt.Fprintln(out, output.Query)
		return nil
	},
}

func resolveLocal(ctx context.Context, name string) (*resolveOutput, error) {
	resolver, err := newResolver()
	if err != nil {
		return nil, err
	}
	tmpl, err := resolver.Catalog().Get(name)
	if err != nil {
		return nil, err
	}
	overrides, err := queries.ParseOverrides(tmpl, resolveParams)
	if err != nil {
		return nil, err
	}
	result, err := resolver.ResolveTemplate(tmpl, overrides)
	if err != nil {
		return nil, err
	}

	output := &resolveOutput{
		Template:   result.Template,
		Query:      result.Query,
		Values:     result.Values,
		ResolvedAt: result.ResolvedAt,
	}

	if resolveRecord || GetConfig().History.Enabled {
		res, err := recordResolution(ctx, result, tmpl.Source)
		if err != nil {
			return nil, err
		}
		output.ResolutionID = res.ID
	}
	return output, nil
}

func recordResolution(ctx context.Context, result *queries.Result, templateSource string) (*models.Resolution, error) {
	database, err := openDatabase(ctx)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	return history.RecordResolution(ctx, db.NewResolutionRepository(database), result, templateSource, models.ResolutionSourceCLI)
}

func resolveRemote(ctx context.Context, name string) (*resolveOutput, error) {
	client, err := catalogd.Dial(resolveServer)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	var tmpl *queries.Template
	if len(resolveParams) > 0 {
		desc, err := client.DescribeTemplate(ctx, name)
		if err != nil {
			return nil, err
		}
		tmpl = templateFromDescription(name, desc)
	}
	overrides, err := queries.ParseOverrides(tmpl, resolveParams)
	if err != nil {
		return nil, err
	}

	resp, err := client.Resolve(ctx, name, overrides, resolveRecord)
	if err != nil {
		return nil, err
	}
	return &resolveOutput{
		Template:     resp.Template,
		Query:        resp.Query,
		Values:       resp.Values,
		ResolvedAt:   resp.ResolvedAt,
		ResolutionID: resp.ResolutionID,
	}, nil
}

// templateFromDescription rebuilds the parameter types of a remote template so that
// overrides can be converted before they are sent.
func templateFromDescription(name string, desc map[string]any) *queries.Template {
	tmpl := &queries.Template{Name: name}
	params, _ := desc["parameters"].([]any)
	for _, item := range params {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		paramName, _ := entry["name"].(string)
		paramType, _ := entry["type"].(string)
		tmpl.Parameters = append(tmpl.Parameters, queries.Parameter{
			Name: paramName,
			Type: queries.ParamType(paramType),
		})
	}
	return tmpl
}
