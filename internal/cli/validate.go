package cli

import (
	"fmt"

	"github.com/opencode-ai/querycat/internal/queries"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

// fileReport is the validation result for one query file.
type fileReport struct {
	Source    string   `json:"source"`
	Valid     bool     `json:"valid"`
	Templates int      `json:"templates"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate query files",
	Long: `Load query files and check them for errors.

With no arguments the files of the configured catalog are checked. Placeholders that no
parameter declares are reported as errors; declared parameters the query never uses are
reported as warnings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := validateFiles(args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, r := range reports {
			if !r.Valid {
				failed++
			}
		}

		if structuredOutput() {
			if err := WriteOutput(out, reports); err != nil {
				return err
			}
		} else {
			for _, r := range reports {
				status := "OK  "
				if !r.Valid {
					status = "FAIL"
				}
				fmt.Fprintf(out, "%s %s (%d templates)\n", status, r.Source, r.Templates)
				for _, msg := range r.Errors {
					fmt.Fprintf(out, "     error: %s\n", msg)
				}
				for _, msg := range r.Warnings {
					fmt.Fprintf(out, "     warning: %s\n", msg)
				}
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d query files are invalid", failed, len(reports))
		}
		return nil
	},
}

func validateFiles(paths []string) ([]fileReport, error) {
	if len(paths) == 0 {
		catalog, err := loadCatalog()
		if err != nil {
			return nil, err
		}
		reports := make([]fileReport, 0, len(catalog.Files()))
		for _, file := range catalog.Files() {
			reports = append(reports, checkQueryFile(file))
		}
		return reports, nil
	}

	reports := make([]fileReport, 0, len(paths))
	for _, path := range paths {
		file, err := queries.LoadQueryFile(path)
		if err != nil {
			reports = append(reports, fileReport{Source: path, Errors: []string{err.Error()}})
			continue
		}
		report := checkQueryFile(file)
		if _, err := queries.NewCatalog(file); err != nil {
			report.Errors = append(report.Errors, err.Error())
			report.Valid = false
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func checkQueryFile(file *queries.QueryFile) fileReport {
	report := fileReport{Source: file.Source, Templates: len(file.Templates)}

	for _, tmpl := range file.Templates {
		used := make(map[string]struct{})
		for _, name := range tmpl.Placeholders() {
			used[name] = struct{}{}
			if _, ok := tmpl.Parameter(name); !ok {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: placeholder {%s} is not declared", tmpl.Name, name))
			}
		}
		for _, param := range tmpl.Parameters {
			if _, ok := used[param.Name]; !ok {
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s: parameter %q is not used by the query", tmpl.Name, param.Name))
			}
		}
	}

	report.Valid = len(report.Errors) == 0
	return report
}
