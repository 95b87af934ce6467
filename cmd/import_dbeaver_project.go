package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kamusis/modelpub/internal/config"
	"github.com/kamusis/modelpub/internal/datasource"
	"github.com/kamusis/modelpub/internal/dbeaver"
)

// importDbeaverCmd represents the datasource import-dbeaver command
var importDbeaverCmd = &cobra.Command{
	Use:   "import-dbeaver",
	Short: "Import DBeaver .dbp project connections as local datasources",
	Long: `Import connections from a DBeaver .dbp project file as native local
datasources. They are saved to ~/.modelpub/datasources.json.

Note: Credentials are NOT imported for security reasons.
Add a password with 'modelpub datasource add <name> --password --on_conflict overwrite'.`,
	Args: cobra.NoArgs,
	RunE: runImportDbeaver,
}

func init() {
	datasourceCmd.AddCommand(importDbeaverCmd)

	importDbeaverCmd.Flags().String("dbp", "", "Path to the .dbp file (required)")
	importDbeaverCmd.Flags().String("conn_prefix", "", "Prefix for datasource names (default: empty)")
	importDbeaverCmd.Flags().String("on_conflict", "skip", "Conflict behavior: fail, skip, overwrite")
	importDbeaverCmd.Flags().Bool("dry_run", false, "Show what would be created without writing files")

	_ = importDbeaverCmd.MarkFlagRequired("dbp")
}

func runImportDbeaver(cmd *cobra.Command, _ []string) error {
	dbpPath, _ := cmd.Flags().GetString("dbp")
	connPrefix, _ := cmd.Flags().GetString("conn_prefix")
	onConflict, _ := cmd.Flags().GetString("on_conflict")
	dryRun, _ := cmd.Flags().GetBool("dry_run")

	strategy, ok := config.ParseConflictStrategy(onConflict)
	if !ok {
		return fmt.Errorf("invalid on_conflict value: %s (must be fail, skip, or overwrite)", onConflict)
	}

	archive, err := dbeaver.ParseDBP(dbpPath)
	if err != nil {
		return fmt.Errorf("failed to parse dbp file: %w", err)
	}
	if archive.DataSources == nil {
		return fmt.Errorf("no data sources found in dbp file")
	}

	result := &dbeaver.ImportResult{
		Discovered: len(archive.DataSources.Connections),
		Errors:     []dbeaver.ImportError{},
	}
	var planned []datasource.Descriptor

	for _, connID := range archive.ConnectionIDs() {
		conn := archive.DataSources.Connections[connID]
		d, err := dbeaver.ConvertConnection(&conn, connPrefix)
		if err != nil {
			result.Errors = append(result.Errors, dbeaver.ImportError{
				ConnectionName: conn.Name,
				Message:        fmt.Sprintf("failed to convert: %v", err),
			})
			continue
		}

		if dryRun {
			result.Created++
			planned = append(planned, d)
			continue
		}

		existed := false
		if local, err := config.LoadDatasources(); err == nil {
			_, existed = local.Datasources[d.Name]
		}
		written, err := config.AddDatasource(d, strategy)
		if err != nil {
			result.Errors = append(result.Errors, dbeaver.ImportError{
				ConnectionName: conn.Name,
				Message:        fmt.Sprintf("failed to save: %v", err),
			})
			continue
		}
		switch {
		case !written:
			result.Skipped++
		case existed:
			result.Overwritten++
		default:
			result.Created++
		}
	}

	renderImportResult(cmd.OutOrStdout(), result, dryRun, planned)

	if !dryRun {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nWarning: Credentials were NOT imported from DBeaver for security reasons.\n")
	}
	return nil
}

func renderImportResult(w io.Writer, result *dbeaver.ImportResult, dryRun bool, planned []datasource.Descriptor) {
	fmt.Fprintln(w, "Import completed:")
	fmt.Fprintf(w, "  Discovered: %d connections\n", result.Discovered)
	fmt.Fprintf(w, "  Created: %d datasources\n", result.Created)
	fmt.Fprintf(w, "  Skipped: %d\n", result.Skipped)
	fmt.Fprintf(w, "  Overwritten: %d\n", result.Overwritten)

	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, err := range result.Errors {
			fmt.Fprintf(w, "  - %s: %s\n", err.ConnectionName, err.Message)
		}
	}

	if dryRun && len(planned) > 0 {
		fmt.Fprintln(w, "\nDatasources to be created:")
		for i, d := range planned {
			fmt.Fprintf(w, "\n  [%d] %s\n", i+1, d.Name)
			fmt.Fprintf(w, "      type: %s\n", d.Type)
			fmt.Fprintf(w, "      host: %s\n", d.Host)
			fmt.Fprintf(w, "      port: %s\n", d.EffectivePort())
			fmt.Fprintf(w, "      database: %s\n", d.Database)
		}
	}
}
