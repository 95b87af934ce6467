package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamusis/modelpub/internal/config"
	"github.com/kamusis/modelpub/internal/datasource"
	"github.com/kamusis/modelpub/internal/publish"
)

var publishReportCmd = &cobra.Command{
	Use:   "publish-report <report-file>",
	Short: "Publish a report, optionally with its metadata domain and datasource",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublishReport,
}

func init() {
	rootCmd.AddCommand(publishReportCmd)

	f := publishReportCmd.Flags()
	f.String("target", "/public", "Repository folder to publish to")
	f.String("metadata", "", "Metadata domain file (.xmi) to publish after the report")
	f.String("domain-id", "", "Metadata domain id (default: the metadata file name)")
	f.String("datasource", "", "Local datasource to publish after the report")
	f.Bool("update-datasource", false, "The datasource already exists on the server; update it")
}

func runPublishReport(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	target, _ := f.GetString("target")
	metadata, _ := f.GetString("metadata")
	domainID, _ := f.GetString("domain-id")
	dsName, _ := f.GetString("datasource")
	update, _ := f.GetBool("update-datasource")

	req := publish.ReportRequest{
		ReportFile:           args[0],
		TargetPath:           target,
		PublishMetadata:      metadata != "",
		MetadataFile:         metadata,
		DomainID:             domainID,
		IsExistentDatasource: update,
	}

	if dsName != "" {
		d, err := lookupDatasource(dsName)
		if err != nil {
			return err
		}
		req.Datasource = &d
		req.PublishDatasource = true
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	return outcomeResult(s.orchestrator().PublishReport(cmd.Context(), req))
}

func lookupDatasource(name string) (datasource.Descriptor, error) {
	local, err := config.LoadDatasources()
	if err != nil {
		return datasource.Descriptor{}, err
	}
	d, ok := local.Get(name)
	if !ok {
		return datasource.Descriptor{}, fmt.Errorf("datasource %q is not defined locally; see 'modelpub datasource ls'", name)
	}
	return d, nil
}
