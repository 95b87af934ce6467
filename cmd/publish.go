package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamusis/modelpub/internal/config"
	"github.com/kamusis/modelpub/internal/model"
	"github.com/kamusis/modelpub/internal/publish"
)

var publishCmd = &cobra.Command{
	Use:   "publish <workspace.yaml>",
	Short: "Publish a model workspace to the server",
	Long: `Publish the model described by a workspace file: the artifact (when
publish_artifact is set), the datasource (with --publish-datasource), the
Mondrian schema and finally the metadata domain. The run stops at the
first step that does not succeed.

When publish_artifact is false the workspace's artifact is the metadata
domain file (.xmi) itself.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().Bool("check-datasource", false, "Compare the datasource with the server first and create or update it there")
	publishCmd.Flags().Bool("auto", false, "With --check-datasource, sync without asking or reporting")
	publishCmd.Flags().Bool("publish-datasource", false, "Publish the datasource as part of the run")
	publishCmd.Flags().Bool("update-datasource", false, "The datasource already exists on the server; update it instead of adding it")
	publishCmd.Flags().Bool("quiet", false, "Do not report the final outcome")
}

func loadWorkspace(path string) (*model.Workspace, error) {
	ws, err := model.Load(path)
	if err != nil {
		return nil, err
	}
	if ws.Datasource == nil {
		local, err := config.LoadDatasources()
		if err != nil {
			return nil, err
		}
		if err := ws.ResolveDatasource(local); err != nil {
			return nil, err
		}
	} else if err := config.ResolvePassword(ws.Datasource); err != nil {
		return nil, err
	}
	if ws.Artifact == "" {
		return nil, errors.New("workspace has no artifact: set artifact to the report or to the metadata domain file")
	}
	return ws, nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(args[0])
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	orch := s.orchestrator()
	ctx := cmd.Context()

	check, _ := cmd.Flags().GetBool("check-datasource")
	auto, _ := cmd.Flags().GetBool("auto")
	publishDs, _ := cmd.Flags().GetBool("publish-datasource")
	update, _ := cmd.Flags().GetBool("update-datasource")
	quiet, _ := cmd.Flags().GetBool("quiet")

	if check {
		if !orch.CheckDatasource(ctx, *ws.Datasource, auto) {
			return fmt.Errorf("datasource %s is not usable on %s", ws.Datasource.Name, s.server.Name())
		}
		publishDs = false
	}

	outcome := orch.Publish(ctx, publish.Request{
		Model:                ws.LogicalModel,
		SchemaName:           ws.SchemaName,
		JNDIName:             ws.JNDI,
		ModelName:            ws.Name,
		TargetPath:           ws.TargetPath,
		Datasource:           ws.Datasource,
		PublishDatasource:    publishDs,
		IsExistentDatasource: update,
		PublishArtifact:      ws.PublishArtifact,
		ArtifactFile:         ws.Artifact,
		ShowFeedback:         !quiet,
	})
	return outcomeResult(outcome)
}
