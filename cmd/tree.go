package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kamusis/modelpub/internal/logging"
	"github.com/kamusis/modelpub/internal/repo"
	"github.com/kamusis/modelpub/internal/ui"
)

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Show the folders of the server repository",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 1 {
			path = args[0]
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}

		opts := repo.DefaultTreeOptions()
		opts.Depth, _ = cmd.Flags().GetInt("depth")
		opts.Filter, _ = cmd.Flags().GetString("filter")
		opts.ShowHidden, _ = cmd.Flags().GetBool("hidden")

		trees := repo.NewTreeClient(s.client, repo.WithLogger(*logging.Default()))
		root := trees.FetchTree(cmd.Context(), path, opts)
		if root.IsEmpty() {
			return fmt.Errorf("no tree for %s on %s", path, s.server.Name())
		}

		folders := repo.Folders(root)
		rows := make([][]string, 0, len(folders))
		for _, f := range folders {
			rows = append(rows, []string{f.Indented(), f.Path, strconv.Itoa(f.Depth)})
		}
		ui.RenderTable(cmd.OutOrStdout(), []string{"FOLDER", "PATH", "DEPTH"}, rows, plainOutput())
		return nil
	},
}

var existsCmd = &cobra.Command{
	Use:   "exists <path> <name>",
	Short: "Check whether a file exists in a repository folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		trees := repo.NewTreeClient(s.client, repo.WithLogger(*logging.Default()))
		found, err := trees.ContainsFile(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s not found in %s", args[1], args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s exists in %s\n", args[1], args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd, existsCmd)

	treeCmd.Flags().Int("depth", -1, "Folder depth to fetch (-1 for all)")
	treeCmd.Flags().String("filter", "*", "File name filter")
	treeCmd.Flags().Bool("hidden", false, "Include hidden entries")
}
