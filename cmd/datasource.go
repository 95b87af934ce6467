package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/modelpub/internal/config"
	"github.com/kamusis/modelpub/internal/datasource"
	"github.com/kamusis/modelpub/internal/ui"
)

var datasourceCmd = &cobra.Command{
	Use:     "datasource",
	Aliases: []string{"ds"},
	Short:   "Manage local datasources and their server connections",
}

var datasourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the connections registered on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		conns := s.registry.List(cmd.Context())
		rows := make([][]string, 0, len(conns))
		for _, c := range conns {
			dbType := ""
			if c.DatabaseType != nil {
				dbType = c.DatabaseType.ShortName
			}
			user := ""
			if c.Username != nil {
				user = *c.Username
			}
			rows = append(rows, []string{c.Name, dbType, string(c.AccessType), c.Hostname, c.DatabasePort, c.DatabaseName, user})
		}
		ui.RenderTable(cmd.OutOrStdout(), []string{"NAME", "TYPE", "ACCESS", "HOST", "PORT", "DATABASE", "USER"}, rows, plainOutput())
		return nil
	},
}

var datasourceLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List local datasources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		local, err := config.LoadDatasources()
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(local.Datasources))
		for _, name := range local.Names() {
			d := local.Datasources[name]
			rows = append(rows, []string{name, datasource.NormalizeDbType(d.Type), string(d.AccessMode()), d.Host, d.EffectivePort(), d.Database, d.Username})
		}
		ui.RenderTable(cmd.OutOrStdout(), []string{"NAME", "TYPE", "ACCESS", "HOST", "PORT", "DATABASE", "USER"}, rows, plainOutput())
		return nil
	},
}

var datasourceAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Define a local datasource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		d := datasource.Descriptor{Name: args[0]}
		d.Type, _ = f.GetString("type")
		access, _ := f.GetString("access")
		d.Access = datasource.AccessType(strings.ToUpper(access))
		d.Host, _ = f.GetString("host")
		d.Port, _ = f.GetString("port")
		d.Database, _ = f.GetString("database")
		d.Username, _ = f.GetString("username")
		d.DriverClass, _ = f.GetString("driver")
		d.ForceLowercase, _ = f.GetBool("force-lowercase")
		d.QuoteAllFields, _ = f.GetBool("quote-all-fields")

		if d.Type == "" {
			return fmt.Errorf("--type is required")
		}
		if askPassword, _ := f.GetBool("password"); askPassword {
			pw, err := ui.PromptPassword(d.Name)
			if err != nil {
				return err
			}
			d.Password = pw
		}

		onConflict, _ := f.GetString("on_conflict")
		strategy, ok := config.ParseConflictStrategy(onConflict)
		if !ok {
			return fmt.Errorf("invalid on_conflict value: %s (must be fail, skip, or overwrite)", onConflict)
		}
		written, err := config.AddDatasource(d, strategy)
		if err != nil {
			return err
		}
		if written {
			fmt.Fprintf(cmd.OutOrStdout(), "Datasource %s saved.\n", d.Name)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Datasource %s exists, skipped.\n", d.Name)
		}
		return nil
	},
}

var datasourceCompareCmd = &cobra.Command{
	Use:   "compare <name>",
	Short: "Compare a local datasource with the server's connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := lookupDatasource(args[0])
		if err != nil {
			return err
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		cmp := s.registry.Compare(cmd.Context(), d)
		fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: %s %s\n", d.Name, s.server.Name(), stateLabel(cmp.State()), cmp)
		return nil
	},
}

var datasourceCheckCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Make sure the server has an up to date copy of a local datasource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := lookupDatasource(args[0])
		if err != nil {
			return err
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		auto, _ := cmd.Flags().GetBool("auto")
		if !s.orchestrator().CheckDatasource(cmd.Context(), d, auto) {
			return fmt.Errorf("datasource %s is not usable on %s", d.Name, s.server.Name())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Datasource %s is ready on %s.\n", d.Name, s.server.Name())
		return nil
	},
}

var datasourceSyncCmd = &cobra.Command{
	Use:   "sync <name>",
	Short: "Add or update a local datasource on the server without comparing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := lookupDatasource(args[0])
		if err != nil {
			return err
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		update, _ := cmd.Flags().GetBool("update")
		if !s.registry.Upsert(cmd.Context(), d, update) {
			return fmt.Errorf("server %s rejected datasource %s", s.server.Name(), d.Name)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Datasource %s published to %s.\n", d.Name, s.server.Name())
		return nil
	},
}

func stateLabel(state datasource.RemoteState) string {
	switch state {
	case datasource.StateNotNative:
		return "not native"
	case datasource.StateMissing:
		return "missing"
	case datasource.StateDifferent:
		return "different"
	case datasource.StateSame:
		return "same"
	default:
		return "unknown"
	}
}

func init() {
	rootCmd.AddCommand(datasourceCmd)
	datasourceCmd.AddCommand(datasourceListCmd, datasourceLsCmd, datasourceAddCmd,
		datasourceCompareCmd, datasourceCheckCmd, datasourceSyncCmd)

	f := datasourceAddCmd.Flags()
	f.String("type", "", "Database type, e.g. POSTGRESQL, ORACLE, MYSQL")
	f.String("access", string(datasource.AccessNative), "Access type: NATIVE, JNDI or ODBC")
	f.String("host", "", "Database host")
	f.String("port", "", "Database port (default: the dialect's port)")
	f.String("database", "", "Database name")
	f.String("username", "", "Database user")
	f.String("driver", "", "JDBC driver class override")
	f.Bool("force-lowercase", false, "Force identifiers to lower case")
	f.Bool("quote-all-fields", false, "Quote all fields")
	f.Bool("password", false, "Prompt for the database password and store it encrypted")
	f.String("on_conflict", "fail", "Conflict behavior: fail, skip, overwrite")

	datasourceCheckCmd.Flags().Bool("auto", false, "Create or update without asking or reporting")
	datasourceSyncCmd.Flags().Bool("update", false, "Update an existing connection instead of adding one")
}
