package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/modelpub/internal/config"
	"github.com/kamusis/modelpub/internal/ui"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage BI server profiles",
}

var serverAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add a server profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, rawURL := args[0], args[1]
		u, err := url.Parse(rawURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid server URL %q", config.MaskURL(rawURL))
		}
		if u.User != nil {
			return fmt.Errorf("put credentials in --username and the password prompt, not in the URL")
		}

		f := cmd.Flags()
		username, _ := f.GetString("username")
		save, _ := f.GetBool("save-password")
		onConflict, _ := f.GetString("on_conflict")
		strategy, ok := config.ParseConflictStrategy(onConflict)
		if !ok {
			return fmt.Errorf("invalid on_conflict value: %s (must be fail, skip, or overwrite)", onConflict)
		}
		if username == "" {
			if username, err = ui.PromptUsername(); err != nil {
				return err
			}
		}

		written, err := config.AddServer(name, config.Server{
			URL:          strings.TrimRight(rawURL, "/") + "/",
			Username:     username,
			SavePassword: save,
		}, strategy)
		if err != nil {
			return err
		}
		if !written {
			fmt.Fprintf(cmd.OutOrStdout(), "Server %s exists, skipped.\n", name)
			return nil
		}

		if save {
			password, err := ui.PromptPassword(fmt.Sprintf("%s@%s", username, name))
			if err != nil {
				return err
			}
			if err := config.SetCredentials(config.ServerCredentialKey(name), username, password); err != nil {
				return err
			}
		}

		if appConfig.CurrentServer == "" {
			appConfig.CurrentServer = name
			if err := config.SaveConfig(appConfig); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Server %s saved.\n", name)
		return nil
	},
}

var serverLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List server profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		servers, err := config.LoadServers()
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(servers.Servers))
		for _, name := range servers.Names() {
			s := servers.Servers[name]
			current := ""
			if name == appConfig.CurrentServer {
				current = "*"
			}
			rows = append(rows, []string{current, name, config.MaskURL(s.URL), s.Username, fmt.Sprintf("%v", s.SavePassword)})
		}
		ui.RenderTable(cmd.OutOrStdout(), []string{"", "NAME", "URL", "USER", "SAVED PASSWORD"}, rows, plainOutput())
		return nil
	},
}

var serverRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a server profile and its stored password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := config.RemoveServer(args[0])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("server %q not found", args[0])
		}
		if appConfig.CurrentServer == args[0] {
			appConfig.CurrentServer = ""
			if err := config.SaveConfig(appConfig); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Server %s removed.\n", args[0])
		return nil
	},
}

var serverUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a server profile the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.GetServer(args[0])
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("server %q not found", args[0])
		}
		appConfig.CurrentServer = args[0]
		if err := config.SaveConfig(appConfig); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Now using %s (%s).\n", args[0], config.MaskURL(s.URL))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.AddCommand(serverAddCmd, serverLsCmd, serverRmCmd, serverUseCmd)

	serverAddCmd.Flags().StringP("username", "u", "", "User to authenticate as")
	serverAddCmd.Flags().Bool("save-password", false, "Prompt for the password now and store it encrypted")
	serverAddCmd.Flags().String("on_conflict", "fail", "Conflict behavior: fail, skip, overwrite")
}
