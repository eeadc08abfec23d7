package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/techjoec/driftbuster/internal/profile"
)

// profileStore is shared by every profile subcommand for the lifetime of
// the process; there is no persistence beyond the export subcommand since
// the core Store itself is in-memory (spec §4.4).
var profileStore = profile.NewStore()

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage configuration profiles",
}

var (
	profileTags []string

	profileConfigIdentifier      string
	profileConfigPath            string
	profileConfigPathGlob        string
	profileConfigApplication     string
	profileConfigVersion         string
	profileConfigBranch          string
	profileConfigExpectedFormat  string
	profileConfigExpectedVariant string
)

var profileRegisterCmd = &cobra.Command{
	Use:   "register NAME",
	Short: "Register a new profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileRegister,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered profile as YAML",
	RunE:  runProfileList,
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a profile and every config it owns",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileRemove,
}

var profileAddConfigCmd = &cobra.Command{
	Use:   "add-config PROFILE",
	Short: "Add an expected config to an existing profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAddConfig,
}

var profileExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write the store's name-ordered snapshot to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileExport,
}

func init() {
	profileRegisterCmd.Flags().StringSliceVar(&profileTags, "tag", nil, "profile tag (repeatable)")

	profileAddConfigCmd.Flags().StringVar(&profileConfigIdentifier, "identifier", "", "globally unique config identifier (required)")
	profileAddConfigCmd.Flags().StringVar(&profileConfigPath, "path", "", "exact relative path")
	profileAddConfigCmd.Flags().StringVar(&profileConfigPathGlob, "path-glob", "", "relative path glob, mutually exclusive with --path")
	profileAddConfigCmd.Flags().StringVar(&profileConfigApplication, "application", "", "owning application name")
	profileAddConfigCmd.Flags().StringVar(&profileConfigVersion, "version", "", "application version")
	profileAddConfigCmd.Flags().StringVar(&profileConfigBranch, "branch", "", "deployment branch")
	profileAddConfigCmd.Flags().StringVar(&profileConfigExpectedFormat, "expected-format", "", "format this config is expected to detect as")
	profileAddConfigCmd.Flags().StringVar(&profileConfigExpectedVariant, "expected-variant", "", "variant this config is expected to detect as")
	_ = profileAddConfigCmd.MarkFlagRequired("identifier")

	profileCmd.AddCommand(profileRegisterCmd, profileListCmd, profileRemoveCmd, profileAddConfigCmd, profileExportCmd)
}

func runProfileRegister(cmd *cobra.Command, args []string) error {
	p := profile.Profile{Name: args[0], Tags: tagSetOf(profileTags)}
	if err := profileStore.RegisterProfile(p); err != nil {
		return fmt.Errorf("profile register: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "registered profile %q\n", p.Name)
	return nil
}

func runProfileList(cmd *cobra.Command, args []string) error {
	summaries := profileStore.Summary()
	encoded, err := profile.ToYAML(summaries)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(encoded))
	return nil
}

func runProfileRemove(cmd *cobra.Command, args []string) error {
	if err := profileStore.RemoveProfile(args[0]); err != nil {
		return fmt.Errorf("profile remove: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed profile %q\n", args[0])
	return nil
}

func runProfileAddConfig(cmd *cobra.Command, args []string) error {
	name := args[0]
	config := profile.ProfileConfig{
		Identifier:      profileConfigIdentifier,
		Path:            profileConfigPath,
		PathGlob:        profileConfigPathGlob,
		Application:     profileConfigApplication,
		Version:         profileConfigVersion,
		Branch:          profileConfigBranch,
		ExpectedFormat:  profileConfigExpectedFormat,
		ExpectedVariant: profileConfigExpectedVariant,
	}
	err := profileStore.UpdateProfile(name, func(p profile.Profile) (profile.Profile, error) {
		p.Configs = append(p.Configs, config)
		return p, nil
	})
	if err != nil {
		return fmt.Errorf("profile add-config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added config %q to profile %q\n", config.Identifier, name)
	return nil
}

func runProfileExport(cmd *cobra.Command, args []string) error {
	encoded, err := profile.ToYAML(profileStore.Summary())
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], encoded, 0o644); err != nil {
		return fmt.Errorf("profile export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
	return nil
}

func tagSetOf(tags []string) map[string]struct{} {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		out[t] = struct{}{}
	}
	return out
}
