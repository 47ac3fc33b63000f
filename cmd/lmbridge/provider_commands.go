package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lmbridge/internal/api"
	"lmbridge/internal/provider"
	"lmbridge/internal/store"
)

func newProviderCommand(ctx *commandContext) *cobra.Command {
	providerCmd := &cobra.Command{
		Use:     "provider",
		Aliases: []string{"providers"},
		Short:   "Manage LM Bridge provider definitions",
	}

	providerCmd.AddCommand(newProviderListCommand(ctx))
	providerCmd.AddCommand(newProviderShowCommand(ctx))
	providerCmd.AddCommand(newProviderAddCommand(ctx))
	providerCmd.AddCommand(newProviderSetCommand(ctx))
	providerCmd.AddCommand(newProviderToggleCommand(ctx, "enable", true))
	providerCmd.AddCommand(newProviderToggleCommand(ctx, "disable", false))
	providerCmd.AddCommand(newProviderRescanCommand(ctx))
	providerCmd.AddCommand(newProviderRemoveCommand(ctx))
	providerCmd.AddCommand(newProviderImportCommand(ctx))

	return providerCmd
}

// settingsFlags collects the bridge settings editable from the command line.
type settingsFlags struct {
	name        string
	url         string
	exclude     string
	include     string
	count       int
	prefer      string
	enable      bool
	forceRescan bool
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "Definition name")
	flags.StringVar(&f.url, "url", "", "LM Bridge base URL")
	flags.StringVar(&f.exclude, "exclude", "", "Comma separated media formats to exclude")
	flags.StringVar(&f.include, "include", "", "Comma separated media formats to keep (wins over --exclude)")
	flags.IntVar(&f.count, "count", 0, "Keep only this many media per release (0 = no limit, negative clears)")
	flags.StringVar(&f.prefer, "prefer", "", "Preferred media when limiting: digital or analog")
	flags.BoolVar(&f.enable, "enable", false, "Enable the definition")
	flags.BoolVar(&f.forceRescan, "force-rescan", false, "Request a one-off rescan of every album")
}

// apply copies every flag the user set onto settings.
func (f *settingsFlags) apply(cmd *cobra.Command, settings *provider.BridgeSettings) {
	flags := cmd.Flags()
	if flags.Changed("url") {
		settings.SourceURL = strings.TrimSpace(f.url)
	}
	if flags.Changed("exclude") {
		settings.ExcludeMediaFormats = provider.ParseTokenList(f.exclude)
	}
	if flags.Changed("include") {
		settings.KeepOnlyFormats = provider.ParseTokenList(f.include)
	}
	if flags.Changed("count") {
		if f.count < 0 {
			settings.KeepOnlyMediaCount = nil
		} else {
			count := f.count
			settings.KeepOnlyMediaCount = &count
		}
	}
	if flags.Changed("prefer") {
		settings.Prefer = provider.ParseMediaPreference(f.prefer)
	}
	if flags.Changed("force-rescan") {
		settings.ForceRescanReleases = f.forceRescan
	}
}

func (f *settingsFlags) request(cmd *cobra.Command, settings *provider.BridgeSettings) (api.ProviderRequest, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return api.ProviderRequest{}, fmt.Errorf("encode settings: %w", err)
	}
	req := api.ProviderRequest{Settings: raw}
	if cmd.Flags().Changed("name") {
		req.Name = strings.TrimSpace(f.name)
	}
	if cmd.Flags().Changed("enable") {
		enable := f.enable
		req.Enable = &enable
	}
	return req, nil
}

func newProviderListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List provider definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				providers, err := host.ListProviders(c)
				if err != nil {
					return fmt.Errorf("list providers: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, providers)
				}
				out := cmd.OutOrStdout()
				if len(providers) == 0 {
					fmt.Fprintln(out, "No provider definitions")
					return nil
				}
				fmt.Fprintln(out, renderProviderTable(providers))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output providers as JSON")
	return cmd
}

func renderProviderTable(providers []api.Provider) string {
	headers := []string{"ID", "Name", "Implementation", "Enabled", "Source", "Prefer"}
	rows := make([][]string, 0, len(providers))
	for _, p := range providers {
		source, prefer := "-", "-"
		if settings, err := bridgeSettings(p); err == nil {
			source = settings.TrimmedSourceURL()
			prefer = titleCase(string(settings.Prefer))
		}
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.Implementation,
			yesNo(p.Enable),
			source,
			prefer,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight})
}

func newProviderShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one provider definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProviderID(args[0])
			if err != nil {
				return err
			}
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				p, err := host.GetProvider(c, id)
				if err != nil {
					return fmt.Errorf("get provider %d: %w", id, err)
				}
				if jsonOutput {
					return writeJSON(cmd, p)
				}
				printProvider(cmd.OutOrStdout(), p)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the provider as JSON")
	return cmd
}

func printProvider(out io.Writer, p api.Provider) {
	fmt.Fprintf(out, "ID:              %d\n", p.ID)
	fmt.Fprintf(out, "Name:            %s\n", p.Name)
	fmt.Fprintf(out, "Implementation:  %s\n", p.Implementation)
	fmt.Fprintf(out, "Enabled:         %s\n", yesNo(p.Enable))
	settings, err := bridgeSettings(p)
	if err != nil {
		fmt.Fprintf(out, "Settings:        %s\n", string(p.Settings))
		return
	}
	fmt.Fprintf(out, "Source:          %s\n", settings.TrimmedSourceURL())
	fmt.Fprintf(out, "Exclude formats: %s\n", joinOrDash(settings.ExcludeMediaFormats))
	fmt.Fprintf(out, "Keep formats:    %s\n", joinOrDash(settings.KeepOnlyFormats))
	if count := settings.EffectiveMediaCount(); count > 0 {
		fmt.Fprintf(out, "Media count:     %d\n", count)
	} else {
		fmt.Fprintln(out, "Media count:     no limit")
	}
	fmt.Fprintf(out, "Prefer:          %s\n", titleCase(string(settings.Prefer)))
	fmt.Fprintf(out, "Force rescan:    %s\n", yesNo(settings.ForceRescanReleases))
}

func newProviderAddCommand(ctx *commandContext) *cobra.Command {
	var flags settingsFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an LM Bridge provider definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := provider.NewBridgeSettings()
			flags.apply(cmd, settings)
			req, err := flags.request(cmd, settings)
			if err != nil {
				return err
			}
			req.Implementation = provider.ImplementationName
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				resp, err := host.CreateProvider(c, req)
				if err != nil {
					return fmt.Errorf("add provider: %w", err)
				}
				printWarnings(cmd, resp.Warnings)
				fmt.Fprintf(cmd.OutOrStdout(), "Added provider %d (%s, enabled: %s)\n",
					resp.Provider.ID, resp.Provider.Name, yesNo(resp.Provider.Enable))
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newProviderSetCommand(ctx *commandContext) *cobra.Command {
	var flags settingsFlags

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Edit an LM Bridge provider definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProviderID(args[0])
			if err != nil {
				return err
			}
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				current, err := host.GetProvider(c, id)
				if err != nil {
					return fmt.Errorf("get provider %d: %w", id, err)
				}
				settings, err := bridgeSettings(current)
				if err != nil {
					return err
				}
				flags.apply(cmd, settings)
				req, err := flags.request(cmd, settings)
				if err != nil {
					return err
				}
				resp, err := host.UpdateProvider(c, id, req)
				if err != nil {
					return fmt.Errorf("update provider %d: %w", id, err)
				}
				printWarnings(cmd, resp.Warnings)
				fmt.Fprintf(cmd.OutOrStdout(), "Updated provider %d\n", resp.Provider.ID)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newProviderToggleCommand(ctx *commandContext, verb string, enable bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: titleCase(verb) + " a provider definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProviderID(args[0])
			if err != nil {
				return err
			}
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				value := enable
				resp, err := host.UpdateProvider(c, id, api.ProviderRequest{Enable: &value})
				if err != nil {
					return fmt.Errorf("%s provider %d: %w", verb, id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Provider %d enabled: %s\n", resp.Provider.ID, yesNo(resp.Provider.Enable))
				return nil
			})
		},
	}
}

func newProviderRescanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rescan <id>",
		Short: "Queue a refresh of every album through a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProviderID(args[0])
			if err != nil {
				return err
			}
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				current, err := host.GetProvider(c, id)
				if err != nil {
					return fmt.Errorf("get provider %d: %w", id, err)
				}
				settings, err := bridgeSettings(current)
				if err != nil {
					return err
				}
				settings.ForceRescanReleases = true
				raw, err := json.Marshal(settings)
				if err != nil {
					return fmt.Errorf("encode settings: %w", err)
				}
				if _, err := host.UpdateProvider(c, id, api.ProviderRequest{Settings: raw}); err != nil {
					return fmt.Errorf("update provider %d: %w", id, err)
				}
				commands, err := host.ListCommands(c, string(store.CommandQueued))
				if err != nil {
					return fmt.Errorf("list commands: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rescan requested; %d refresh commands queued\n", len(commands))
				return nil
			})
		},
	}
}

func newProviderRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a provider definition",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProviderID(args[0])
			if err != nil {
				return err
			}
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				removed, err := host.DeleteProvider(c, id)
				if err != nil {
					return fmt.Errorf("remove provider %d: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed provider %d (%s)\n", removed.ID, removed.Name)
				return nil
			})
		},
	}
}

func newProviderImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Add provider definitions from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			defs, err := provider.ParseImport(data)
			if err != nil {
				return err
			}
			if len(defs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No providers to import")
				return nil
			}
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				for _, def := range defs {
					raw, err := provider.EncodeSettings(def.Settings)
					if err != nil {
						return fmt.Errorf("encode settings for %q: %w", def.Name, err)
					}
					enable := def.Enable
					resp, err := host.CreateProvider(c, api.ProviderRequest{
						Name:           def.Name,
						Implementation: def.Implementation,
						Enable:         &enable,
						Settings:       raw,
					})
					if err != nil {
						return fmt.Errorf("import provider %q: %w", def.Name, err)
					}
					printWarnings(cmd, resp.Warnings)
					fmt.Fprintf(cmd.OutOrStdout(), "Imported provider %d (%s)\n", resp.Provider.ID, resp.Provider.Name)
				}
				return nil
			})
		},
	}
}

// bridgeSettings decodes p's settings, failing for foreign implementations.
func bridgeSettings(p api.Provider) (*provider.BridgeSettings, error) {
	if p.Implementation != provider.ImplementationName {
		return nil, fmt.Errorf("provider %d uses %s, not %s", p.ID, p.Implementation, provider.ImplementationName)
	}
	settings, err := provider.DecodeSettings(p.Implementation, p.Settings)
	if err != nil {
		return nil, fmt.Errorf("decode provider %d settings: %w", p.ID, err)
	}
	bridge, ok := settings.(*provider.BridgeSettings)
	if !ok {
		return nil, fmt.Errorf("provider %d has unexpected settings type %T", p.ID, settings)
	}
	return bridge, nil
}

func parseProviderID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid provider id %q", value)
	}
	return id, nil
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
