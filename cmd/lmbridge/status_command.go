package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lmbridge/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, provider, and bridge status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				status, err := host.Status(c)
				if err != nil {
					return fmt.Errorf("load status: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, status)
				}
				printer := newStatusPrinter(cmd.OutOrStdout())
				renderStatus(printer, status)
				fmt.Fprintln(cmd.OutOrStdout(), printer.String())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	return cmd
}

func renderStatus(p *statusPrinter, status api.Status) {
	p.section("Runtime")
	if status.Running {
		p.line("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID))
	} else {
		p.line("Daemon", statusInfo, "not running")
	}
	p.line("Database", statusInfo, status.DatabasePath)
	p.line("Lock", statusInfo, status.LockPath)
	if len(status.LastReleaseFilter) > 0 {
		p.line("Last filter sync", statusInfo, string(status.LastReleaseFilter))
	}

	p.section("Providers")
	p.line("Definitions", statusInfo, fmt.Sprintf("%d total, %d enabled", status.Providers, status.EnabledProviders))
	if active := status.ActiveProvider; active == nil {
		p.line("Active", statusWarn, "no enabled LM Bridge definition")
	} else {
		p.line("Active", statusOK, fmt.Sprintf("#%d %s", active.ID, active.Name))
		if settings, err := bridgeSettings(*active); err == nil {
			p.line("Prefer", statusInfo, titleCase(string(settings.Prefer)))
		}
	}
	if status.MetadataSource == "" {
		p.line("Metadata source", statusInfo, "host default")
	} else {
		p.line("Metadata source", statusOK, status.MetadataSource)
	}
	pending := statusOK
	if status.PendingCommands > 0 {
		pending = statusWarn
	}
	p.line("Pending refreshes", pending, fmt.Sprintf("%d", status.PendingCommands))

	if len(status.Checks) == 0 {
		return
	}
	p.section("Checks")
	for _, check := range status.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		p.line(check.Name, kind, check.Detail)
	}
}

func titleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return cases.Title(language.Und).String(value)
}
