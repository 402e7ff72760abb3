// cmd/tools/rule-linter/main.go

// Package main implements rule-linter, an offline checker for rule bundles.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	apihttp "field-validation/internal/common/http"
	"field-validation/internal/common/logger"
	"field-validation/internal/engine/catalog"
	"field-validation/internal/engine/health"
	"field-validation/internal/engine/rule"
	"field-validation/internal/rulesource"
	"field-validation/internal/service"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	var bundlePath string

	rootCmd := &cobra.Command{
		Use:           "rule-linter",
		Short:         "Check and exercise validation rule bundles",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&bundlePath, "bundle", "configs/rules.yaml", "Path to the rule bundle (yaml or json)")

	open := func() (*service.Service, *rulesource.Bundle, error) {
		src, err := rulesource.NewBundle(fs, bundlePath)
		if err != nil {
			return nil, nil, err
		}
		return service.New(src, catalog.Default(), time.Minute, logger.NewNoOpLogger()), src, nil
	}

	rootCmd.AddCommand(newCheckCmd(open), newEvaluateCmd(open), newTypesCmd(), newRemoteCheckCmd())
	return rootCmd
}

type openFunc func() (*service.Service, *rulesource.Bundle, error)

func newCheckCmd(open openFunc) *cobra.Command {
	var (
		formIDs       []string
		failOnWarning bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report configuration health issues for every form in the bundle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, src, err := open()
			if err != nil {
				return fmt.Errorf("failed to load bundle: %w", err)
			}
			if len(formIDs) == 0 {
				formIDs = src.FormIDs()
			}

			out := cmd.OutOrStdout()
			var errCount, warnCount int
			for _, formID := range formIDs {
				issues, err := svc.ConfigHealth(cmdContext(cmd), formID)
				if err != nil {
					return fmt.Errorf("form %s: %w", formID, err)
				}
				if len(issues) == 0 {
					_, _ = fmt.Fprintf(out, "%s: OK\n", formID)
					continue
				}

				_, _ = fmt.Fprintf(out, "%s:\n", formID)
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, issue := range issues {
					if issue.Severity == health.SeverityError {
						errCount++
					} else {
						warnCount++
					}
					_, _ = fmt.Fprintf(w, "  %s\t%s\tfield=%s\trule=%d\t%s\n",
						issue.Severity, issue.Code, issue.FieldID, issue.RuleID, issue.Message)
				}
				_ = w.Flush()
			}

			_, _ = fmt.Fprintf(out, "%d error(s), %d warning(s)\n", errCount, warnCount)
			if errCount > 0 {
				return fmt.Errorf("bundle has %d configuration error(s)", errCount)
			}
			if failOnWarning && warnCount > 0 {
				return fmt.Errorf("bundle has %d configuration warning(s)", warnCount)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&formIDs, "form", nil, "Only check these form ids")
	cmd.Flags().BoolVar(&failOnWarning, "fail-on-warning", false, "Exit non-zero on warnings too")
	return cmd
}

func newEvaluateCmd(open openFunc) *cobra.Command {
	var (
		formID  string
		fieldID string
		value   string
		ctxArgs map[string]string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one field value against the bundle and print the result as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := open()
			if err != nil {
				return fmt.Errorf("failed to load bundle: %w", err)
			}

			formCtx := make(rule.FormContext, len(ctxArgs))
			for k, v := range ctxArgs {
				formCtx[k] = parseValue(v)
			}

			res, err := svc.ValidateField(cmdContext(cmd), formID, fieldID, parseValue(value), formCtx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&formID, "form", "", "Form id; resolved from the field when empty")
	cmd.Flags().StringVar(&fieldID, "field", "", "Field id to validate")
	cmd.Flags().StringVar(&value, "value", "", "Field value; JSON literals (numbers, true, null) are decoded")
	cmd.Flags().StringToStringVar(&ctxArgs, "ctx", nil, "Other form values as key=value")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the registered validation types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tDEPENDENCY\tDESCRIPTION")
			for _, d := range catalog.Default().Definitions() {
				dep := "-"
				if d.RequiresDependency {
					dep = "required"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, dep, d.Description)
			}
			return w.Flush()
		},
	}
}

func newRemoteCheckCmd() *cobra.Command {
	var (
		server  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "remote-check FORM_ID...",
		Short: "Ask a running validation API for the configuration health of forms",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := apihttp.NewClient(server, timeout)
			out := cmd.OutOrStdout()

			failed := 0
			for _, formID := range args {
				issues, err := client.ConfigHealth(cmdContext(cmd), formID)
				if err != nil {
					return fmt.Errorf("form %s: %w", formID, err)
				}
				if health.HasErrors(issues) {
					failed++
				}
				_, _ = fmt.Fprintf(out, "%s: %d issue(s)\n", formID, len(issues))
				for _, issue := range issues {
					_, _ = fmt.Fprintf(out, "  %s %s rule=%d %s\n", issue.Severity, issue.Code, issue.RuleID, issue.Message)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d form(s) have configuration errors", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "Base URL of the validation API")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	return cmd
}

// parseValue decodes JSON scalars and falls back to plain text.
func parseValue(s string) rule.Value {
	var v rule.Value
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return rule.Text(s)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
