package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/benvon/corsgate/internal/config"
	"github.com/benvon/corsgate/internal/models"
	"github.com/benvon/corsgate/internal/pathpattern"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ErrRequestDenied is returned by "policy check" when the rule would not
// grant the described request.
var ErrRequestDenied = errors.New("request denied by CORS policy")

// NewPolicyCmd creates the policy command with show, validate and check subcommands.
func NewPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the CORS policy",
		Long:  "Show, validate or test the CORS policy built from the environment and CORS_POLICY_FILE.",
	}
	cmd.AddCommand(newPolicyShowCmd())
	cmd.AddCommand(newPolicyValidateCmd())
	cmd.AddCommand(newPolicyCheckCmd())
	return cmd
}

func loadRule() (models.CorsRule, error) {
	cfg, err := config.Load()
	if err != nil {
		return models.CorsRule{}, fmt.Errorf("load config: %w", err)
	}
	return cfg.CorsRule(), nil
}

func newPolicyShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective CORS policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := loadRule()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "yaml", "yml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(rule); err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rule); err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
				return nil
			default:
				return fmt.Errorf("unsupported format %q (use yaml or json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	return cmd
}

func newPolicyValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "validate",
		Short:        "Validate the CORS policy",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := loadRule()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "CORS policy is valid (path pattern %s, %d origin(s))\n",
				rule.PathPattern, len(rule.AllowedOrigins))
			return nil
		},
	}
}

func newPolicyCheckCmd() *cobra.Command {
	var origin, method, requestPath string
	cmd := &cobra.Command{
		Use:          "check",
		Short:        "Check whether a cross-origin request would be granted",
		Long:         "Evaluate an origin, method and path against the CORS policy. Exits non-zero when denied.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(origin) == "" {
				return fmt.Errorf("--origin is required")
			}
			rule, err := loadRule()
			if err != nil {
				return err
			}
			pattern, err := pathpattern.Compile(rule.PathPattern)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			method = strings.ToUpper(strings.TrimSpace(method))
			var reasons []string
			if !pattern.Match(requestPath) {
				reasons = append(reasons, fmt.Sprintf("path %s does not match %s", requestPath, rule.PathPattern))
			}
			if !rule.AllowsOrigin(origin) {
				reasons = append(reasons, fmt.Sprintf("origin %s is not allowed", origin))
			}
			if !rule.AllowsMethod(method) {
				reasons = append(reasons, fmt.Sprintf("method %s is not allowed", method))
			}

			if len(reasons) > 0 {
				fmt.Fprintln(out, "DENIED")
				for _, r := range reasons {
					fmt.Fprintf(out, "  - %s\n", r)
				}
				return ErrRequestDenied
			}

			fmt.Fprintln(out, "ALLOWED")
			fmt.Fprintf(out, "  Access-Control-Allow-Origin: %s\n", origin)
			if rule.AllowCredentials {
				fmt.Fprintln(out, "  Access-Control-Allow-Credentials: true")
			}
			fmt.Fprintf(out, "  Access-Control-Allow-Methods: %s\n", strings.Join(rule.AllowedMethods, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "Request Origin header (required)")
	cmd.Flags().StringVar(&method, "method", http.MethodGet, "Request method")
	cmd.Flags().StringVar(&requestPath, "path", "/v1/", "Request path")
	return cmd
}
