// Command geolakectl is the administrative CLI. It talks to a running server
// over the HTTP RPC surface.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var host, token string

	rootCmd := &cobra.Command{
		Use:           "geolakectl",
		Short:         "geolake administration CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("GEOLAKE_HOST"); v != "" {
					host = v
				}
			}
			if !cmd.Flags().Changed("token") {
				if v := os.Getenv("GEOLAKE_TOKEN"); v != "" {
					token = v
				}
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "JWT bearer token")

	client := &rpcClient{host: &host, token: &token}

	rootCmd.AddCommand(
		newRegisterUserCmd(client),
		newCreateDatabaseCmd(client),
		newUsageCmd(client),
		newLogSizesCmd(client),
	)
	return rootCmd
}

func newRegisterUserCmd(c *rpcClient) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register-user <name>",
		Short: "Register a principal and its default database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(os.Stderr, "Password: ")
				raw, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = string(raw)
			}
			return c.call("geodb_register_user", map[string]string{
				"user_name": args[0],
				"password":  password,
			}, nil)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newCreateDatabaseCmd(c *rpcClient) *cobra.Command {
	return &cobra.Command{
		Use:   "create-database <name>",
		Short: "Register a database owned by the caller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out json.RawMessage
			if err := c.call("geodb_create_database", map[string]string{"name": args[0]}, &out); err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func newUsageCmd(c *rpcClient) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show the caller's storage usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out json.RawMessage
			if err := c.call("geodb_get_my_usage", map[string]string{}, &out); err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func newLogSizesCmd(c *rpcClient) *cobra.Command {
	return &cobra.Command{
		Use:   "log-sizes",
		Short: "Append a relation-size snapshot to the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.call("geodb_log_sizes", map[string]string{}, nil)
		},
	}
}

type rpcClient struct {
	host  *string
	token *string
}

// call posts a JSON body to /rpc/<operation> and decodes the response into
// out when non-nil.
func (c *rpcClient) call(operation string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, *c.host+"/rpc/"+operation, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if *c.token != "" {
		req.Header.Set("Authorization", "Bearer "+*c.token)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Message)
		}
		return fmt.Errorf("%s", resp.Status)
	}
	if out != nil && len(data) > 0 {
		return json.Unmarshal(data, out)
	}
	return nil
}

func printJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	fmt.Println(buf.String())
	return nil
}
