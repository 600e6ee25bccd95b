// Package main is the command line client of the identity API.
package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/GophIdentity/internal/client"
	"github.com/atinyakov/GophIdentity/internal/models"
	"github.com/atinyakov/GophIdentity/internal/service"
)

var (
	version   string
	buildDate string
)

// app holds the global flags shared by every command.
type app struct {
	baseURL  string
	caFile   string
	certFile string
	keyFile  string
	store    string

	ls *client.LocalStore
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "gophidentity",
		Short:        "Client of the identity confirmation API",
		Version:      fmt.Sprintf("%s (built %s)", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A")),
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			ls, err := client.OpenStore(a.store)
			if err != nil {
				return fmt.Errorf("open %s: %w", a.store, err)
			}
			a.ls = ls
			return nil
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&a.baseURL, "url", "https://localhost:8080", "server base URL")
	f.StringVar(&a.caFile, "ca", "certs/ca.crt", "path to CA cert")
	f.StringVar(&a.certFile, "cert", "client.crt", "path to client cert")
	f.StringVar(&a.keyFile, "key", "client.key", "path to client key")
	f.StringVar(&a.store, "store", client.DefaultStoreFile, "local receipts file")

	root.AddCommand(
		a.accountCommand(),
		a.identityCommand(),
		&cobra.Command{
			Use:   "providers",
			Short: "List confirmation providers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := a.client()
				if err != nil {
					return err
				}
				list, err := c.Providers(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			},
		},
		&cobra.Command{
			Use:   "fields",
			Short: "List the field dictionary",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := a.client()
				if err != nil {
					return err
				}
				list, err := c.Fields(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			},
		},
	)
	return root
}

func (a *app) client() (*client.Client, error) {
	tlsConfig, err := client.LoadTLSConfig(a.caFile, a.certFile, a.keyFile)
	if err != nil {
		return nil, err
	}
	c := client.New(a.baseURL, tlsConfig)
	c.SetToken(a.ls.Token)
	return c, nil
}

func (a *app) accountCommand() *cobra.Command {
	account := &cobra.Command{Use: "account", Short: "Manage the account"}

	var login string
	register := &cobra.Command{
		Use:   "register",
		Short: "Register an account and save its client certificate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			acc, err := c.RegisterAccount(cmd.Context(), login)
			if err != nil {
				return err
			}
			if err := os.WriteFile(a.certFile, []byte(acc.Cert), 0600); err != nil {
				return fmt.Errorf("failed to save %s: %w", a.certFile, err)
			}
			if err := os.WriteFile(a.keyFile, []byte(acc.Key), 0600); err != nil {
				return fmt.Errorf("failed to save %s: %w", a.keyFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered user %d. Certificate and key saved.\n", acc.UserID)
			return nil
		},
	}
	register.Flags().StringVar(&login, "login", "", "username")
	_ = register.MarkFlagRequired("login")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with the client certificate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			token, err := c.Login(cmd.Context())
			if err != nil {
				return err
			}
			a.ls.SetToken(token)
			if err := a.ls.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		},
	}

	account.AddCommand(register, loginCmd)
	return account
}

func (a *app) identityCommand() *cobra.Command {
	identity := &cobra.Command{Use: "identity", Short: "Register and confirm identities"}
	identity.AddCommand(
		a.identityRegisterCommand(),
		a.identityTestAccessCommand(),
		a.identityConfirmationCommand(),
		a.identityRespondCommand(),
		a.identityConfirmCommand(),
	)
	return identity
}

func (a *app) identityRegisterCommand() *cobra.Command {
	var (
		req    service.RegisterRequest
		fields []string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Declare an identity and keep its receipt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := parseFields(fields)
			if err != nil {
				return err
			}
			req.Data = data

			c, err := a.client()
			if err != nil {
				return err
			}
			res, err := c.RegisterIdentity(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.ls.Add(client.Receipt{
				RequestID: res.ID,
				CheckSum:  res.CheckSum,
				Email:     req.Email,
				Provider:  req.Provider,
				CreatedAt: time.Now().UTC(),
			})
			if err := a.ls.Save(); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&req.RequestID, "request-id", "", "merchant request id")
	cmd.Flags().StringVar(&req.Email, "email", "", "e-mail of the person")
	cmd.Flags().StringVar(&req.URLConfirm, "url-confirm", "", "URL the provider returns to")
	cmd.Flags().StringVar(&req.Provider, "provider", "", "confirmation provider")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "declared value as name=value, repeatable")
	_ = cmd.MarkFlagRequired("request-id")
	return cmd
}

func (a *app) identityTestAccessCommand() *cobra.Command {
	var checkSum string
	cmd := &cobra.Command{
		Use:   "test-access REQUEST_ID",
		Short: "Check a request checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ok, err := c.TestAccess(cmd.Context(), args[0], a.checkSum(args[0], checkSum))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]bool{"access": ok})
		},
	}
	cmd.Flags().StringVar(&checkSum, "check-sum", "", "checksum, defaults to the stored receipt")
	return cmd
}

func (a *app) identityConfirmationCommand() *cobra.Command {
	var (
		checkSum  string
		anonymous bool
	)
	cmd := &cobra.Command{
		Use:   "confirmation REQUEST_ID",
		Short: "Compare declared values with the confirmed ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			sum := ""
			if anonymous || a.ls.Token == "" {
				c.SetToken("")
				sum = a.checkSum(args[0], checkSum)
			}
			res, err := c.Confirmation(cmd.Context(), args[0], sum)
			if err != nil {
				return err
			}
			if res.SessionToken != "" {
				a.ls.SetToken(res.SessionToken)
				if err := a.ls.Save(); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&checkSum, "check-sum", "", "checksum, defaults to the stored receipt")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "ignore the stored session and use the checksum")
	return cmd
}

func (a *app) identityRespondCommand() *cobra.Command {
	var (
		in     service.ProviderResponse
		fields []string
	)
	cmd := &cobra.Command{
		Use:   "respond REQUEST_ID",
		Short: "Record the values a provider confirmed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFields(fields)
			if err != nil {
				return err
			}
			in.Values = values
			in.CheckSum = a.checkSum(args[0], in.CheckSum)

			c, err := a.client()
			if err != nil {
				return err
			}
			resp, err := c.RecordResponse(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&in.Provider, "provider", "", "confirming provider")
	cmd.Flags().StringVar(&in.Status, "status", service.DefaultResponseStatus, "response status")
	cmd.Flags().StringVar(&in.CheckSum, "check-sum", "", "checksum, defaults to the stored receipt")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "confirmed value as name=value, repeatable")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}

func (a *app) identityConfirmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm EMAIL",
		Short: "Show the provider response for an e-mail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			resp, err := c.Confirm(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

// checkSum returns explicit, or the checksum of the stored receipt.
func (a *app) checkSum(requestID, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if r := a.ls.Get(requestID); r != nil {
		return r.CheckSum
	}
	return ""
}

// parseFields turns name=value pairs into field values, keeping their order.
func parseFields(pairs []string) ([]models.FieldValue, error) {
	out := make([]models.FieldValue, 0, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid field %q, want name=value", p)
		}
		out = append(out, models.FieldValue{FieldName: strings.TrimSpace(name), FieldValue: value})
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
