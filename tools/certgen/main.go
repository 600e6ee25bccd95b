// Package main generates a Certificate Authority (CA), a server certificate
// and optionally a client certificate, writing them under a directory.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/atinyakov/GophIdentity/internal/certgen"
)

type options struct {
	dir    string
	caName string
	hosts  []string
	client string
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "certgen",
		Short: "Generate the CA and server certificates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := generate(opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Certificates generated into %s\n", opts.dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", "certs", "output directory")
	cmd.Flags().StringVar(&opts.caName, "ca-name", "GophIdentity CA", "CA common name")
	cmd.Flags().StringSliceVar(&opts.hosts, "hosts", []string{"localhost", "127.0.0.1"}, "server DNS names and IPs")
	cmd.Flags().StringVar(&opts.client, "client", "", "also issue a client certificate with this CN")
	return cmd
}

func generate(opts *options) error {
	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return err
	}

	ca, err := certgen.NewAuthority(opts.caName)
	if err != nil {
		return err
	}
	caCert, caKey, err := ca.EncodePEM()
	if err != nil {
		return err
	}
	if err := writePair(opts.dir, "ca", caCert, caKey); err != nil {
		return err
	}

	serverCert, serverKey, err := ca.IssueServerCertificate(opts.hosts...)
	if err != nil {
		return err
	}
	if err := writePair(opts.dir, "server", serverCert, serverKey); err != nil {
		return err
	}

	if opts.client == "" {
		return nil
	}
	clientCert, clientKey, err := ca.IssueClientCertificate(opts.client)
	if err != nil {
		return err
	}
	return writePair(opts.dir, "client", clientCert, clientKey)
}

// writePair writes <name>.crt and <name>.key; the key is readable by the owner only.
func writePair(dir, name string, certPEM, keyPEM []byte) error {
	if err := os.WriteFile(filepath.Join(dir, name+".crt"), certPEM, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+".key"), keyPEM, 0o600)
}
