// Package client implements the command line client of the identity API:
// an HTTPS client that authenticates with a client certificate or a session
// token, and a local file of identity receipts.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/GophIdentity/internal/models"
	"github.com/atinyakov/GophIdentity/internal/provider"
	"github.com/atinyakov/GophIdentity/internal/service"
)

// DefaultTimeout bounds every API call.
const DefaultTimeout = 10 * time.Second

// LoadTLSConfig builds the client TLS configuration. The CA file is required;
// the certificate pair is loaded only when both paths are given and exist.
func LoadTLSConfig(caFile, certFile, keyFile string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	cfg := &tls.Config{RootCAs: caPool, MinVersion: tls.VersionTLS12}

	if certFile == "" || keyFile == "" || !exists(certFile) || !exists(keyFile) {
		return cfg, nil
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert/key: %w", err)
	}
	cfg.Certificates = []tls.Certificate{cert}
	return cfg, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Client calls the identity API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a Client for baseURL. A nil tlsConfig uses the default transport.
func New(baseURL string, tlsConfig *tls.Config) *Client {
	hc := &http.Client{Timeout: DefaultTimeout}
	if tlsConfig != nil {
		hc.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// SetToken sets the session token sent as a Bearer credential.
func (c *Client) SetToken(token string) {
	c.token = token
}

// RegisterAccount creates an account and returns its client certificate.
func (c *Client) RegisterAccount(ctx context.Context, login string) (Account, error) {
	var acc Account
	err := c.do(ctx, http.MethodPost, "/api/accounts/register", map[string]string{"login": login}, &acc)
	return acc, err
}

// Login authenticates with the client certificate and returns a session token.
func (c *Client) Login(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/accounts/login", struct{}{}, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// RegisterIdentity declares an identity to be confirmed.
func (c *Client) RegisterIdentity(ctx context.Context, req service.RegisterRequest) (service.RegisterResult, error) {
	var res service.RegisterResult
	err := c.do(ctx, http.MethodPost, "/api/identities", req, &res)
	return res, err
}

// TestAccess reports whether checkSum authorizes access to requestID.
func (c *Client) TestAccess(ctx context.Context, requestID, checkSum string) (bool, error) {
	var out struct {
		Access bool `json:"access"`
	}
	body := map[string]string{"request_id": requestID, "check_sum": checkSum}
	if err := c.do(ctx, http.MethodPost, "/api/identities/test-access", body, &out); err != nil {
		return false, err
	}
	return out.Access, nil
}

// Confirmation fetches the comparison of declared and confirmed values.
// checkSum may be empty when the client holds a session token.
func (c *Client) Confirmation(ctx context.Context, requestID, checkSum string) (service.ConfirmationResult, error) {
	var res service.ConfirmationResult
	path := "/api/identities/" + url.PathEscape(requestID) + "/confirmation"
	if checkSum != "" {
		path += "?" + url.Values{"check_sum": {checkSum}}.Encode()
	}
	err := c.do(ctx, http.MethodGet, path, nil, &res)
	return res, err
}

// RecordResponse posts the values a provider confirmed for requestID.
func (c *Client) RecordResponse(ctx context.Context, requestID string, in service.ProviderResponse) (models.IdentityResponse, error) {
	var res models.IdentityResponse
	err := c.do(ctx, http.MethodPost, "/api/identities/"+url.PathEscape(requestID)+"/response", in, &res)
	return res, err
}

// Confirm returns the provider response of the latest identity with email.
func (c *Client) Confirm(ctx context.Context, email string) (models.IdentityResponse, error) {
	var res models.IdentityResponse
	err := c.do(ctx, http.MethodPost, "/api/identities/confirm", map[string]string{"email": email}, &res)
	return res, err
}

// Providers lists the confirmation providers.
func (c *Client) Providers(ctx context.Context) ([]provider.Descriptor, error) {
	var res []provider.Descriptor
	err := c.do(ctx, http.MethodGet, "/api/providers", nil, &res)
	return res, err
}

// Fields lists the field dictionary.
func (c *Client) Fields(ctx context.Context) ([]models.Field, error) {
	var res []models.Field
	err := c.do(ctx, http.MethodGet, "/api/fields", nil, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
