// Package directory is the client of the company's intranet API: Active
// Directory authentication and the invoice (NF) file service.
package directory

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// AuthError is returned when the directory rejects the credentials.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	return "invalid credentials: " + e.Detail
}

// Config configures the Client.
type Config struct {
	DirectoryURL string
	InvoicesURL  string
	Company      string
	Timeout      time.Duration
	InsecureTLS  bool
}

// Client calls the intranet API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zerolog.Logger
}

func NewClient(cfg Config, logger *zerolog.Logger) *Client {
	transport := cleanhttp.DefaultPooledTransport()
	if cfg.InsecureTLS {
		// The intranet API is served with an internal CA the hosts do not trust.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Transport: transport, Timeout: cfg.Timeout},
		logger: logger,
	}
}

type authRequest struct {
	Usuario string `json:"usuario"`
	Senha   string `json:"senha"`
}

type authResponse struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// Authenticate checks usuario/senha against Active Directory. Rejected
// credentials yield *AuthError; any other error is a transport failure.
func (c *Client) Authenticate(ctx context.Context, usuario, senha string) error {
	body, err := json.Marshal(authRequest{Usuario: usuario, Senha: senha})
	if err != nil {
		return err
	}

	endpoint := strings.TrimRight(c.cfg.DirectoryURL, "/") + "/autenticar-AD"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build auth request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("usuario", usuario).Msg("directory unreachable")
		return errors.Wrap(err, "authenticate")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return errors.Wrap(err, "read auth response")
	}

	var data authResponse
	_ = json.Unmarshal(raw, &data)

	if detail := errorDetail(data); detail != "" {
		c.logger.Warn().Str("usuario", usuario).Str("detail", detail).Msg("directory rejected credentials")
		return &AuthError{Detail: detail}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("request failed with status code %d", resp.StatusCode)
	}

	c.logger.Info().Str("usuario", usuario).Msg("directory login succeeded")
	return nil
}

// errorDetail turns the `error` field into display text. The API sends
// either a string or a flag with the reason in `message`.
func errorDetail(data authResponse) string {
	raw := bytes.TrimSpace(data.Error)
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "false" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return ""
		}
		return s
	}
	if data.Message != "" {
		return data.Message
	}
	if string(raw) == "true" {
		return "Falha na autenticação"
	}
	return string(raw)
}

type invoiceQuery struct {
	CNPJ    string `url:"cnpj_cpf"`
	NF      string `url:"nf"`
	Company string `url:"emp"`
}

// RequestInvoice asks the file service to export the invoice PDF of
// cnpj/nf to the shared invoice folder. The file appears asynchronously.
func (c *Client) RequestInvoice(ctx context.Context, cnpj, nf string) error {
	values, err := query.Values(invoiceQuery{CNPJ: cnpj, NF: nf, Company: c.cfg.Company})
	if err != nil {
		return errors.Wrap(err, "encode invoice query")
	}

	endpoint := strings.TrimRight(c.cfg.InvoicesURL, "/") + "/baixar_nf?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "build invoice request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "request invoice")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Str("nf", nf).Msg("invoice service returned non-200")
		return nil
	}

	c.logger.Info().Str("cnpj", cnpj).Str("nf", nf).Msg("invoice export requested")
	return nil
}

type fileQuery struct {
	Directory string `url:"directory"`
	Download  int    `url:"download"`
}

// FileURL is the link the browser follows to download path from the file
// service.
func (c *Client) FileURL(path string) string {
	values, err := query.Values(fileQuery{Directory: path, Download: 1})
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s/arquivo?%s", strings.TrimRight(c.cfg.InvoicesURL, "/"), values.Encode())
}

// Ping checks that the directory endpoint answers at all.
func (c *Client) Ping(ctx context.Context) error {
	u, err := url.Parse(c.cfg.DirectoryURL)
	if err != nil {
		return errors.Wrap(err, "parse directory url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
