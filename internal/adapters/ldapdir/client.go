// Package ldapdir authenticates credentials against an LDAP directory.
//
// Each attempt is one linear exchange: connect, bind as the user, search for
// the user's own entry, then unbind. The connection is released on every exit
// path and every transport failure collapses into DirectoryUnavailable so the
// caller can fall back to security questions.
package ldapdir

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/go-ldap/ldap/v3"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/ports"
)

// Defaults applied by NewClient.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultSearchFilter = "(userPrincipalName=%s)"
)

// Alias targets understood when building the identity.
const (
	AliasFirstName  = "firstName"
	AliasLastName   = "lastName"
	AliasIdentifier = "identifier"
)

// Conn is the subset of *ldap.Conn used by the client.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Unbind() error
	Close() error
}

// DialFunc opens a started connection to the directory.
type DialFunc func(ctx context.Context, cfg Config) (Conn, error)

// Config describes the directory and how to read a user entry from it.
type Config struct {
	URL                string
	Timeout            time.Duration
	InsecureSkipVerify bool
	SearchBaseDN       string
	// SearchFilter is a fmt template receiving the escaped identifier.
	SearchFilter string
	Attributes   []string
	// Aliases renames directory attributes, e.g. "sn" -> "lastName".
	Aliases map[string]string
	Roles   ports.RoleMapper
}

// Client implements ports.Authenticator against LDAP.
type Client struct {
	cfg    Config
	dial   DialFunc
	logger *slog.Logger
}

var _ ports.Authenticator = (*Client)(nil)

// ClientOptions groups dependencies for Client.
type ClientOptions struct {
	Config Config
	Dial   DialFunc     // Optional: defaults to a TCP/TLS dialer for Config.URL
	Logger *slog.Logger // Optional
}

// NewClient validates the configuration and returns a Client.
func NewClient(opts ClientOptions) (*Client, error) {
	cfg := opts.Config
	if cfg.URL == "" && opts.Dial == nil {
		return nil, errors.New("ldap: URL is required")
	}
	if cfg.SearchBaseDN == "" {
		return nil, errors.New("ldap: search base DN is required")
	}
	if cfg.Roles == nil {
		return nil, errors.New("ldap: role mapper is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SearchFilter == "" {
		cfg.SearchFilter = DefaultSearchFilter
	}
	dial := opts.Dial
	if dial == nil {
		dial = DialURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, dial: dial, logger: logger.With("component", "ldap")}, nil
}

// Authenticate binds as the user and derives the identity from their entry.
func (c *Client) Authenticate(ctx context.Context, cred domainauth.Credential) domainauth.Outcome {
	// Many servers accept an empty password as an anonymous bind.
	if cred.Secret == "" {
		return domainauth.Rejected(domainauth.OutcomeInvalidCredentials)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	conn, err := c.dial(ctx, c.cfg)
	if err != nil {
		return c.fail("connect", cred.Identifier, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Unbind()
		_ = conn.Close()
	}()

	if err = conn.Bind(cred.Identifier, cred.Secret); err != nil {
		return c.fail("bind", cred.Identifier, err)
	}

	res, err := conn.Search(c.searchRequest(cred.Identifier))
	if err != nil && !(ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) && res != nil && len(res.Entries) > 0) {
		return c.fail("search", cred.Identifier, err)
	}
	if res == nil || len(res.Entries) == 0 {
		c.logger.WarnContext(ctx, "ldap entry not found", "identifier", cred.Identifier)
		return domainauth.Rejected(domainauth.OutcomeInsufficientRights)
	}

	return c.identityFrom(ctx, cred.Identifier, res.Entries[0])
}

func (c *Client) searchRequest(identifier string) *ldap.SearchRequest {
	return ldap.NewSearchRequest(
		c.cfg.SearchBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		1,
		int(c.cfg.Timeout.Seconds()),
		false,
		fmt.Sprintf(c.cfg.SearchFilter, ldap.EscapeFilter(identifier)),
		c.cfg.Attributes,
		nil,
	)
}

func (c *Client) identityFrom(ctx context.Context, identifier string, entry *ldap.Entry) domainauth.Outcome {
	role, ok := c.cfg.Roles.Map(entry.DN)
	if !ok {
		c.logger.WarnContext(ctx, "ldap entry matches no role rule", "identifier", identifier, "dn", entry.DN)
		return domainauth.Rejected(domainauth.OutcomeInsufficientRights)
	}

	values := make(map[string]string, len(c.cfg.Aliases))
	for _, attr := range c.cfg.Attributes {
		if alias, ok := c.cfg.Aliases[attr]; ok {
			values[alias] = entry.GetAttributeValue(attr)
		}
	}

	id := domainauth.Identity{
		Role:       role,
		FirstName:  values[AliasFirstName],
		LastName:   values[AliasLastName],
		Identifier: identifier,
	}
	if v := values[AliasIdentifier]; v != "" {
		id.Identifier = v
	}
	return domainauth.Succeeded(id)
}

func (c *Client) fail(step, identifier string, err error) domainauth.Outcome {
	kind := classify(err)
	if kind == domainauth.OutcomeDirectoryUnavailable {
		c.logger.Warn("ldap "+step+" failed", "identifier", identifier, "error", err)
	}
	return domainauth.Rejected(kind)
}

// classify turns any directory error into an outcome. Only a rejected
// password is the user's fault; everything else means the directory is unusable.
func classify(err error) domainauth.OutcomeKind {
	if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
		return domainauth.OutcomeInvalidCredentials
	}
	return domainauth.OutcomeDirectoryUnavailable
}

// DialURL connects to an ldap:// or ldaps:// URL honouring ctx.
func DialURL(ctx context.Context, cfg Config) (Conn, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse ldap url: %w", err)
	}

	var isTLS bool
	port := u.Port()
	switch u.Scheme {
	case "ldap":
		if port == "" {
			port = ldap.DefaultLdapPort
		}
	case "ldaps":
		isTLS = true
		if port == "" {
			port = ldap.DefaultLdapsPort
		}
	default:
		return nil, fmt.Errorf("unsupported ldap scheme %q", u.Scheme)
	}

	var d net.Dialer
	raw, err := d.DialContext(ctx, "tcp", net.JoinHostPort(u.Hostname(), port))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Host, err)
	}

	if isTLS {
		tc := tls.Client(raw, &tls.Config{
			ServerName:         u.Hostname(),
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for lab directories
		})
		if err = tc.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("tls handshake: %w", err)
		}
		raw = tc
	}

	conn := ldap.NewConn(raw, isTLS)
	conn.Start()
	if cfg.Timeout > 0 {
		conn.SetTimeout(cfg.Timeout)
	}
	return conn, nil
}
