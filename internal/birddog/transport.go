package birddog

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/birddog-tools/bdctl/internal/logging"
)

// DefaultTimeout is the default HTTP request timeout for sessions the
// transport creates itself.
const DefaultTimeout = 10 * time.Second

// session is an ownership-tagged handle for the underlying HTTP client.
// A session supplied by the caller is borrowed and never released by the
// transport; a session the transport builds itself is owned and released
// exactly once, on close.
type session struct {
	client *resty.Client
	owned  bool
}

// transport owns a normalized base URL and a reusable HTTP session. It is
// the common base for both device backends.
type transport struct {
	baseURL string
	sess    session
	isOpen  bool
}

// newTransport normalizes hostURL to a stable scheme+host base URL (a bare
// host or IP defaults to http, any path/query is stripped) and binds the
// given session. A nil client means the transport lazily builds and owns one.
func newTransport(hostURL string, client *resty.Client) (*transport, error) {
	baseURL, err := normalizeHostURL(hostURL)
	if err != nil {
		return nil, err
	}
	return &transport{
		baseURL: baseURL,
		sess:    session{client: client, owned: client == nil},
	}, nil
}

func normalizeHostURL(hostURL string) (string, error) {
	if !strings.Contains(hostURL, "//") {
		hostURL = "http://" + hostURL
	}
	u, err := url.Parse(hostURL)
	if err != nil {
		return "", fmt.Errorf("invalid device URL %q: %w", hostURL, err)
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		return "", fmt.Errorf("device URL %q has no host", hostURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// rewriteHostPort returns baseURL with its port replaced. An empty port
// strips any existing port.
func rewriteHostPort(baseURL, port string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	host := u.Host
	if h, _, splitErr := net.SplitHostPort(u.Host); splitErr == nil {
		host = h
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	}
	u.Host = host
	return u.Scheme + "://" + u.Host
}

// httpClient returns the session's client, building an owned one on first use.
func (t *transport) httpClient() *resty.Client {
	if t.sess.client == nil {
		logging.Debug("building HTTP session", zap.String("base_url", t.baseURL))
		t.sess = session{
			client: resty.New().SetTimeout(DefaultTimeout),
			owned:  true,
		}
	}
	return t.sess.client
}

// formatURL joins the base URL and the given path segments with "/".
func (t *transport) formatURL(segments ...string) string {
	if len(segments) == 0 {
		return t.baseURL
	}
	return t.baseURL + "/" + strings.Join(segments, "/")
}

// open marks the transport open. Backends layer their own setup on top.
func (t *transport) open() {
	t.isOpen = true
}

// close releases the session if the transport owns it. The open flag is
// cleared unconditionally so a failed release cannot leave the transport
// half-open.
func (t *transport) close() {
	defer func() { t.isOpen = false }()

	if t.sess.client != nil && t.sess.owned {
		client := t.sess.client
		t.sess = session{}
		client.GetClient().CloseIdleConnections()
	}
}
