package birddog

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/birddog-tools/bdctl/internal/logging"
)

// apiPort is the fixed port for the device's REST API. Whatever port the
// caller supplied in the device URL is replaced with this one.
const apiPort = "8080"

// successAck is the literal acknowledgement the device returns for an
// accepted connectTo write.
const successAck = "success"

// Client talks to the device's JSON REST API and is the client callers use
// for every operation. Operations the REST API does not expose correctly are
// delegated to a companion web-interface backend that Client owns; the
// companion is prepared on Open and logged in lazily on first delegated call,
// so callers that never touch a web-backed operation never pay the
// authentication cost.
//
// A Client is meant for sequential use; it makes no thread-safety promises
// for concurrent calls against one instance.
type Client struct {
	*transport

	password string
	web      *webClient
}

// settingsBackend is the operation subset served by the web interface on
// behalf of the REST API.
type settingsBackend interface {
	GetSettings(ctx context.Context) (DeviceSettings, error)
	SetOperationMode(ctx context.Context, mode OperationMode) error
	SetVideoOutput(ctx context.Context, output VideoOutput) error
	RefreshSources(ctx context.Context) error
}

// NewClient creates a client for the device at hostURL. hostURL may be a
// bare host or IP, a host:port, or a full URL; it is normalized and the port
// rewritten to the REST API port.
func NewClient(hostURL string) (*Client, error) {
	return NewClientWithSession(hostURL, nil)
}

// NewClientWithSession creates a client using a caller-supplied HTTP session.
// The session is borrowed: the client will never release it, even on Close.
func NewClientWithSession(hostURL string, session *resty.Client) (*Client, error) {
	t, err := newTransport(hostURL, session)
	if err != nil {
		return nil, err
	}
	t.baseURL = rewriteHostPort(t.baseURL, apiPort)
	return &Client{transport: t, password: DefaultPassword}, nil
}

// SetPassword sets the web-interface password used by the companion backend.
func (c *Client) SetPassword(password string) {
	c.password = password
	if c.web != nil {
		c.web.password = password
	}
}

// SetTimeout changes the session-wide HTTP timeout. It affects the
// underlying session, so on a borrowed session it also affects the caller.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient().SetTimeout(timeout)
}

// Response is a decoded REST API response. The API inconsistently returns
// JSON or plain text per endpoint, so every response is tagged: Structured
// responses carry the parsed JSON, everything else stays raw bytes.
type Response struct {
	Raw        []byte
	JSON       gjson.Result
	Structured bool
}

// Text returns the response as a string, trimming whitespace from raw bodies.
func (r Response) Text() string {
	if r.Structured {
		return r.JSON.String()
	}
	return strings.TrimSpace(string(r.Raw))
}

func decodeResponse(body []byte) Response {
	if gjson.ValidBytes(body) {
		return Response{Raw: body, JSON: gjson.ParseBytes(body), Structured: true}
	}
	return Response{Raw: body}
}

// Get issues a GET against the given API endpoint with optional query
// parameters.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string) (Response, error) {
	url := c.formatURL(endpoint)
	logging.LogHTTPRequest(http.MethodGet, url)

	req := c.httpClient().R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(url)
	if err != nil {
		return Response{}, NewNetworkError(fmt.Sprintf("GET %s failed", endpoint), err)
	}
	logging.LogHTTPResponse(url, resp.StatusCode(), len(resp.Body()))
	if resp.IsError() {
		return Response{}, NewHTTPError(resp.StatusCode(), fmt.Sprintf("GET %s returned status %d", endpoint, resp.StatusCode()))
	}
	return decodeResponse(resp.Body()), nil
}

// PostOptions control encoding and timing of a Post.
type PostOptions struct {
	// FormEncoded sends the payload as application/x-www-form-urlencoded
	// instead of JSON.
	FormEncoded bool
	// Timeout overrides the session default for this request only.
	Timeout time.Duration
}

// Post issues a POST against the given API endpoint. A nil payload sends no
// body and requests a text response; otherwise the payload is JSON-encoded
// unless opts.FormEncoded is set.
func (c *Client) Post(ctx context.Context, endpoint string, data map[string]string, opts PostOptions) (Response, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	url := c.formatURL(endpoint)
	logging.LogHTTPRequest(http.MethodPost, url)

	req := c.httpClient().R().SetContext(ctx)
	switch {
	case data == nil:
		req.SetHeader("Accept", "text")
	case opts.FormEncoded:
		req.SetHeader("Accept", "text")
		req.SetFormData(data)
	default:
		body, err := encodeJSONBody(data)
		if err != nil {
			return Response{}, err
		}
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(body)
	}

	resp, err := req.Post(url)
	if err != nil {
		return Response{}, NewNetworkError(fmt.Sprintf("POST %s failed", endpoint), err)
	}
	logging.LogHTTPResponse(url, resp.StatusCode(), len(resp.Body()))
	if resp.IsError() {
		return Response{}, NewHTTPError(resp.StatusCode(), fmt.Sprintf("POST %s returned status %d", endpoint, resp.StatusCode()))
	}
	return decodeResponse(resp.Body()), nil
}

func encodeJSONBody(data map[string]string) (string, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	body := ""
	for _, k := range keys {
		var err error
		body, err = sjson.Set(body, k, data[k])
		if err != nil {
			return "", NewValidationError(fmt.Sprintf("cannot encode field %q: %v", k, err))
		}
	}
	return body, nil
}

// GetHostname returns the device's NDI hostname.
func (c *Client) GetHostname(ctx context.Context) (string, error) {
	res, err := c.Get(ctx, "hostname", nil)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// Reboot reboots the device.
//
// The hostname is fetched first to confirm a device is actually listening at
// the address; rebooting an absent device would otherwise hang. Errors from
// the reboot trigger itself are discarded: the device drops the connection or
// responds abnormally while going down, and that is not a caller-visible
// failure.
func (c *Client) Reboot(ctx context.Context) error {
	if _, err := c.GetHostname(ctx); err != nil {
		return err
	}
	if _, err := c.Get(ctx, "reboot", nil); err != nil {
		logging.Debug("reboot trigger response discarded", zap.Error(err))
	}
	return nil
}

// Restart restarts the device's video system. The same reachability check as
// Reboot applies, but restart is a reliable soft operation, so errors from
// the trigger request propagate.
func (c *Client) Restart(ctx context.Context) error {
	if _, err := c.GetHostname(ctx); err != nil {
		return err
	}
	_, err := c.Get(ctx, "restart", nil)
	return err
}

// GetOperationMode returns the device's current operation mode. The endpoint
// returns either {"mode": name} or the bare mode name as text; a JSON
// response without the mode key is a decode failure, not a guess.
func (c *Client) GetOperationMode(ctx context.Context) (OperationMode, error) {
	res, err := c.Get(ctx, "operationmode", nil)
	if err != nil {
		return 0, err
	}

	var name string
	if res.Structured {
		field := res.JSON.Get("mode")
		if !field.Exists() {
			return 0, NewDecodeError(`operationmode response missing "mode" key`, nil)
		}
		name = field.String()
	} else {
		name = res.Text()
	}

	mode, err := ParseOperationMode(name)
	if err != nil {
		return 0, NewDecodeError(fmt.Sprintf("operationmode response: %v", err), err)
	}
	return mode, nil
}

// SetOperationMode sets the operation mode. REST writes of this field are
// unreliable, so the call always goes through the web backend.
func (c *Client) SetOperationMode(ctx context.Context, mode OperationMode) error {
	web, err := c.webBackend(ctx)
	if err != nil {
		return err
	}
	return web.SetOperationMode(ctx, mode)
}

// GetAudioSetup returns the analog audio configuration. This endpoint works
// correctly over REST.
func (c *Client) GetAudioSetup(ctx context.Context) (AudioOutputSetup, error) {
	res, err := c.Get(ctx, "analogaudiosetup", nil)
	if err != nil {
		return AudioOutputSetup{}, err
	}
	if !res.Structured {
		return AudioOutputSetup{}, NewDecodeError("analogaudiosetup response is not JSON", nil)
	}
	return audioSetupFromJSON(res.JSON)
}

// GetSource returns the NDI source the device is currently connected to.
// The returned source carries no index since it is not from a listing.
func (c *Client) GetSource(ctx context.Context) (NdiSource, error) {
	res, err := c.Get(ctx, "connectTo", nil)
	if err != nil {
		return NdiSource{}, err
	}
	if !res.Structured {
		return NdiSource{}, NewDecodeError("connectTo response is not JSON", nil)
	}
	name := res.JSON.Get("sourceName")
	if !name.Exists() {
		return NdiSource{}, NewDecodeError(`connectTo response missing "sourceName" key`, nil)
	}
	return NdiSource{Name: name.String(), Index: -1}, nil
}

// ListSources returns the NDI sources the device currently knows about,
// indexed 0..n-1 in the order the device reports them. The entry matching
// the currently connected source name, if present, is flagged IsCurrent.
func (c *Client) ListSources(ctx context.Context) ([]NdiSource, error) {
	current, err := c.GetSource(ctx)
	if err != nil {
		return nil, err
	}

	res, err := c.Get(ctx, "List", nil)
	if err != nil {
		return nil, err
	}
	if !res.Structured || !res.JSON.IsObject() {
		return nil, NewDecodeError("List response is not a JSON object", nil)
	}

	// gjson iterates the document in wire order, which keeps indices stable
	// across calls as long as the device reports the same ordering.
	var sources []NdiSource
	res.JSON.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		sources = append(sources, NdiSource{
			Name:      name,
			Address:   value.String(),
			Index:     len(sources),
			IsCurrent: name == current.Name,
		})
		return true
	})
	return sources, nil
}

// SetSource connects the device to the named NDI source. Callers holding an
// NdiSource pass its Name; numeric indices go through SetSourceIndex. The
// device must acknowledge with the literal "success".
func (c *Client) SetSource(ctx context.Context, name string) error {
	res, err := c.Post(ctx, "connectTo", map[string]string{"sourceName": name}, PostOptions{})
	if err != nil {
		return err
	}
	if res.Structured || !bytes.Equal(res.Raw, []byte(successAck)) {
		return NewProtocolError(fmt.Sprintf("connectTo acknowledgement %q, want %q", res.Text(), successAck))
	}
	return nil
}

// SetSourceIndex connects the device to the source at the given 0-based
// index of the current listing. An out-of-range index fails with a lookup
// error before any write is issued.
func (c *Client) SetSourceIndex(ctx context.Context, index int) error {
	sources, err := c.ListSources(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(sources) {
		return NewLookupError(fmt.Sprintf("no source at index %d (have %d sources)", index, len(sources)))
	}
	return c.SetSource(ctx, sources[index].Name)
}

// GetSettings returns a fresh settings snapshot via the web backend.
func (c *Client) GetSettings(ctx context.Context) (DeviceSettings, error) {
	web, err := c.webBackend(ctx)
	if err != nil {
		return DeviceSettings{}, err
	}
	return web.GetSettings(ctx)
}

// GetVideoOutput returns the current video output selection.
func (c *Client) GetVideoOutput(ctx context.Context) (VideoOutput, error) {
	settings, err := c.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.VideoOutput, nil
}

// SetVideoOutput sets the video output. Only SDI and HDMI are valid targets.
func (c *Client) SetVideoOutput(ctx context.Context, output VideoOutput) error {
	web, err := c.webBackend(ctx)
	if err != nil {
		return err
	}
	return web.SetVideoOutput(ctx, output)
}

// RefreshSources asks the device to rescan for NDI sources. It returns no
// source data; call ListSources afterwards.
func (c *Client) RefreshSources(ctx context.Context) error {
	web, err := c.webBackend(ctx)
	if err != nil {
		return err
	}
	return web.RefreshSources(ctx)
}

// webBackend returns the companion web backend, logging it in on first use.
func (c *Client) webBackend(ctx context.Context) (settingsBackend, error) {
	if err := c.prepareWeb(); err != nil {
		return nil, err
	}
	if !c.web.isOpen {
		if err := c.web.Open(ctx); err != nil {
			return nil, err
		}
	}
	return c.web, nil
}

// prepareWeb constructs the companion web backend on the shared session
// without logging in.
func (c *Client) prepareWeb() error {
	if c.web != nil {
		return nil
	}
	web, err := newWebClient(c.baseURL, c.httpClient(), c.password, c)
	if err != nil {
		return err
	}
	c.web = web
	return nil
}

// Open prepares the client for use. The companion web backend is constructed
// up front on the shared session but not logged in; authentication happens on
// the first call that needs it.
func (c *Client) Open(ctx context.Context) error {
	if err := c.prepareWeb(); err != nil {
		return err
	}
	c.transport.open()
	return nil
}

// Close tears the client down: the companion web backend first (logout and
// release), then the client's own session. A missing or never-opened
// companion is fine.
func (c *Client) Close(ctx context.Context) error {
	web := c.web
	c.web = nil

	var err error
	if web != nil && web.isOpen {
		err = web.Close(ctx)
	}
	c.transport.close()
	return err
}
