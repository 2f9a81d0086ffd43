package birddog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/birddog-tools/bdctl/internal/logging"
)

// DefaultPassword is the factory password for the device's web interface.
const DefaultPassword = "birddog"

// webClient drives the device's HTML configuration interface. It exists
// because several REST endpoints are missing or do not work as documented;
// for those, current state is scraped out of the configuration page and
// writes go back as form submissions.
//
// Lifecycle per instance: closed -> open+authenticating -> open+authenticated
// -> closed. A failed login leaves the instance closed and unauthenticated;
// there is no usable unauthenticated-but-open state.
type webClient struct {
	*transport

	password string
	rest     *Client // paired REST client, nil when standalone
	settings *DeviceSettings
	loggedIn bool
}

// newWebClient creates a web backend for the device at hostURL. The web
// interface lives on the standard port, so any port in hostURL is stripped.
// The session is shared with (borrowed from) the paired REST client.
func newWebClient(hostURL string, session *resty.Client, password string, rest *Client) (*webClient, error) {
	t, err := newTransport(hostURL, session)
	if err != nil {
		return nil, err
	}
	t.baseURL = rewriteHostPort(t.baseURL, "")
	if password == "" {
		password = DefaultPassword
	}
	return &webClient{transport: t, password: password, rest: rest}, nil
}

// Open opens the transport and logs into the web interface.
func (w *webClient) Open(ctx context.Context) error {
	w.transport.open()
	if err := w.login(ctx); err != nil {
		w.isOpen = false
		return err
	}
	return nil
}

// Close logs out if logged in, then releases the transport. Logout is
// best-effort: a failed logout never blocks resource release.
func (w *webClient) Close(ctx context.Context) error {
	defer w.transport.close()

	if w.loggedIn {
		if err := w.logout(ctx); err != nil {
			logging.Warn("web interface logout failed", zap.Error(err))
		}
	}
	return nil
}

func (w *webClient) login(ctx context.Context) error {
	target := w.formatURL("login")
	logging.LogHTTPRequest(http.MethodPost, target)

	resp, err := w.httpClient().R().
		SetContext(ctx).
		SetFormData(map[string]string{"auth_password": w.password}).
		Post(target)
	if err != nil {
		return NewAuthError("web interface login failed", err)
	}
	logging.LogHTTPResponse(target, resp.StatusCode(), len(resp.Body()))
	if resp.IsError() {
		return NewAuthError(fmt.Sprintf("web interface login returned status %d", resp.StatusCode()), nil)
	}

	w.loggedIn = true
	logging.Debug("web interface login succeeded", zap.String("base_url", w.baseURL))
	return nil
}

func (w *webClient) logout(ctx context.Context) error {
	target := w.formatURL("logout")
	resp, err := w.httpClient().R().SetContext(ctx).Post(target)
	if err != nil {
		return NewAuthError("web interface logout failed", err)
	}
	if resp.IsError() {
		return NewAuthError(fmt.Sprintf("web interface logout returned status %d", resp.StatusCode()), nil)
	}
	w.loggedIn = false
	return nil
}

// get fetches a page from the web interface. Calling before login is a
// programming error in the composition layer, surfaced as a protocol error
// rather than recovered with an implicit login.
func (w *webClient) get(ctx context.Context, segments ...string) (string, error) {
	if !w.loggedIn {
		return "", NewProtocolError("web interface GET before login")
	}
	target := w.formatURL(segments...)
	logging.LogHTTPRequest(http.MethodGet, target)

	resp, err := w.httpClient().R().SetContext(ctx).Get(target)
	if err != nil {
		return "", NewNetworkError(fmt.Sprintf("GET %s failed", target), err)
	}
	logging.LogHTTPResponse(target, resp.StatusCode(), len(resp.Body()))
	if resp.IsError() {
		return "", NewHTTPError(resp.StatusCode(), fmt.Sprintf("GET %s returned status %d", target, resp.StatusCode()))
	}
	return resp.String(), nil
}

// post submits a form to the web interface. The same login precondition as
// get applies.
func (w *webClient) post(ctx context.Context, data url.Values, segments ...string) (string, error) {
	if !w.loggedIn {
		return "", NewProtocolError("web interface POST before login")
	}
	target := w.formatURL(segments...)
	logging.LogHTTPRequest(http.MethodPost, target)

	req := w.httpClient().R().SetContext(ctx)
	if data != nil {
		req.SetFormDataFromValues(data)
	}
	resp, err := req.Post(target)
	if err != nil {
		return "", NewNetworkError(fmt.Sprintf("POST %s failed", target), err)
	}
	logging.LogHTTPResponse(target, resp.StatusCode(), len(resp.Body()))
	if resp.IsError() {
		return "", NewHTTPError(resp.StatusCode(), fmt.Sprintf("POST %s returned status %d", target, resp.StatusCode()))
	}
	return resp.String(), nil
}

// GetSettings scrapes the current device settings off the videoset page and
// combines them with the REST-sourced audio setup into a fresh snapshot.
func (w *webClient) GetSettings(ctx context.Context) (DeviceSettings, error) {
	page, err := w.get(ctx, "videoset")
	if err != nil {
		return DeviceSettings{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return DeviceSettings{}, NewDecodeError("cannot parse videoset page", err)
	}
	form := doc.Find("#mod_sel")
	if form.Length() == 0 {
		return DeviceSettings{}, NewProtocolError(`videoset page has no "mod_sel" form`)
	}

	modeName, ok := checkedInput(form, OperationModeEncode.String(), OperationModeDecode.String())
	if !ok {
		return DeviceSettings{}, NewProtocolError("videoset page has no checked operation mode")
	}
	mode, err := ParseOperationMode(modeName)
	if err != nil {
		return DeviceSettings{}, err
	}

	outputName, ok := checkedInput(form, VideoOutputSDI.String(), VideoOutputHDMI.String())
	if !ok {
		return DeviceSettings{}, NewProtocolError("videoset page has no checked video output")
	}
	output, err := ParseVideoOutput(outputName)
	if err != nil {
		return DeviceSettings{}, err
	}

	audio, err := w.getAudioSetup(ctx)
	if err != nil {
		return DeviceSettings{}, err
	}

	settings := DeviceSettings{
		OperationMode: mode,
		VideoOutput:   output,
		AudioSetup:    audio,
	}
	w.settings = &settings
	return settings, nil
}

// checkedInput returns the first of the given input ids carrying a checked
// attribute within the selection.
func checkedInput(form *goquery.Selection, ids ...string) (string, bool) {
	for _, id := range ids {
		input := form.Find("#" + id)
		if input.Length() == 0 {
			continue
		}
		if _, checked := input.Attr("checked"); checked {
			return id, true
		}
	}
	return "", false
}

// getAudioSetup fetches the audio configuration through the paired REST
// client, or through a short-lived one when running standalone.
func (w *webClient) getAudioSetup(ctx context.Context) (AudioOutputSetup, error) {
	if w.rest != nil {
		return w.rest.GetAudioSetup(ctx)
	}

	rest, err := NewClientWithSession(w.baseURL, w.httpClient())
	if err != nil {
		return AudioOutputSetup{}, err
	}
	if err := rest.Open(ctx); err != nil {
		return AudioOutputSetup{}, err
	}
	defer func() { _ = rest.Close(ctx) }()
	return rest.GetAudioSetup(ctx)
}

// SetOperationMode writes the operation mode through the configuration form.
// The form is all-or-nothing, so the full current settings are fetched,
// mutated, and re-submitted in their entirety.
func (w *webClient) SetOperationMode(ctx context.Context, mode OperationMode) error {
	settings, err := w.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.OperationMode = mode
	_, err = w.post(ctx, settings.ToFormData(), "videoset")
	return err
}

// SetVideoOutput writes the video output selection through the configuration
// form, re-submitting the full settings like SetOperationMode.
func (w *webClient) SetVideoOutput(ctx context.Context, output VideoOutput) error {
	if !output.IsSettable() {
		return NewValidationError(fmt.Sprintf("video output %s is not a settable target", output))
	}
	settings, err := w.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.VideoOutput = output
	_, err = w.post(ctx, settings.ToFormData(), "videoset")
	return err
}

// RefreshSources posts the rescan trigger field to the configuration form.
// The device returns no source data for this; list afterwards.
func (w *webClient) RefreshSources(ctx context.Context) error {
	_, err := w.post(ctx, url.Values{"add_new_sources": {"new_sources"}}, "videoset")
	return err
}
