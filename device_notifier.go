package capture

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultDeviceTimeout = 3 * time.Second

// DeviceNotifier pushes the recognized text to the companion display device.
type DeviceNotifier interface {
	Notify(ctx context.Context, text string) error
}

type HttpDeviceNotifier struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

func NewHttpDeviceNotifier(deviceURL string, timeout time.Duration) (*HttpDeviceNotifier, error) {
	baseURL, err := checkAbsoluteURL(deviceURL)
	if err != nil {
		return nil, errors.Wrap(err, "device url")
	}
	if timeout <= 0 {
		timeout = DefaultDeviceTimeout
	}
	return &HttpDeviceNotifier{
		baseURL: baseURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (n *HttpDeviceNotifier) Notify(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	target := n.baseURL + "/receive_text?" + url.Values{"text": []string{text}}.Encode()
	log.Debug().Str("component", "CAPTURE_NOTIFY").Str("target", stripPasswordFromRawUrl(target)).
		Msg("sending text to device")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.Wrap(err, "build device request")
	}
	req.Close = true
	req.Header.Set("User-Agent", "open-capture/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "device %s did not respond", n.baseURL)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("device answered %d: %s", resp.StatusCode, string(body))
	}
	log.Debug().Str("component", "CAPTURE_NOTIFY").Str("response", string(body)).Msg("device acknowledged")
	return nil
}

// notifyErrorKind tells a timed out notification apart from any other failure.
func notifyErrorKind(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return NotifyTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NotifyTimeout
	}
	return NotifyError
}
