package notifications

import (
	"encoding/json"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(string) {}

type payload struct {
	Text string `json:"text"`
}

// Webhook posts every message as {"text": message} to URL. Delivery failures are logged and dropped.
type Webhook struct {
	URL     string
	Client  *fasthttp.Client
	Timeout time.Duration
	Log     interfaces.ILogger
	Statsd  interfaces.IStatsClient
}

// New returns a Webhook for url, or Nop when url is empty.
func New(url string, log interfaces.ILogger, statsd interfaces.IStatsClient) interfaces.INotifier {
	if url == "" {
		return Nop{}
	}
	return &Webhook{
		URL:     url,
		Client:  &fasthttp.Client{Name: "binance-trade-bot"},
		Timeout: 5 * time.Second,
		Log:     log,
		Statsd:  statsd,
	}
}

func (w *Webhook) Notify(message string) {
	body, err := json.Marshal(payload{Text: message})
	if err != nil {
		w.Log.Error("notification encode", zap.Error(err))
		return
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(w.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := w.Client.DoTimeout(req, resp, w.Timeout); err != nil {
		w.Statsd.Inc("notifications.failed")
		w.Log.Error("notification not delivered", zap.Error(err))
		return
	}
	if code := resp.StatusCode(); code >= fasthttp.StatusBadRequest {
		w.Statsd.Inc("notifications.failed")
		w.Log.Error("notification rejected",
			zap.Int("status", code),
			zap.ByteString("body", resp.Body()),
		)
		return
	}
	w.Statsd.Inc("notifications.sent")
}
