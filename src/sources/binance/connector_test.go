package binance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/BelphegorPrime/binance-trade-bot/tests"
	"github.com/adshao/go-binance/v2/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnector(t *testing.T, handler http.HandlerFunc) *Connector {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger, statsd := tests.GetLoggerStatsd(t)
	c := NewConnector(config.Binance{APIKey: "key", APISecretKey: "secret"}, logger, statsd)
	c.Client.BaseURL = server.URL
	return c
}

func TestStepPrecision(t *testing.T) {
	cases := map[string]int32{
		"0.00100000": 3,
		"0.1":        1,
		"1.00000000": 0,
		"10":         0,
		"0.00000001": 8,
	}
	for step, want := range cases {
		got, err := StepPrecision(step)
		require.NoError(t, err, step)
		assert.Equal(t, want, got, step)
	}
	_, err := StepPrecision("0")
	assert.Error(t, err)
	_, err = StepPrecision("abc")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))
	assert.ErrorIs(t, Classify(&common.APIError{Code: -2013, Message: "Order does not exist."}), interfaces.ErrTransient)
	assert.ErrorIs(t, Classify(&common.APIError{Code: -1003, Message: "Too many requests."}), interfaces.ErrTransient)
	assert.ErrorIs(t, Classify(&common.APIError{Code: -2010, Message: "Account has insufficient balance."}), interfaces.ErrRejected)
	assert.ErrorIs(t, Classify(errors.New("connection reset by peer")), interfaces.ErrTransient)

	err := Classify(fmt.Errorf("do: %w", context.Canceled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, interfaces.ErrTransient)
}

func TestGetAllPrices(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		_, _ = w.Write([]byte(`[{"symbol":"ADAUSDT","price":"1.25000000"},{"symbol":"XLMUSDT","price":"0.30000000"},{"symbol":"BAD","price":"x"}]`))
	})

	prices, err := c.GetAllPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"ADAUSDT": 1.25, "XLMUSDT": 0.3}, prices)
}

func TestGetBalance(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/account", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-MBX-APIKEY"))
		_, _ = w.Write([]byte(`{"balances":[{"asset":"ADA","free":"10.50000000","locked":"1.00000000"}]}`))
	})

	balance, err := c.GetBalance(context.Background(), "ADA")
	require.NoError(t, err)
	assert.Equal(t, 10.5, balance)

	balance, err = c.GetBalance(context.Background(), "XLM")
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
}

func TestGetStepPrecisionIsCached(t *testing.T) {
	var calls atomic.Int32
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/v3/exchangeInfo", r.URL.Path)
		assert.Equal(t, "ADAUSDT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"symbols":[{"symbol":"ADAUSDT","filters":[
			{"filterType":"PRICE_FILTER","minPrice":"0.0001","maxPrice":"1000","tickSize":"0.0001"},
			{"filterType":"LOT_SIZE","minQty":"0.1","maxQty":"90000","stepSize":"0.10000000"}]}]}`))
	})

	for i := 0; i < 2; i++ {
		precision, err := c.GetStepPrecision(context.Background(), "ADAUSDT")
		require.NoError(t, err)
		assert.Equal(t, int32(1), precision)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestPlaceOrdersAndStatus(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/order", r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			assert.NoError(t, r.ParseForm())
			assert.NotEmpty(t, r.Form.Get("newClientOrderId"))
			switch r.Form.Get("side") {
			case "BUY":
				assert.Equal(t, "LIMIT", r.Form.Get("type"))
				assert.Equal(t, "GTC", r.Form.Get("timeInForce"))
				assert.Equal(t, "333.3", r.Form.Get("quantity"))
				assert.Equal(t, "0.3", r.Form.Get("price"))
			case "SELL":
				assert.Equal(t, "MARKET", r.Form.Get("type"))
				assert.Equal(t, "10.123", r.Form.Get("quantity"))
			}
			_, _ = w.Write([]byte(`{"symbol":"XLMUSDT","orderId":42,"status":"NEW"}`))
		case http.MethodGet:
			if r.URL.Query().Get("orderId") == "7" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":-2013,"msg":"Order does not exist."}`))
				return
			}
			_, _ = w.Write([]byte(`{"symbol":"XLMUSDT","orderId":42,"status":"FILLED"}`))
		}
	})

	id, err := c.PlaceLimitBuy(context.Background(), "XLMUSDT", 333.3, 0.3)
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	id, err = c.PlaceMarketSell(context.Background(), "ADAUSDT", 10.123)
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	status, err := c.GetOrderStatus(context.Background(), "XLMUSDT", "42")
	require.NoError(t, err)
	assert.Equal(t, "FILLED", status)

	_, err = c.GetOrderStatus(context.Background(), "XLMUSDT", "7")
	assert.ErrorIs(t, err, interfaces.ErrTransient)

	_, err = c.GetOrderStatus(context.Background(), "XLMUSDT", "not-a-number")
	assert.ErrorIs(t, err, interfaces.ErrRejected)
}

func TestRejectedOrder(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-2010,"msg":"Account has insufficient balance for requested action."}`))
	})

	_, err := c.PlaceMarketSell(context.Background(), "ADAUSDT", 1)
	assert.ErrorIs(t, err, interfaces.ErrRejected)
	var apiErr *common.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int64(-2010), apiErr.Code)
}

func TestCancelOrder(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v3/order", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		params := r.URL.RawQuery + "&" + string(body)
		if strings.Contains(params, "orderId=7") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-2011,"msg":"Unknown order sent."}`))
			return
		}
		assert.Contains(t, params, "orderId=42")
		assert.Contains(t, params, "symbol=XLMUSDT")
		_, _ = w.Write([]byte(`{"symbol":"XLMUSDT","orderId":42,"status":"CANCELED"}`))
	})

	require.NoError(t, c.CancelOrder(context.Background(), "XLMUSDT", "42"))

	err := c.CancelOrder(context.Background(), "XLMUSDT", "7")
	assert.ErrorIs(t, err, interfaces.ErrRejected)

	err = c.CancelOrder(context.Background(), "XLMUSDT", "not-a-number")
	assert.ErrorIs(t, err, interfaces.ErrRejected)
}
