package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/buaazp/fasthttprouter"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
)

// Server answers health checks and exposes the trader's status and metrics.
type Server struct {
	Addr    string
	Status  interfaces.IStatusProvider
	Metrics http.Handler
	Log     interfaces.ILogger
}

func New(addr string, status interfaces.IStatusProvider, metrics http.Handler, log interfaces.ILogger) *Server {
	return &Server{Addr: addr, Status: status, Metrics: metrics, Log: log}
}

// Handler builds the router. /metrics is only mounted when a metrics handler is set.
func (s *Server) Handler() fasthttp.RequestHandler {
	router := fasthttprouter.New()
	router.GET("/healthz", Healthz)
	router.GET("/status", s.statusHandler)
	if s.Metrics != nil {
		router.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(s.Metrics))
	}
	return router.Handler
}

// ListenAndServe blocks until the listener fails.
func (s *Server) ListenAndServe() error {
	s.Log.Info("listening", zap.String("addr", s.Addr))
	if err := fasthttp.ListenAndServe(s.Addr, s.Handler()); err != nil {
		s.Log.Error("error in ListenAndServe", zap.Error(err))
		return err
	}
	return nil
}

// Healthz is a handler to answer to trader health check requests.
func Healthz(ctx *fasthttp.RequestCtx) {
	fmt.Fprint(ctx, "alive!\n")
}

func (s *Server) statusHandler(ctx *fasthttp.RequestCtx) {
	jsonStr, err := json.Marshal(s.Status.Status())
	if err != nil {
		s.Log.Error("", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	_, _ = ctx.Write(jsonStr)
}
