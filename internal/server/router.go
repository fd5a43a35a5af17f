package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-telegram/bot/models"

	"github.com/lewisedginton/support_relay/internal/wecom"
	"github.com/lewisedginton/support_relay/pkg/httpmiddleware"
	"github.com/lewisedginton/support_relay/pkg/logger"
)

// maxCallbackBody bounds inbound request bodies. Both transports deliver
// small payloads; anything larger is garbage.
const maxCallbackBody = 1 << 20

// buildRouter assembles the HTTP surface.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	mwConfig := httpmiddleware.DefaultConfig()
	mwConfig.Logger = s.log
	mwConfig.EnableLogging = true
	httpmiddleware.ApplyToRouter(r, mwConfig)
	if s.cfg.Metrics.EnableHTTPMetrics {
		r.Use(s.metrics.HTTPMiddleware)
	}

	r.Post("/telegram/{secret}", s.handleTelegramWebhook)
	r.Get("/wecom/callback", s.handleWeComVerify)
	r.Post("/wecom/callback", s.handleWeComDeliver)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.cfg.Health.Enabled {
		r.Get(s.cfg.Health.LivenessPath, s.health.LivenessHandler())
		r.Get(s.cfg.Health.ReadinessPath, s.health.ReadinessHandler())
	}

	return r
}

// handleTelegramWebhook accepts one update from the bot transport. The
// request is acknowledged immediately; routing runs in the background so
// the transport never sees processing latency.
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "secret") != s.cfg.Telegram.WebhookSecret {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var update models.Update
	if err := json.Unmarshal(body, &update); err != nil {
		s.log.Warn("Malformed webhook update", logger.ErrorField(err))
		http.Error(w, "malformed update", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)

	go s.engine.HandleUpdate(context.Background(), &update) //nolint:contextcheck // Request context dies with the ack
}

// handleWeComVerify answers the platform's one-time GET echo challenge.
func (s *Server) handleWeComVerify(w http.ResponseWriter, r *http.Request) {
	if s.crypto == nil {
		http.Error(w, "callback channel not configured", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	signature := q.Get("msg_signature")
	timestamp := q.Get("timestamp")
	nonce := q.Get("nonce")
	echostr := q.Get("echostr")

	if err := s.crypto.VerifySignature(signature, timestamp, nonce, echostr); err != nil {
		s.log.Warn("WeCom challenge signature rejected", logger.ErrorField(err))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	payload, err := s.crypto.Decrypt(echostr)
	if err != nil {
		s.log.Warn("WeCom challenge decrypt failed", logger.ErrorField(err))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	_, _ = w.Write(payload)
}

// handleWeComDeliver accepts one encrypted message delivery. The platform
// retries aggressively on slow responses, so "success" is written right
// after the signature check and decryption plus routing run detached.
func (s *Server) handleWeComDeliver(w http.ResponseWriter, r *http.Request) {
	if s.crypto == nil {
		http.Error(w, "callback channel not configured", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	signature := q.Get("msg_signature")
	timestamp := q.Get("timestamp")
	nonce := q.Get("nonce")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	env, err := wecom.ParseEnvelope(body)
	if err != nil {
		s.log.Warn("Malformed WeCom callback body", logger.ErrorField(err))
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	if err := s.crypto.VerifySignature(signature, timestamp, nonce, env.Encrypt); err != nil {
		s.log.Warn("WeCom delivery signature rejected", logger.ErrorField(err))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	_, _ = w.Write([]byte("success"))

	go s.processWeComDelivery(context.Background(), env.Encrypt) //nolint:contextcheck // Request context dies with the ack
}

// processWeComDelivery decrypts and routes one delivery after the HTTP ack.
// Failures here are logged only; the request was already answered.
func (s *Server) processWeComDelivery(ctx context.Context, encrypted string) {
	payload, err := s.crypto.Decrypt(encrypted)
	if err != nil {
		s.log.Error("WeCom delivery decrypt failed", logger.ErrorField(err))
		return
	}
	msg, err := wecom.ParseMessage(payload)
	if err != nil {
		s.log.Error("WeCom delivery parse failed", logger.ErrorField(err))
		return
	}
	s.engine.HandleWeComMessage(ctx, msg)
}
