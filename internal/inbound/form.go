// Package inbound feeds tracker submissions into the relay, either as HTTP
// form posts or as MQTT messages.
package inbound

import (
	"context"
	"errors"
	"net/http"

	"github.com/bilal/transition-relay/internal/metrics"
	"github.com/bilal/transition-relay/internal/relay"
	"github.com/rs/zerolog/log"
)

// Handler relays one submission; *relay.Relay satisfies it.
type Handler interface {
	Handle(ctx context.Context, identity, input string) relay.Result
}

// FormHandler accepts the fields a tracking client posts: identity and string.
type FormHandler struct {
	relay    Handler
	strict   bool
	maxBytes int64
}

// NewFormHandler builds the form endpoint. In strict mode skipped input
// answers 422 and relay failures 502; otherwise every accepted post is 200.
func NewFormHandler(h Handler, strict bool, maxBytes int64) *FormHandler {
	return &FormHandler{relay: h, strict: strict, maxBytes: maxBytes}
}

func (f *FormHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if f.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, f.maxBytes)
	}
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if _, ok := r.PostForm["string"]; !ok {
		http.Error(w, "missing string", http.StatusBadRequest)
		return
	}
	identity := r.PostForm.Get("identity")
	input := r.PostForm.Get("string")

	metrics.InboundTotal.WithLabelValues("http").Inc()
	// the relay cycle outlives a client that hangs up; relay.timeout bounds it
	res := f.relay.Handle(context.WithoutCancel(r.Context()), identity, input)
	status := res.Status()

	code := http.StatusOK
	if f.strict {
		switch status {
		case relay.StatusSkipped:
			code = http.StatusUnprocessableEntity
		case relay.StatusTransportError:
			code = http.StatusBadGateway
		case relay.StatusBuildError:
			code = http.StatusInternalServerError
		}
	}
	if code != http.StatusOK {
		log.Warn().Err(res.Err()).Str("identity", identity).Int("code", code).Msg("submission not delivered")
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(string(status) + "\n"))
}

// NewMux routes the form handler at / and /submit.
func NewMux(f *FormHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", f)
	mux.Handle("/submit", f)
	return mux
}
