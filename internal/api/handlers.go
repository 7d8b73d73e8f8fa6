package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/MeteOShape/shapebot/internal/models"
	"github.com/twilio/twilio-go/twiml"
)

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeText(w, http.StatusNotFound, "404 – rota não encontrada. Use /bot, /admin/ping ou /admin/cron")
		return
	}
	writeText(w, http.StatusOK, "OK / (root) – use /bot (GET/POST), /admin/ping ou /admin/cron")
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) adminPingHandler(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "OK /admin/ping")
}

// adminCronHandler triggers one dispatcher tick. External automation calls
// this hourly when no in-process scheduler is running.
func (s *Server) adminCronHandler(w http.ResponseWriter, r *http.Request) {
	sent, err := s.dispatcher.Tick(r.Context())
	if err != nil {
		slog.Error("adminCronHandler: tick failed", "error", err, "sent", sent)
		writeText(w, http.StatusInternalServerError, fmt.Sprintf("cron error – sent=%d", sent))
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("cron ok – sent=%d", sent))
}

// botHandler is the Twilio WhatsApp webhook. POST carries the inbound message
// as form fields; the reply goes back as TwiML.
func (s *Server) botHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		slog.Debug("botHandler: GET health-check")
		writeText(w, http.StatusOK, "OK /bot (GET) – use POST via Twilio")
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.Warn("botHandler: failed to parse form", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	in := models.Inbound{
		Sender: r.FormValue("From"),
		WaID:   r.FormValue("WaId"),
		Body:   strings.TrimSpace(r.FormValue("Body")),
		Media:  mediaURLs(r),
	}
	slog.Info("botHandler: inbound", "from", in.Sender, "wa_id", in.WaID, "body_length", len(in.Body), "media", len(in.Media))

	reply := s.engine.HandleInbound(r.Context(), in)

	preview := strings.ReplaceAll(reply, "\n", " ")
	if len(preview) > 180 {
		preview = preview[:180]
	}
	slog.Info("botHandler: reply", "preview", preview)

	message := &twiml.MessagingMessage{Body: reply}
	xml, err := twiml.Messages([]twiml.Element{message})
	if err != nil {
		slog.Error("botHandler: twiml render failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, xml)
}

// mediaURLs collects MediaUrl0..N from the webhook form, capped at the
// per-profile photo limit.
func mediaURLs(r *http.Request) []string {
	n, err := strconv.Atoi(r.FormValue("NumMedia"))
	if err != nil || n <= 0 {
		return nil
	}
	if n > models.MaxPhotoRefs {
		n = models.MaxPhotoRefs
	}
	var urls []string
	for i := 0; i < n; i++ {
		if u := r.FormValue("MediaUrl" + strconv.Itoa(i)); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
