package bot

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/bot/middleware"
)

// Update is one incoming chat update. Photo bytes travel base64-encoded in
// the JSON body.
type Update struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text,omitempty"`
	Photo     []byte `json:"photo,omitempty"`
	PhotoMIME string `json:"photo_mime,omitempty"`
}

// Reply is the webhook response; the body carries the message to show the
// user.
type Reply struct {
	Message string `json:"message"`
}

// Server exposes the router over HTTP.
type Server struct {
	router *Router
	log    zerolog.Logger
}

// NewServer wires the webhook server.
func NewServer(router *Router, log zerolog.Logger) *Server {
	return &Server{router: router, log: log}
}

// Handler builds the route table with the standard middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s.Webhook(w, r)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(s.log)(
		middleware.Logger(s.log)(
			middleware.RequestID(mux),
		),
	)
}

// Webhook handles one chat update and answers with the reply message.
func (s *Server) Webhook(w http.ResponseWriter, r *http.Request) {
	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if update.ChatID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "chat_id is required")
		return
	}

	ctx := r.Context()

	var message string
	if len(update.Photo) > 0 {
		message = s.router.HandlePhoto(ctx, update.ChatID, update.Photo, update.PhotoMIME)
	} else {
		message = s.router.HandleText(ctx, update.ChatID, update.Text)
	}

	middleware.WriteJSON(w, http.StatusOK, Reply{Message: message})
}
