package handlers

import "net/http"

// Register mounts the REST resources on mux behind auth.
func Register(mux *http.ServeMux, auth func(http.Handler) http.Handler, conversations *ConversationHandler, messages *MessageHandler) {
	mux.Handle("POST /conversas", auth(http.HandlerFunc(conversations.Create)))
	mux.Handle("GET /conversas", auth(http.HandlerFunc(conversations.List)))
	mux.Handle("DELETE /conversas/{id}", auth(http.HandlerFunc(conversations.Clear)))

	mux.Handle("POST /conversas/{id}/mensagens", auth(http.HandlerFunc(messages.Send)))
	mux.Handle("GET /conversas/{id}/mensagens", auth(http.HandlerFunc(messages.List)))
	mux.Handle("DELETE /conversas/{id}/mensagens/{mensagem_id}", auth(http.HandlerFunc(messages.Delete)))
}
