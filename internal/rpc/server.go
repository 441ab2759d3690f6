package rpc

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"egov/pkg/faults"
)

// HandlerFunc executes one command. The payload arrives as raw JSON so each
// handler decodes exactly the shape it expects.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

// Server hosts a service's command table. Tagged faults cross the wire with
// their kind; anything untagged is wrapped INTERNAL here so no raw error
// ever reaches a caller.
type Server struct {
	log      *slog.Logger
	commands map[string]HandlerFunc
}

func NewServer(log *slog.Logger) *Server {
	return &Server{
		log:      log,
		commands: make(map[string]HandlerFunc),
	}
}

// Handle registers a command. Registering the same name twice is a wiring
// bug and panics at startup.
func (s *Server) Handle(command string, fn HandlerFunc) {
	if _, dup := s.commands[command]; dup {
		panic("rpc: duplicate command " + command)
	}
	s.commands[command] = fn
}

// Register mounts the command endpoint on the service's private router.
func (s *Server) Register(r chi.Router) {
	r.Post("/rpc/{command}", s.serve)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")
	fn, ok := s.commands[command]
	if !ok {
		s.writeFault(w, faults.New(faults.KindNotFound, "unknown command "+command))
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeFault(w, faults.New(faults.KindBadRequest, "unreadable payload"))
		return
	}

	result, err := fn(r.Context(), payload)
	if err != nil {
		f := faults.From(err)
		if f.Kind == faults.KindInternal {
			s.log.ErrorContext(r.Context(), "command failed",
				"command", command,
				"error", err,
			)
		}
		s.writeFault(w, f)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.log.ErrorContext(r.Context(), "encode reply failed", "command", command, "error", err)
	}
}

func (s *Server) writeFault(w http.ResponseWriter, f *faults.Fault) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(faults.HTTPStatus(f.Kind))
	_ = json.NewEncoder(w).Encode(f)
}
