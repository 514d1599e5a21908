package webui

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kayz/promptcraft/internal/ai"
	"github.com/kayz/promptcraft/internal/logger"
	"github.com/kayz/promptcraft/internal/prompt"
	"github.com/kayz/promptcraft/internal/studio"
)

// Server exposes the studio over HTTP: library and template management,
// prompt editing sessions, version snapshots, and a websocket chat tester.
type Server struct {
	store     studio.Store
	client    ai.Client
	startedAt time.Time

	mu       sync.Mutex
	library  *studio.LibraryManager
	sessions map[string]*editorSession
}

// editorSession serializes requests touching one prompt's editor. The editor
// itself is single-session state, so concurrent requests for the same prompt
// id take turns.
type editorSession struct {
	mu sync.Mutex
	ed *studio.Editor
}

func NewServer(store studio.Store, client ai.Client) *Server {
	return &Server{
		store:     store,
		client:    client,
		startedAt: time.Now().UTC(),
		library:   studio.NewLibraryManager(store),
		sessions:  make(map[string]*editorSession),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/status", s.handleStatus)

	mux.HandleFunc("GET /api/libraries", s.handleListLibraries)
	mux.HandleFunc("POST /api/libraries", s.handleCreateLibrary)
	mux.HandleFunc("PUT /api/libraries", s.handleRenameLibrary)
	mux.HandleFunc("DELETE /api/libraries/{name}", s.handleDeleteLibrary)

	mux.HandleFunc("POST /api/templates", s.handleCreateTemplate)
	mux.HandleFunc("PUT /api/templates", s.handleUpdateTemplate)
	mux.HandleFunc("DELETE /api/templates", s.handleDeleteTemplate)

	mux.HandleFunc("POST /api/prompts", s.handleCreatePrompt)
	mux.HandleFunc("GET /api/prompts/{id}", s.handleGetPrompt)
	mux.HandleFunc("DELETE /api/prompts/{id}", s.handleDeletePrompt)
	mux.HandleFunc("PUT /api/prompts/{id}/config", s.handleUpdateConfig)
	mux.HandleFunc("PUT /api/prompts/{id}/text", s.handleUpdateText)
	mux.HandleFunc("POST /api/prompts/{id}/parse", s.handleParse)
	mux.HandleFunc("POST /api/prompts/{id}/use-template", s.handleUseTemplate)
	mux.HandleFunc("POST /api/prompts/{id}/versions", s.handleSaveVersion)
	mux.HandleFunc("POST /api/prompts/{id}/versions/{vid}/restore", s.handleRestoreVersion)
	mux.HandleFunc("DELETE /api/prompts/{id}/versions/{vid}", s.handleDeleteVersion)

	mux.HandleFunc("POST /api/assemble", s.handleAssemble)
	mux.HandleFunc("POST /api/suggest", s.handleSuggest)
	mux.HandleFunc("GET /ws/chat", s.handleChatSocket)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(defaultIndexHTML))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"started_at": s.startedAt.Format(time.RFC3339),
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
	})
}

// editorFor returns the live editing session for a prompt, loading it from
// the store on first use. The session carries the guided/direct mode across
// requests.
func (s *Server) editorFor(r *http.Request, id string) (*editorSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	p, err := s.store.GetPrompt(r.Context(), id)
	if err != nil {
		return nil, err
	}
	sess := &editorSession{ed: studio.NewEditor(s.store, s.client, p)}
	s.sessions[id] = sess
	return sess, nil
}

func (s *Server) dropSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) handleListLibraries(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.library.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	libs := s.library.Libraries()
	if libs == nil {
		libs = []studio.Library{}
	}
	writeJSON(w, http.StatusOK, libs)
}

type libraryRequest struct {
	Name    string `json:"name"`
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

func (s *Server) handleCreateLibrary(w http.ResponseWriter, r *http.Request) {
	var req libraryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.library.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.library.CreateCategory(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.library.Libraries())
}

func (s *Server) handleRenameLibrary(w http.ResponseWriter, r *http.Request) {
	var req libraryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.library.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.library.RenameCategory(r.Context(), req.OldName, req.NewName); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.library.Libraries())
}

func (s *Server) handleDeleteLibrary(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.library.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.library.DeleteCategory(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.library.Libraries())
}

type templateRequest struct {
	Category   string `json:"category"`
	OldUsecase string `json:"old_usecase"`
	Usecase    string `json:"usecase"`
	Prompt     string `json:"prompt"`
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.library.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	err := s.library.CreateTemplate(r.Context(), req.Category, studio.Template{
		Usecase: req.Usecase,
		Text:    req.Prompt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.library.Libraries())
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.library.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	err := s.library.UpdateTemplate(r.Context(), req.Category, req.OldUsecase, studio.Template{
		Usecase: req.Usecase,
		Text:    req.Prompt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.library.Libraries())
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	usecase := r.URL.Query().Get("usecase")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.library.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.library.DeleteTemplate(r.Context(), category, usecase); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.library.Libraries())
}

type createPromptRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreatePrompt(w http.ResponseWriter, r *http.Request) {
	var req createPromptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, &studio.ValidationError{Msg: "prompt name must not be empty"})
		return
	}
	p, err := studio.CreatePrompt(r.Context(), s.store, "", strings.TrimSpace(req.Name))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type promptView struct {
	*studio.Prompt
	Mode studio.Mode `json:"mode"`
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	sess, err := s.editorFor(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, promptView{Prompt: sess.ed.Prompt(), Mode: sess.ed.Mode()})
}

func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeletePrompt(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.dropSession(id)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg prompt.Config
	if !decodeBody(w, r, &cfg) {
		return
	}
	sess, err := s.editorFor(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.ed.UpdateConfig(r.Context(), cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promptView{Prompt: sess.ed.Prompt(), Mode: sess.ed.Mode()})
}

type textRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleUpdateText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.editorFor(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.ed.SwitchToDirect()
	if err := sess.ed.UpdateDirectText(r.Context(), req.Prompt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promptView{Prompt: sess.ed.Prompt(), Mode: sess.ed.Mode()})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	sess, err := s.editorFor(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.ed.ParseCurrent(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promptView{Prompt: sess.ed.Prompt(), Mode: sess.ed.Mode()})
}

type useTemplateRequest struct {
	Category string `json:"category"`
	Usecase  string `json:"usecase"`
}

func (s *Server) handleUseTemplate(w http.ResponseWriter, r *http.Request) {
	var req useTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.editorFor(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.library.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.library.UseTemplate(r.Context(), req.Category, req.Usecase, sess.ed); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promptView{Prompt: sess.ed.Prompt(), Mode: sess.ed.Mode()})
}

type saveVersionRequest struct {
	Prompt string `json:"prompt"`
	Tag    string `json:"tag"`
}

func (s *Server) handleSaveVersion(w http.ResponseWriter, r *http.Request) {
	var req saveVersionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.editorFor(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	text := req.Prompt
	if text == "" {
		text = sess.ed.Prompt().SystemPrompt
	}
	v, err := sess.ed.SaveVersion(r.Context(), text, studio.VersionTag(req.Tag))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleRestoreVersion(w http.ResponseWriter, r *http.Request) {
	sess, err := s.editorFor(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.ed.RestoreVersion(r.Context(), r.PathValue("vid")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promptView{Prompt: sess.ed.Prompt(), Mode: sess.ed.Mode()})
}

func (s *Server) handleDeleteVersion(w http.ResponseWriter, r *http.Request) {
	sess, err := s.editorFor(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.ed.DeleteVersion(r.Context(), r.PathValue("vid")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promptView{Prompt: sess.ed.Prompt(), Mode: sess.ed.Mode()})
}

// handleAssemble previews the generated text for a config without touching
// any stored prompt.
func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	var cfg prompt.Config
	if !decodeBody(w, r, &cfg) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"prompt": prompt.Assemble(cfg.Normalized()),
	})
}

type suggestRequest struct {
	Field   string `json:"field"`
	Current string `json:"current"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Field == "" {
		writeError(w, &studio.ValidationError{Msg: "field is required"})
		return
	}
	suggestion, err := s.client.Suggest(r.Context(), req.Field, req.Current)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"suggestion": suggestion})
}

type socketInbound struct {
	Message string `json:"message"`
	Reset   bool   `json:"reset,omitempty"`
}

type socketOutbound struct {
	Type string `json:"type"` // "fragment" | "done" | "error"
	Text string `json:"text,omitempty"`
}

// handleChatSocket runs a test conversation against a prompt's current text.
// Each inbound message streams back fragment frames followed by a done frame.
// Provider failures arrive as ordinary fragments, so the conversation keeps
// going.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	promptID := r.URL.Query().Get("prompt_id")
	if promptID == "" {
		writeError(w, &studio.ValidationError{Msg: "prompt_id is required"})
		return
	}
	p, err := s.store.GetPrompt(r.Context(), promptID)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := studio.NewChatSession(s.client, p.SystemPrompt)

	for {
		var in socketInbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if in.Reset {
			session.Reset()
			_ = conn.WriteJSON(socketOutbound{Type: "done"})
			continue
		}
		if strings.TrimSpace(in.Message) == "" {
			_ = conn.WriteJSON(socketOutbound{Type: "error", Text: "message is required"})
			continue
		}

		fragments := session.SendTurn(r.Context(), in.Message)
		for fragment := range fragments {
			if err := conn.WriteJSON(socketOutbound{Type: "fragment", Text: fragment}); err != nil {
				return
			}
		}
		if err := conn.WriteJSON(socketOutbound{Type: "done"}); err != nil {
			return
		}
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return false
	}
	return true
}

// writeError maps the studio error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation *studio.ValidationError
		duplicate  *studio.DuplicateNameError
		notFound   *studio.NotFoundError
		invariant  *studio.InvariantError
		external   *ai.ExternalServiceError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &duplicate), errors.As(err, &invariant):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &external):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		logger.Error("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

const defaultIndexHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>PromptCraft Studio</title>
  <style>
    body { font-family: "Segoe UI", sans-serif; margin: 0; background: linear-gradient(145deg,#f7fafc,#e9eef7); color: #1f2937; }
    .wrap { max-width: 900px; margin: 0 auto; padding: 20px; }
    .panel { background: #fff; border-radius: 12px; box-shadow: 0 8px 30px rgba(15,23,42,.08); padding: 16px; margin-bottom: 16px; }
    #preview, #log { min-height: 160px; max-height: 50vh; overflow: auto; white-space: pre-wrap; border: 1px solid #d1d5db; border-radius: 8px; padding: 12px; background: #f9fafb; }
    .row { display: flex; gap: 8px; margin-top: 10px; }
    input, textarea { flex: 1; padding: 10px; border: 1px solid #cbd5e1; border-radius: 8px; font-family: inherit; }
    button { padding: 10px 16px; border: 0; border-radius: 8px; background: #0f766e; color: #fff; cursor: pointer; }
    button:hover { background: #0d9488; }
  </style>
</head>
<body>
  <div class="wrap">
    <div class="panel">
      <h2>PromptCraft Studio</h2>
      <div class="row">
        <input id="persona" placeholder="Persona, e.g. Helpful Assistant" />
        <input id="mission" placeholder="Mission" />
      </div>
      <div class="row">
        <input id="format" placeholder="Response format" />
        <button id="assemble">Preview</button>
      </div>
      <div id="preview"></div>
    </div>
    <div class="panel">
      <h3>Test Chat</h3>
      <div id="log"></div>
      <div class="row">
        <input id="pid" placeholder="Prompt ID" />
        <input id="msg" placeholder="Say something..." />
        <button id="send">Send</button>
      </div>
    </div>
  </div>
  <script>
    const preview = document.getElementById('preview');
    const log = document.getElementById('log');
    const append = (role, text) => { log.textContent += role + ': ' + text + '\n\n'; log.scrollTop = log.scrollHeight; };
    document.getElementById('assemble').addEventListener('click', async () => {
      const body = {
        persona: document.getElementById('persona').value,
        mission: document.getElementById('mission').value,
        format: document.getElementById('format').value,
      };
      const resp = await fetch('/api/assemble', { method:'POST', headers:{'Content-Type':'application/json'}, body: JSON.stringify(body) });
      const data = await resp.json();
      preview.textContent = data.prompt || data.error || '(empty)';
    });
    let ws = null, pending = '';
    function ensureSocket() {
      const pid = document.getElementById('pid').value.trim();
      if (!pid) return null;
      if (ws && ws.url.endsWith(pid)) return ws;
      ws = new WebSocket('ws://' + location.host + '/ws/chat?prompt_id=' + pid);
      ws.onmessage = (e) => {
        const frame = JSON.parse(e.data);
        if (frame.type === 'fragment') { pending += frame.text; log.textContent = log.textContent.replace(/…$/, '') + frame.text + '…'; }
        if (frame.type === 'done') { log.textContent = log.textContent.replace(/…$/, '') + '\n\n'; pending = ''; }
        if (frame.type === 'error') append('studio', frame.text);
        log.scrollTop = log.scrollHeight;
      };
      return ws;
    }
    document.getElementById('send').addEventListener('click', () => {
      const sock = ensureSocket();
      const text = document.getElementById('msg').value.trim();
      if (!sock || !text) return;
      append('You', text);
      log.textContent += 'AI: ';
      document.getElementById('msg').value = '';
      const run = () => sock.send(JSON.stringify({ message: text }));
      sock.readyState === WebSocket.OPEN ? run() : sock.addEventListener('open', run, { once: true });
    });
  </script>
</body>
</html>`