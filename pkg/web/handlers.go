package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-go-golems/tachat/pkg/chat"
	"github.com/go-go-golems/tachat/pkg/conversation"
	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

type settingsView struct {
	Persona string `json:"persona"`
	Model   string `json:"model"`
	Stream  bool   `json:"stream"`
}

type modelView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type messageView struct {
	ID      string    `json:"id"`
	Role    string    `json:"role"`
	Content string    `json:"content"`
	HTML    string    `json:"html"`
	Time    time.Time `json:"time"`
}

type stateView struct {
	SessionID string        `json:"session_id"`
	Settings  settingsView  `json:"settings"`
	Models    []modelView   `json:"models"`
	Messages  []messageView `json:"messages"`
	Busy      bool          `json:"busy"`
}

type settingsRequest struct {
	Persona *string `json:"persona"`
	Model   *string `json:"model"`
	Stream  *bool   `json:"stream"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Reply string `json:"reply"`
	HTML  string `json:"html"`
}

func (s *Server) Index(c echo.Context) error {
	// make sure the page and the API agree on the session
	s.session(c)
	b, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return errors.Wrap(err, "could not read index page")
	}
	return c.HTMLBlob(http.StatusOK, b)
}

// GetState returns settings and visible transcript.
// GET /api/state
func (s *Server) GetState(c echo.Context) error {
	return c.JSON(http.StatusOK, s.state(s.session(c)))
}

// PutSettings updates any of persona, model and stream.
// PUT /api/settings
func (s *Server) PutSettings(c echo.Context) error {
	sess := s.session(c)

	var req settingsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if req.Model != nil {
		m, err := settings.ParseModel(*req.Model)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		if err := sess.SetModel(m); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
	}
	if req.Persona != nil {
		sess.SetPersona(*req.Persona)
	}
	if req.Stream != nil {
		sess.SetStream(*req.Stream)
	}

	return c.JSON(http.StatusOK, s.state(sess))
}

// PostClear drops the history of the session.
// POST /api/clear
func (s *Server) PostClear(c echo.Context) error {
	sess := s.session(c)
	if err := sess.Clear(); err != nil {
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, s.state(sess))
}

// PostMessage runs one turn. Streaming sessions get a text/event-stream
// response, the others a JSON body.
// POST /api/messages
func (s *Server) PostMessage(c echo.Context) error {
	sess := s.session(c)

	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: chat.ErrEmptyInput.Error()})
	}
	if sess.Busy() {
		return c.JSON(http.StatusConflict, errorResponse{Error: chat.ErrTurnInProgress.Error()})
	}

	ctx := c.Request().Context()

	if sess.Settings().Stream {
		d, err := newSSEDisplay(c, s.renderer)
		if err != nil {
			return err
		}
		res := sess.Submit(ctx, req.Text, d)
		if res.Err != nil && !d.sentError {
			// rejected before the model was called
			d.Error(res.Err.Error())
		}
		return nil
	}

	res := sess.Submit(ctx, req.Text, nil)
	switch {
	case errors.Is(res.Err, chat.ErrEmptyInput):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: res.Err.Error()})
	case errors.Is(res.Err, chat.ErrTurnInProgress):
		return c.JSON(http.StatusConflict, errorResponse{Error: res.Err.Error()})
	case res.Err != nil:
		return c.JSON(http.StatusBadGateway, errorResponse{Error: res.Err.Error()})
	}

	return c.JSON(http.StatusOK, messageResponse{
		Reply: res.Reply,
		HTML:  s.renderer.Render(res.Reply),
	})
}

// DeleteSession ends the session and forgets its transcript.
// DELETE /api/session
func (s *Server) DeleteSession(c echo.Context) error {
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		s.registry.Delete(cookie.Value)
	}
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.NoContent(http.StatusNoContent)
}

// session returns the session of the request, creating it (and setting the
// cookie) on first access.
func (s *Server) session(c echo.Context) *chat.Session {
	id := ""
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		id = cookie.Value
	}
	sess, created := s.registry.GetOrCreate(id)
	if created {
		c.SetCookie(&http.Cookie{
			Name:     SessionCookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		log.Info().Str("session_id", sess.ID).Msg("new web session")
	}
	return sess
}

func (s *Server) state(sess *chat.Session) stateView {
	cs := sess.Settings()
	ret := stateView{
		SessionID: sess.ID,
		Settings: settingsView{
			Persona: cs.Persona,
			Model:   string(cs.Model),
			Stream:  cs.Stream,
		},
		Busy: sess.Busy(),
	}
	for _, m := range settings.SupportedModels {
		ret.Models = append(ret.Models, modelView{Name: string(m), Description: m.Description()})
	}
	visible := sess.Visible()
	ret.Messages = make([]messageView, 0, len(visible))
	for _, m := range visible {
		ret.Messages = append(ret.Messages, s.messageView(m))
	}
	return ret
}

func (s *Server) messageView(m conversation.Message) messageView {
	return messageView{
		ID:      m.ID.String(),
		Role:    string(m.Role),
		Content: m.Content,
		HTML:    s.renderer.Render(m.Content),
		Time:    m.Time,
	}
}
