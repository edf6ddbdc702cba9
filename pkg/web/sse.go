package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-go-golems/tachat/pkg/chat"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type deltaPayload struct {
	Text string `json:"text"`
}

type donePayload struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// sseDisplay writes the progress of a turn as server-sent events: delta
// events while streaming, then exactly one done or error event.
type sseDisplay struct {
	c         echo.Context
	flusher   http.Flusher
	renderer  *MarkdownRenderer
	sentError bool
}

var _ chat.Display = &sseDisplay{}

func newSSEDisplay(c echo.Context, renderer *MarkdownRenderer) (*sseDisplay, error) {
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported by response writer")
	}

	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseDisplay{
		c:        c,
		flusher:  flusher,
		renderer: renderer,
	}, nil
}

func (d *sseDisplay) Partial(text string) {
	d.write("delta", deltaPayload{Text: text})
}

func (d *sseDisplay) Final(text string) {
	d.write("done", donePayload{Text: text, HTML: d.renderer.Render(text)})
}

func (d *sseDisplay) Error(message string) {
	d.sentError = true
	d.write("error", errorPayload{Message: message})
}

func (d *sseDisplay) write(event string, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("could not encode server-sent event")
		return
	}
	if _, err := fmt.Fprintf(d.c.Response(), "event: %s\ndata: %s\n\n", event, b); err != nil {
		log.Debug().Err(err).Str("event", event).Msg("could not write server-sent event")
		return
	}
	d.flusher.Flush()
}
