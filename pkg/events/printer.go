package events

import (
	"fmt"
	"io"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
)

// PrinterFunc writes streamed deltas to w as they arrive. Replies that were
// not streamed are printed in full when the final event arrives.
func PrinterFunc(w io.Writer) func(msg *message.Message) error {
	streamed := false
	return EventHandlerFunc(func(e Event) error {
		switch e_ := e.(type) {
		case *EventStart:
			streamed = false
		case *EventPartialCompletion:
			streamed = true
			_, err := fmt.Fprint(w, e_.Delta)
			return err
		case *EventFinal:
			text := ""
			if !streamed {
				text = e_.Text
			}
			if !strings.HasSuffix(e_.Text, "\n") {
				text += "\n"
			}
			_, err := fmt.Fprint(w, text)
			return err
		case *EventError:
			_, err := fmt.Fprintf(w, "\nerror: %s\n", e_.ErrorString)
			return err
		}
		return nil
	})
}
