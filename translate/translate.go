// Package translate renders user-visible ls8 messages in the caller's locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

// Fallback is the language used when the host locale cannot be determined.
const Fallback = "en-US"

var printer = NewPrinter()

// NewPrinter returns a message printer matching the host's preferred locales.
func NewPrinter() *message.Printer {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("ls8: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{Fallback}
	}

	return message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

