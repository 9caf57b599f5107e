package pkg

import (
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

// LogErrors logs every error combined into err on its own line
func LogErrors(err error) {
	for _, e := range multierr.Errors(err) {
		log.Error().Msg(e.Error())
	}
}
