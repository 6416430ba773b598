package providers

import (
	"errors"
	"fmt"

	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech/providers/azure"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech/providers/openai"
	"github.com/sirupsen/logrus"
)

var ErrUnknownProvider = errors.New("unknown speech provider")

// NewEngine creates the engine selected by speech.provider.
func NewEngine(conf *config.SpeechConfig, logger *logrus.Entry) (speech.Engine, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	log := logger.WithField("provider", conf.Provider)

	switch conf.Provider {
	case azure.Name:
		return azure.NewEngine(conf.Credentials, conf.Model, log)
	case openai.Name:
		return openai.NewEngine(conf, log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, conf.Provider)
	}
}
