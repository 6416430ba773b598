package factory

import (
	"context"

	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/mynaparrot/plugnmeet-speech/pkg/services/speechservice"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech/providers"
	"github.com/sirupsen/logrus"
)

// Application is the root struct holding all dependencies.
type Application struct {
	AppConfig     *config.AppConfig
	Ctx           context.Context
	SpeechService *speechservice.SpeechService
}

func (a *Application) Boot() error {
	return a.SpeechService.SubscribeToTaskRequests()
}

func (a *Application) Shutdown() {
	a.SpeechService.Shutdown()
}

func provideEngine(app *config.AppConfig, logger *logrus.Logger) (speech.Engine, error) {
	return providers.NewEngine(&app.Speech, logger.WithField("component", "engine"))
}
