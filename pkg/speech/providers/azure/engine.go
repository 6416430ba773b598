package azure

import (
	"context"
	"errors"
	"fmt"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	speechpkg "github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/sirupsen/logrus"
)

const Name = "azure"

// Engine runs continuous recognition against Azure Speech.
type Engine struct {
	creds config.CredentialsConfig
	// endpointId selects a custom speech model when set
	endpointId string
	log        *logrus.Entry
}

// NewEngine validates the credentials and returns the engine.
func NewEngine(creds config.CredentialsConfig, model string, log *logrus.Entry) (*Engine, error) {
	if creds.APIKey == "" || creds.Region == "" {
		return nil, errors.New("azure provider requires api_key (subscription key) and region")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Engine{
		creds:      creds,
		endpointId: model,
		log:        log.WithField("engine", Name),
	}, nil
}

func (e *Engine) Name() string {
	return Name
}

// Transcribe opens a push stream recognition for the session locale.
// Audio must be 16kHz 16bit mono PCM.
func (e *Engine) Transcribe(ctx context.Context, session speechpkg.Session) (speechpkg.TranscriptionStream, error) {
	log := e.log.WithFields(logrus.Fields{
		"method":    "Transcribe",
		"sessionId": session.ID.String(),
		"locale":    session.Locale.String(),
	})

	// every recognition gets its own config, the language is set on it
	cnf, err := speech.NewSpeechConfigFromSubscription(e.creds.APIKey, e.creds.Region)
	if err != nil {
		return nil, err
	}
	if err = cnf.SetSpeechRecognitionLanguage(session.Locale.String()); err != nil {
		cnf.Close()
		return nil, err
	}
	if e.endpointId != "" {
		if err = cnf.SetEndpointID(e.endpointId); err != nil {
			cnf.Close()
			return nil, err
		}
	}

	audioFormat, err := audio.GetWaveFormatPCM(config.AudioSampleRate, config.AudioBitsPerSample, config.AudioChannels)
	if err != nil {
		cnf.Close()
		return nil, fmt.Errorf("could not create audio format: %w", err)
	}
	defer audioFormat.Close()

	pushStream, err := audio.CreatePushAudioInputStreamFromFormat(audioFormat)
	if err != nil {
		cnf.Close()
		return nil, fmt.Errorf("could not create push audio stream: %w", err)
	}

	audioConfig, err := audio.NewAudioConfigFromStreamInput(pushStream)
	if err != nil {
		pushStream.Close()
		cnf.Close()
		return nil, err
	}

	recognizer, err := speech.NewSpeechRecognizerFromConfig(cnf, audioConfig)
	if err != nil {
		audioConfig.Close()
		pushStream.Close()
		cnf.Close()
		return nil, err
	}

	s := newStream(pushStream, recognizer, log)
	s.release = func() {
		recognizer.Close()
		audioConfig.Close()
		pushStream.Close()
		cnf.Close()
	}

	recognizer.SessionStarted(func(ev speech.SessionEventArgs) {
		defer ev.Close()
		log.Infoln("azure recognition session started")
	})
	recognizer.SessionStopped(func(ev speech.SessionEventArgs) {
		defer ev.Close()
		log.Infoln("azure recognition session stopped")
		s.sessionStopped()
	})
	recognizer.Recognizing(func(ev speech.SpeechRecognitionEventArgs) {
		defer ev.Close()
		s.emit(ev.Result.Text, true)
	})
	recognizer.Recognized(func(ev speech.SpeechRecognitionEventArgs) {
		defer ev.Close()
		s.emit(ev.Result.Text, false)
	})
	recognizer.Canceled(func(ev speech.SpeechRecognitionCanceledEventArgs) {
		defer ev.Close()
		s.canceled(ev.Reason, ev.ErrorDetails)
	})

	if err = <-recognizer.StartContinuousRecognitionAsync(); err != nil {
		s.release()
		return nil, fmt.Errorf("could not start azure recognition: %w", err)
	}

	go func() {
		select {
		case <-ctx.Done():
			s.abort(ctx.Err())
		case <-s.finished:
		}
	}()

	return s, nil
}

// SupportedLocales returns the locales of Azure real-time speech to text.
func (e *Engine) SupportedLocales(_ context.Context) (speechpkg.LocaleSet, error) {
	return speechpkg.NewLocaleSet(supportedLocales...), nil
}
