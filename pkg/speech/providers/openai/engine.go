package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech/media"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

const Name = "openai"

// Engine transcribes a whole recording with the OpenAI audio API once the
// audio input is closed. It never produces partial results.
type Engine struct {
	client openai.Client
	model  openai.AudioModel
	log    *logrus.Entry
}

// NewEngine creates the engine. The "endpoint" option points it to any
// OpenAI compatible server.
func NewEngine(conf *config.SpeechConfig, log *logrus.Entry, opts ...option.RequestOption) (*Engine, error) {
	if conf.Credentials.APIKey == "" {
		return nil, errors.New("openai provider requires api_key")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(conf.Credentials.APIKey)}
	if ep := conf.OptionString("endpoint", ""); ep != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(ep))
	}
	reqOpts = append(reqOpts, opts...)

	model := openai.AudioModelWhisper1
	if conf.Model != "" {
		model = openai.AudioModel(conf.Model)
	}

	return &Engine{
		client: openai.NewClient(reqOpts...),
		model:  model,
		log:    log.WithField("engine", Name),
	}, nil
}

func (e *Engine) Name() string {
	return Name
}

// Transcribe returns a stream that buffers the audio in memory.
func (e *Engine) Transcribe(ctx context.Context, session speech.Session) (speech.TranscriptionStream, error) {
	base, conf := session.Locale.Base()
	if conf == language.No {
		return nil, fmt.Errorf("unsupported locale %q", session.Locale)
	}

	return &stream{
		ctx:    ctx,
		engine: e,
		lang:   base.String(),
		log: e.log.WithFields(logrus.Fields{
			"sessionId": session.ID.String(),
			"locale":    session.Locale.String(),
		}),
		buf:     media.NewPCMBuffer(config.AudioSampleRate, config.AudioChannels),
		results: make(chan *speech.Result, 1),
	}, nil
}

// SupportedLocales returns the languages whisper can transcribe.
func (e *Engine) SupportedLocales(_ context.Context) (speech.LocaleSet, error) {
	return speech.NewLocaleSet(supportedLanguages...), nil
}

func (e *Engine) transcribe(ctx context.Context, wav []byte, lang string) (string, error) {
	res, err := e.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     openai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model:    e.model,
		Language: openai.String(lang),
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
