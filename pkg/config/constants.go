package config

import "time"

const (
	DefaultSpeechProvider   = "azure"
	DefaultLocale           = "en-US"
	DefaultStreamBufferSize = 16
	DefaultShutdownWorkers  = 4

	DefaultTasksSubject   = "speech.tasks"
	DefaultEventsSubject  = "speech.events"
	DefaultResultsSubject = "speech.results"
	DefaultAudioSubject   = "speech.audio"

	// audio format pushed to the engines
	AudioSampleRate    = 16000
	AudioBitsPerSample = 16
	AudioChannels      = 1

	UsageKeyTTL = 24 * time.Hour
)
