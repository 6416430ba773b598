package factory

import (
	"strings"

	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/mynaparrot/plugnmeet-speech/pkg/utils"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

// NewNatsConnection connects to NATS with an nkey seed, or user and password,
// and stores the connection and its JetStream context in appCnf.
func NewNatsConnection(appCnf *config.AppConfig) error {
	info := appCnf.NatsInfo
	var opt nats.Option
	var err error

	if info.Nkey != nil {
		opt, err = utils.NkeyOptionFromSeedText(*info.Nkey)
		if err != nil {
			return err
		}
	} else {
		opt = nats.UserInfo(info.User, info.Password)
	}

	nc, err := nats.Connect(strings.Join(info.NatsUrls, ","), opt, nats.Name("plugnmeet-speech"))
	if err != nil {
		return err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return err
	}

	appCnf.Logger.WithFields(logrus.Fields{
		"version": nc.ConnectedServerVersion(),
		"address": nc.ConnectedAddr(),
	}).Info("successfully connected to NATS server")

	appCnf.NatsConn = nc
	appCnf.JetStream = js
	return nil
}
