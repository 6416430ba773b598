package helpers

import (
	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
)

// HandleCloseConnections drains NATS and closes redis.
func HandleCloseConnections() {
	appCnf := config.GetConfig()
	if appCnf == nil {
		return
	}

	if appCnf.NatsConn != nil {
		if err := appCnf.NatsConn.Drain(); err != nil && appCnf.Logger != nil {
			appCnf.Logger.WithError(err).Warnln("failed to drain NATS connection")
		}
	}
	if appCnf.RDS != nil {
		_ = appCnf.RDS.Close()
	}
}
