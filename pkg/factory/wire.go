//go:build wireinject
// +build wireinject

package factory

import (
	"context"

	"github.com/google/wire"
	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/mynaparrot/plugnmeet-speech/pkg/services/nats"
	"github.com/mynaparrot/plugnmeet-speech/pkg/services/redis"
	"github.com/mynaparrot/plugnmeet-speech/pkg/services/speechservice"
)

// build the dependency set for services
var serviceSet = wire.NewSet(
	redisservice.New,
	natsservice.New,
	provideEngine,
	speechservice.New,
)

// NewAppFactory is the injector function that wire will implement.
func NewAppFactory(ctx context.Context, appConfig *config.AppConfig) (*Application, error) {
	wire.Build(
		serviceSet,
		wire.FieldsOf(new(*config.AppConfig), "RDS", "Logger"),
		wire.Struct(new(Application), "*"),
	)
	return nil, nil // This return value is ignored.
}
