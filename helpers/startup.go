package helpers

import (
	"context"
	"os"

	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/mynaparrot/plugnmeet-speech/pkg/factory"
	"gopkg.in/yaml.v3"
)

// PrepareServer opens the redis and NATS connections.
func PrepareServer(ctx context.Context, appCnf *config.AppConfig) error {
	if err := factory.NewRedisConnection(ctx, appCnf); err != nil {
		return err
	}
	return factory.NewNatsConnection(appCnf)
}

func ReadYamlConfigFile(cnfFile string) (*config.AppConfig, error) {
	yamlFile, err := os.ReadFile(cnfFile)
	if err != nil {
		return nil, err
	}

	appCnf := new(config.AppConfig)
	if err = yaml.Unmarshal(yamlFile, appCnf); err != nil {
		return nil, err
	}

	// get current working dir
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	appCnf.RootWorkingDir = wd

	return appCnf, nil
}
