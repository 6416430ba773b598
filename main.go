package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mynaparrot/plugnmeet-speech/helpers"
	"github.com/mynaparrot/plugnmeet-speech/pkg/config"
	"github.com/mynaparrot/plugnmeet-speech/pkg/factory"
	"github.com/mynaparrot/plugnmeet-speech/pkg/logging"
	"github.com/mynaparrot/plugnmeet-speech/pkg/services/nats"
	"github.com/mynaparrot/plugnmeet-speech/pkg/services/redis"
	"github.com/mynaparrot/plugnmeet-speech/pkg/speech/providers"
	"github.com/mynaparrot/plugnmeet-speech/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/language"
)

func main() {
	cli.VersionPrinter = func(c *cli.Command) {
		fmt.Printf("%s\n", c.Version)
	}

	app := &cli.Command{
		Name:        "plugnmeet-speech",
		Usage:       "Speech to text service for plugNmeet",
		Description: "without option will start server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Configuration file",
				DefaultText: "config.yaml",
				Value:       "config.yaml",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "locales",
				Usage:  "print the locales supported by the configured speech provider",
				Action: printLocales,
			},
			{
				Name:  "usage",
				Usage: "print the recorded speech usage of a locale",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "locale",
						Usage:    "locale to report, e.g. en-US",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "cleanup",
						Usage: "remove the counters after reading them",
					},
				},
				Action: printUsage,
			},
			{
				Name:  "status",
				Usage: "print the latest event of a speech session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "session",
						Usage:    "session id",
						Required: true,
					},
				},
				Action: printStatus,
			},
		},
		Action:  startServer,
		Version: version.Version,
	}
	err := app.Run(context.Background(), os.Args)
	if err != nil {
		logrus.Fatalln(err)
	}
}

func loadConfig(c *cli.Command) (*config.AppConfig, error) {
	appCnf, err := helpers.ReadYamlConfigFile(c.String("config"))
	if err != nil {
		return nil, err
	}
	// set this config for global usage
	if _, err = config.New(appCnf); err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(&appCnf.LogSettings)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	appCnf.Logger = logger
	return appCnf, nil
}

func startServer(ctx context.Context, c *cli.Command) error {
	appCnf, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := appCnf.Logger

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// now prepare our server
	if err = helpers.PrepareServer(ctx, appCnf); err != nil {
		logger.Fatalln(err)
	}
	// defer close connections
	defer helpers.HandleCloseConnections()

	appFactory, err := factory.NewAppFactory(ctx, appCnf)
	if err != nil {
		logger.Fatalln(err)
	}
	if err = appFactory.Boot(); err != nil {
		logger.Fatalln(err)
	}
	logger.WithFields(logrus.Fields{
		"provider": appCnf.Speech.Provider,
		"version":  version.Version,
	}).Infoln("speech service started")

	<-ctx.Done()
	logger.Infoln("exit requested, shutting down")
	appFactory.Shutdown()

	return nil
}

func printLocales(ctx context.Context, c *cli.Command) error {
	appCnf, err := loadConfig(c)
	if err != nil {
		return err
	}

	engine, err := providers.NewEngine(&appCnf.Speech, appCnf.Logger.WithField("component", "engine"))
	if err != nil {
		return err
	}
	locales, err := engine.SupportedLocales(ctx)
	if err != nil {
		return err
	}
	for _, l := range locales.Sorted() {
		fmt.Println(l.String())
	}
	return nil
}

func printUsage(ctx context.Context, c *cli.Command) error {
	locale, err := language.Parse(c.String("locale"))
	if err != nil {
		return fmt.Errorf("invalid locale: %w", err)
	}
	appCnf, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err = factory.NewRedisConnection(ctx, appCnf); err != nil {
		return err
	}
	defer appCnf.RDS.Close()

	rs := redisservice.New(appCnf.RDS, appCnf.Logger)
	active, err := rs.CountActiveSessions(ctx)
	if err != nil {
		return err
	}
	usage, err := rs.GetLocaleUsage(ctx, locale, c.Bool("cleanup"))
	if err != nil {
		return err
	}

	fmt.Printf("active sessions: %d\n", active)
	for k, v := range usage {
		fmt.Printf("%s: %ds\n", k, v)
	}
	return nil
}

func printStatus(_ context.Context, c *cli.Command) error {
	sessionId, err := uuid.Parse(c.String("session"))
	if err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}
	appCnf, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err = factory.NewNatsConnection(appCnf); err != nil {
		return err
	}
	defer appCnf.NatsConn.Close()

	e, err := natsservice.New(appCnf).GetSessionStatus(sessionId)
	if err != nil {
		return err
	}
	if e == nil {
		fmt.Println("no status found")
		return nil
	}
	fmt.Printf("%s %s %s\n", e.Event, e.Locale, time.UnixMilli(e.Time).Format(time.RFC3339))
	if e.Error != "" {
		fmt.Printf("error: %s\n", e.Error)
	}
	return nil
}
