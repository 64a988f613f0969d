package main

import (
	"context"
	"log/slog"
	"os"

	"credvault/config"
	"credvault/internal/delivery"
	"credvault/internal/delivery/http"
	"credvault/internal/delivery/http/router/handler"
	"credvault/internal/delivery/sweeper"
	"credvault/internal/domain/service"
	"credvault/internal/infra/auth"
	"credvault/internal/infra/clock"
	logs "credvault/internal/infra/log"
	"credvault/internal/infra/mail"
	"credvault/internal/infra/persistence/postgres"
	"credvault/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewAccountRepository,
			postgres.NewResetTokenRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewSaltedHasher,
			auth.NewRandomTokenGenerator,
			clock.NewSystemClock,
			newPasswordPolicy,
			newMailer,
		),
	)
}

// newPasswordPolicy builds the password policy from configuration.
func newPasswordPolicy(cfg *config.Config) service.PasswordPolicy {
	policyCfg := auth.PolicyConfig{}
	if cfg.PasswordPolicy != nil {
		policyCfg.MinLength = cfg.PasswordPolicy.MinLength
	}

	return auth.NewPasswordPolicy(policyCfg)
}

// newMailer builds the SMTP mailer from configuration.
func newMailer(cfg *config.Config) service.Mailer {
	mailCfg := &mail.Config{}
	if cfg.SMTP != nil {
		mailCfg.Host = cfg.SMTP.Host
		mailCfg.Port = cfg.SMTP.Port
		mailCfg.Username = cfg.SMTP.Username
		mailCfg.Password = cfg.SMTP.Password
		mailCfg.From = cfg.SMTP.From
	}

	return mail.NewSMTPMailer(mailCfg)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAccountService,
			impl.NewRecoveryService,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAccountHandler,
			handler.NewRecoveryHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				sweeper.New,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
