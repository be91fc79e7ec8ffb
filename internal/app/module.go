package app

import (
	"time"

	"github.com/globalagency/payments/internal/app/api/server"
	"github.com/globalagency/payments/internal/app/service/application"
	"github.com/globalagency/payments/internal/app/service/payment"
	"github.com/globalagency/payments/internal/app/service/statistics"
	"github.com/globalagency/payments/internal/app/service/webhook_log"
	"github.com/globalagency/payments/internal/platform/clickpesa"
	"github.com/globalagency/payments/internal/platform/db"
	"github.com/globalagency/payments/pkg/config"
	"github.com/globalagency/payments/pkg/logger"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	clickpesa.Module,
	application.Module,
	payment.Module,
	webhook_log.Module,
	statistics.Module,
)
