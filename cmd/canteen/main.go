package main

import (
	"context"
	"fmt"

	"github.com/edamame-dev/canteen/internal/adapter/auth"
	"github.com/edamame-dev/canteen/internal/adapter/clock"
	"github.com/edamame-dev/canteen/internal/adapter/config"
	"github.com/edamame-dev/canteen/internal/adapter/handler/http"
	"github.com/edamame-dev/canteen/internal/adapter/logger"
	"github.com/edamame-dev/canteen/internal/adapter/storage"
	"github.com/edamame-dev/canteen/internal/adapter/storage/repository"
	"github.com/edamame-dev/canteen/internal/core/service"
	"go.uber.org/zap"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log := logger.NewLogger(conf.App)
	if log == nil {
		fmt.Printf("error creating log")
		return
	}
	defer func() {
		err := log.Sync()
		if err != nil {
			fmt.Printf("log error: %s", err)
		}
	}()

	ctx := context.Background()

	db, err := storage.NewDBStorage(ctx, conf.Database)
	if err != nil {
		log.Error("database error", zap.Error(err))
		return
	}
	err = db.RunMigrations()
	if err != nil {
		log.Error("database migration error", zap.Error(err))
		return
	}

	repo, err := repository.NewRepository(db)
	if err != nil {
		log.Error("repository creating error", zap.Error(err))
		return
	}

	calendar, err := clock.New(conf.App.Timezone)
	if err != nil {
		log.Error("calendar creating error", zap.Error(err))
		return
	}

	tokenService, err := auth.New()
	if err != nil {
		log.Error("token service creating error", zap.Error(err))
		return
	}

	svc, err := service.NewService(repo, tokenService, calendar, log.Named("Service"))
	if err != nil {
		log.Error("service creating error", zap.Error(err))
		return
	}

	accountHandler, err := http.NewAccountHandler(svc, log.Named("Account handler"))
	if err != nil {
		log.Error("account handler creating error", zap.Error(err))
		return
	}
	orderHandler, err := http.NewOrderHandler(svc, log.Named("Order handler"))
	if err != nil {
		log.Error("order handler creating error", zap.Error(err))
		return
	}
	menuHandler, err := http.NewMenuHandler(svc, log.Named("Menu handler"))
	if err != nil {
		log.Error("menu handler creating error", zap.Error(err))
		return
	}
	reportHandler, err := http.NewReportHandler(svc, log.Named("Report handler"))
	if err != nil {
		log.Error("report handler creating error", zap.Error(err))
		return
	}

	r, err := http.NewRouter(conf.HTTP, tokenService, accountHandler, orderHandler, menuHandler, reportHandler)
	if err != nil {
		log.Error("router creating error", zap.Error(err))
		return
	}

	err = r.Serve(conf.HTTP.HostString)
	if err != nil {
		log.Error("router serve error", zap.Error(err))
		return
	}
}
