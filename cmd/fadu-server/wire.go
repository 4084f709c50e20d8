//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/yola1107/fadu/internal/biz"
	"github.com/yola1107/fadu/internal/conf"
	"github.com/yola1107/fadu/internal/data"
	"github.com/yola1107/fadu/internal/server"
	"github.com/yola1107/fadu/internal/service"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Room, *conf.Work, log.Logger) (*application, func(), error) {
	panic(wire.Build(server.ProviderSet, data.ProviderSet, biz.ProviderSet, service.ProviderSet, newApp))
}
