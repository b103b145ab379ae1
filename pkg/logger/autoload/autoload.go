package autoload

import (
	configx "github.com/meetkeeps15/brandbox-agent/pkg/config"
	logx "github.com/meetkeeps15/brandbox-agent/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
