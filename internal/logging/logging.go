// Package logging builds the zap logger from the log section of the configuration.
//
// Package logging 根据配置中的log部分构建zap日志记录器。
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Humphrey-He/hshop/configs"
)

// New builds a logger from cfg. The returned AtomicLevel changes the level of
// the running logger, which is how a reloaded log.level takes effect.
//
// New 根据cfg构建日志记录器。返回的AtomicLevel可以修改运行中日志记录器的级别，
// 重新加载的log.level即通过它生效。
func New(cfg configs.LogConfig) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("log level: %w", err)
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapCfg.Encoding = encoding(cfg.Format)
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	switch cfg.Output {
	case "file":
		zapCfg.OutputPaths = []string{cfg.FilePath}
	case "stderr":
		zapCfg.OutputPaths = []string{"stderr"}
	default:
		zapCfg.OutputPaths = []string{"stdout"}
	}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named("hshop"), zapCfg.Level, nil
}

// SetLevel applies a level name to lvl, ignoring names zap does not know.
//
// SetLevel 将级别名称应用到lvl，忽略zap无法识别的名称。
func SetLevel(lvl zap.AtomicLevel, name string) bool {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return false
	}
	if lvl.Level() == level {
		return false
	}
	lvl.SetLevel(level)
	return true
}

func encoding(format string) string {
	if format == "console" {
		return "console"
	}
	return "json"
}
