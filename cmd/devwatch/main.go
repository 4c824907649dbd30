// devwatch 监控项目源码并在变更时重启开发服务器
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/shuakami/devwatch"
)

type rootOptions struct {
	configPath string
	logLevel   string
	overrides  devwatch.Overrides
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "devwatch",
		Short:         "Restart a development server when its sources change",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default: devwatch.yaml, devwatch.yml or devwatch.toml in the working directory)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVarP(&opts.overrides.Language, "language", "l", "", "server language/runtime: ts, js or bun")
	flags.StringVarP(&opts.overrides.Env, "env", "e", "", "NODE_ENV passed to the server")
	flags.StringVarP(&opts.overrides.Port, "port", "p", "", "PORT passed to the server")

	root.AddCommand(newWatchCmd(opts), newRunCmd(opts))
	return root
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the server and restart it on source changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, fc, err := opts.load()
			if err != nil {
				return err
			}
			watchCfg, cmdCfg, err := fc.Resolve(opts.overrides)
			if err != nil {
				logger.Error("invalid configuration", "err", err)
				return err
			}

			err = devwatch.Run(cmd.Context(), watchCfg, cmdCfg, devwatch.WithLogger(logger))
			if err != nil {
				logger.Error("devwatch failed", "err", err)
			}
			return err
		},
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the built server (./app/src/server.js) once without watching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, fc, err := opts.load()
			if err != nil {
				return err
			}
			cmdCfg, err := fc.ResolveRun(opts.overrides)
			if err != nil {
				logger.Error("invalid configuration", "err", err)
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			shutdown := devwatch.NewShutdownSource()
			if err := shutdown.Install(cancel); err != nil {
				logger.Error("install shutdown handler", "err", err)
				return err
			}
			defer shutdown.Close()

			sup := devwatch.NewSupervisor(devwatch.WithSupervisorLogger(logger))
			if err := sup.RunOnce(ctx, cmdCfg); err != nil {
				logger.Error("server exited with error", "err", err)
				return err
			}
			logger.Info("server process ended")
			return nil
		},
	}
}

// load 创建 logger 并读取配置文件
func (o *rootOptions) load() (*log.Logger, devwatch.FileConfig, error) {
	logger, err := devwatch.NewLogger(os.Stderr, o.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, devwatch.FileConfig{}, err
	}

	wd, err := os.Getwd()
	if err != nil {
		logger.Error("cannot determine working directory", "err", err)
		return nil, devwatch.FileConfig{}, err
	}

	fc, path, err := devwatch.LoadConfig(wd, o.configPath)
	if err != nil {
		logger.Error("failed to read config file", "err", err)
		return nil, devwatch.FileConfig{}, err
	}
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}
	return logger, fc, nil
}
