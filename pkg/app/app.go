package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/zurustar/imglib/pkg/cli"
	"github.com/zurustar/imglib/pkg/logger"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config *cli.Config
	log    *slog.Logger
	stdout io.Writer // コマンドの結果の出力先
	stderr io.Writer // ログの出力先
}

// New Applicationを作成
func New(stdout, stderr io.Writer) *Application {
	return &Application{
		stdout: stdout,
		stderr: stderr,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Debug("Command started", "command", app.config.Command, "args", app.config.Args)

	// 3. コマンドの実行
	var err error
	switch app.config.Command {
	case cli.CommandInfo:
		err = app.runInfo(app.config.Input())
	case cli.CommandConvert:
		err = app.runConvert(app.config.Input(), app.config.Output())
	case cli.CommandVerify:
		err = app.runVerify(app.config.Input())
	default:
		err = fmt.Errorf("unknown command: %s", app.config.Command)
	}
	if err != nil {
		app.log.Error("Command failed", "command", app.config.Command, "error", err)
		return fmt.Errorf("%s: %w", app.config.Command, err)
	}

	app.log.Debug("Command finished", "command", app.config.Command)
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel, app.config.LogFormat, app.stderr); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}
