package app

import "fmt"

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はスキーマのマイグレーション操作を行うことを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は起動中のサーバーの/health_checkを叩く。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

var commands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}

// MigrateAction はmigrateサブコマンドの操作。
type MigrateAction string

const (
	MigrateUp     MigrateAction = "up"
	MigrateDown   MigrateAction = "down"
	MigrateStatus MigrateAction = "status"
)

// ParseMigrateAction は "migrate" に続く引数から操作を決める。省略時はup。
// 未知の操作は誤ってスキーマを変更しないようエラーにする。
func ParseMigrateAction(args []string) (MigrateAction, error) {
	if len(args) < 2 {
		return MigrateUp, nil
	}
	switch action := MigrateAction(args[1]); action {
	case MigrateUp, MigrateDown, MigrateStatus:
		return action, nil
	default:
		return "", fmt.Errorf("unknown migrate action %q (want up, down or status)", args[1])
	}
}
