package app

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{name: "引数なしはserve", args: []string{}, want: CommandServe},
		{name: "serve", args: []string{"serve"}, want: CommandServe},
		{name: "migrate", args: []string{"migrate"}, want: CommandMigrate},
		{name: "healthcheck", args: []string{"healthcheck"}, want: CommandHealthcheck},
		{name: "未知のコマンドはserve", args: []string{"subscribe"}, want: CommandServe},
		{name: "migrateの操作引数", args: []string{"migrate", "status"}, want: CommandMigrate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CommandServe, "serve"},
		{CommandMigrate, "migrate"},
		{CommandHealthcheck, "healthcheck"},
	}

	for _, tt := range tests {
		if got := string(tt.cmd); got != tt.want {
			t.Errorf("Command(%q) string = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestParseMigrateAction(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    MigrateAction
		wantErr bool
	}{
		{name: "省略時はup", args: []string{"migrate"}, want: MigrateUp},
		{name: "up", args: []string{"migrate", "up"}, want: MigrateUp},
		{name: "down", args: []string{"migrate", "down"}, want: MigrateDown},
		{name: "status", args: []string{"migrate", "status"}, want: MigrateStatus},
		{name: "未知の操作はエラー", args: []string{"migrate", "drop"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMigrateAction(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMigrateAction(%v) expected error, got %q", tt.args, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMigrateAction(%v) error = %v", tt.args, err)
			}
			if got != tt.want {
				t.Errorf("ParseMigrateAction(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
