package logger

import "log/slog"

type Backend string

const (
	BackendStd Backend = "std" // text handler on stdout
	BackendZap Backend = "zap" // slog-zap bridge, JSON with sampling
)

type Config struct {
	// Identity attrs attached to every record.
	Service    string
	Version    string
	InstanceID string

	// Output control.
	Level   slog.Level
	Env     Env
	Backend Backend // default: zap for stage/prod, std for dev
	Debug   bool

	// Zap burst sampling.
	SampleInitial    int
	SampleThereafter int

	AddSource bool
}
