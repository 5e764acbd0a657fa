package main

import (
	"envirofetch/cmd/envirofacts-cli/commands"
	"envirofetch/lib/telemetry"
	"envirofetch/lib/util/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "envirofacts-cli")
	telemetry.InstrumentPerfStats(ctx)
	commands.ExecuteContext(ctx)
}
