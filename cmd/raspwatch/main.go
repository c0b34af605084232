package main

import (
	"raspbot-backend/cmd/raspwatch/cmd"
	"raspbot-backend/lib/serviceutil"
)

func main() {
	cmd.Execute(serviceutil.SignalContext())
}
