// zzpctl ejecuta migraciones y barridos desde un scheduler externo (cron, Kubernetes CronJob).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "zzpctl: %v\n", err)
		os.Exit(1)
	}
}
