package main

import (
	"os"

	"github.com/openpar/cts/par"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// occaAspects lists the aspects a device reports, in canonical order.
func occaAspects(d par.Device) []par.Aspect {
	var out []par.Aspect
	for _, a := range par.AllAspects() {
		if d.Has(a) {
			out = append(out, a)
		}
	}
	return out
}
