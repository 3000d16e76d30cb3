package main

import (
	"fmt"
	"os"

	"ndjaka/mineral-tax/cmd/batch"
	"ndjaka/mineral-tax/cmd/calculate"
	"ndjaka/mineral-tax/cmd/export"
	"ndjaka/mineral-tax/cmd/machines"
	"ndjaka/mineral-tax/cmd/rate"
	"ndjaka/mineral-tax/cmd/root"
	"ndjaka/mineral-tax/cmd/serve"
	"ndjaka/mineral-tax/cmd/summary"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(rate.Cmd)
	root.Cmd.AddCommand(calculate.Cmd)
	root.Cmd.AddCommand(export.Cmd)
	root.Cmd.AddCommand(summary.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(machines.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
