package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
)

// demo runs one lifecycle operation and prints its Result.
func (cli *commandLine) demo(tenantID, opName string) error {
	ops := map[demo.Operation]func(context.Context, string) (demo.Result, error){
		demo.OpStatus:  cli.demoCtl.Status,
		demo.OpEnable:  cli.demoCtl.Enable,
		demo.OpDisable: cli.demoCtl.Disable,
		demo.OpLoad:    cli.demoCtl.Load,
		demo.OpReset:   cli.demoCtl.Reset,
		demo.OpClear:   cli.demoCtl.Clear,
	}
	op, ok := ops[demo.Operation(opName)]
	if !ok {
		cli.printUsage()
		return errHelp
	}

	res, err := op(context.Background(), tenantID)
	data, mErr := json.MarshalIndent(res, "", "  ")
	if mErr != nil {
		return mErr
	}
	fmt.Fprintln(cli.out, string(data))
	fmt.Fprintf(cli.out, "%s %s: %s (%s, %v)\n", res.Operation, res.TenantID, res.Status, res.State.Phase(), res.Duration)
	return err
}
