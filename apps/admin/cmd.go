package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/dsteam/cohortboard/core/report"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	reportSvc *report.Service
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  report -course COURSE_ID -start YYYY-MM-DD [-end YYYY-MM-DD] - generate and archive an IPP report")
	fmt.Fprintln(cli.out, "  hashpassword - print the digest of a prompted dashboard password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)
	reportCourse := reportCmd.String("course", "", "The numeric course id.")
	reportStart := reportCmd.String("start", "", "Range start date (YYYY-MM-DD).")
	reportEnd := reportCmd.String("end", "", "Range end date (YYYY-MM-DD); defaults to today.")

	switch args[1] {
	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *reportCourse == "" || *reportStart == "" {
			reportCmd.Usage()
			return errHelp
		}
		return cli.generateReport(*reportCourse, *reportStart, *reportEnd)
	case "hashpassword":
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}
