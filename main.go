package main

import (
	"os"

	helpers "github.com/Lineblocs/go-helpers"
	"github.com/sirupsen/logrus"
	cmd "teknologiumum.com/pesto/cmd"
	"teknologiumum.com/pesto/utils"
)

func main() {
	var err error

	logDestination := utils.Config("LOG_DESTINATIONS")
	helpers.InitLogrus(logDestination)

	args := os.Args[1:]
	if len(args) == 0 {
		helpers.Log(logrus.InfoLevel, "Please provide command")
		return
	}
	command := args[0]
	switch command {
	case "serve":
		helpers.Log(logrus.InfoLevel, "starting access gateway")
		err = cmd.Serve()
		if err != nil {
			helpers.Log(logrus.ErrorLevel, err.Error())
			os.Exit(1)
		}
	case "pending_digest":
		helpers.Log(logrus.InfoLevel, "sending pending registrations digest")
		err = cmd.SendPendingDigest()
		if err != nil {
			helpers.Log(logrus.ErrorLevel, err.Error())
		}
	case "init_audit":
		helpers.Log(logrus.InfoLevel, "creating audit table")
		err = cmd.InitAudit()
		if err != nil {
			helpers.Log(logrus.ErrorLevel, err.Error())
		}
	case "remove_audit_events":
		helpers.Log(logrus.InfoLevel, "removing old token events")
		err = cmd.RemoveAuditEvents()
		if err != nil {
			helpers.Log(logrus.ErrorLevel, err.Error())
		}
	default:
		helpers.Log(logrus.InfoLevel, "unknown command "+command)
	}
}
