// Command tlvcodec encodes and decodes TLV messages described by a schema document.
package main

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/urfave/cli/v2"
	"github.com/usnistgov/tlvcodec/core/logging"
	"github.com/usnistgov/tlvcodec/core/version"
	"github.com/usnistgov/tlvcodec/core/yamlflag"
	"github.com/usnistgov/tlvcodec/tlv"
	"github.com/usnistgov/tlvcodec/tlv/tlvschema"
	"go.uber.org/zap"
)

var (
	logger = logging.New("main")

	schemaDoc    json.RawMessage
	registry     *tlvschema.Registry
	message      *tlvschema.Message
	allowUnknown bool
)

func unmarshalOptions() tlv.UnmarshalOptions {
	return tlv.UnmarshalOptions{AllowUnknown: allowUnknown}
}

var app = &cli.App{
	Version:              version.V.String(),
	Usage:                "Encode and decode TLV messages.",
	EnableBashCompletion: true,
	Flags: []cli.Flag{
		&cli.GenericFlag{
			Name:     "schema",
			Usage:    "schema `document` (YAML or JSON, @file to read from file)",
			Value:    yamlflag.New(&schemaDoc),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "message",
			Aliases:  []string{"m"},
			Usage:    "message `name` in schema document",
			Required: true,
		},
		&cli.BoolFlag{
			Name:        "allow-unknown",
			Usage:       "skip unknown optional elements when decoding",
			Destination: &allowUnknown,
		},
	},
	Before: func(c *cli.Context) (e error) {
		if registry, e = tlvschema.Parse(schemaDoc); e != nil {
			return e
		}
		if message, e = registry.Message(c.String("message")); e != nil {
			return cli.Exit(e, 2)
		}
		logger.Debug("message selected",
			zap.String("message", message.Name()),
			zap.Strings("available", registry.Names()),
		)
		return nil
	},
}

func defineCommand(command *cli.Command) {
	app.Commands = append(app.Commands, command)
}

func main() {
	sort.Sort(cli.CommandsByName(app.Commands))
	e := app.Run(os.Args)
	if e != nil {
		logger.Fatal("app exit", zap.Error(e))
	}
}
