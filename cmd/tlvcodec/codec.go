package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/usnistgov/tlvcodec/core/yamlflag"
	"github.com/usnistgov/tlvcodec/tlv"
	"go.uber.org/zap"
)

// parseHex accepts hexadecimal octets, ignoring whitespace and ':' separators.
func parseHex(s string) ([]byte, error) {
	s = strings.Map(func(ch rune) rune {
		switch ch {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return ch
	}, s)
	return hex.DecodeString(s)
}

// decodeResult determines whether a decoded value should be printed, and the command result.
// Fields preceding an unknown tag are printed, and the command exits with status 1.
func decodeResult(e error) (printable bool, result error) {
	var unknown *tlv.UnknownTagError
	switch {
	case e == nil:
		return true, nil
	case errors.As(e, &unknown):
		return true, cli.Exit(fmt.Sprintf("decoding stopped at unknown tag 0x%X, offset %d", unknown.Tag, unknown.Offset), 1)
	default:
		return false, e
	}
}

func printJSON(value any) error {
	j, e := json.Marshal(value)
	if e != nil {
		return e
	}
	fmt.Println(string(j))
	return nil
}

func init() {
	var valueDoc json.RawMessage
	var output string
	defineCommand(&cli.Command{
		Name:  "encode",
		Usage: "Encode a message",
		Flags: []cli.Flag{
			&cli.GenericFlag{
				Name:     "value",
				Usage:    "message value `document` (YAML or JSON, @file to read from file)",
				Value:    yamlflag.New(&valueDoc),
				Required: true,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "write binary to `file` instead of printing hexadecimal",
				Destination: &output,
			},
		},
		Action: func(c *cli.Context) error {
			wire, e := message.Encode(valueDoc)
			if e != nil {
				return e
			}
			logger.Debug("encoded", zap.String("message", message.Name()), zap.Int("length", len(wire)))

			if output != "" {
				return os.WriteFile(output, wire, 0o644)
			}
			fmt.Println(strings.ToUpper(hex.EncodeToString(wire)))
			return nil
		},
	})
}

func init() {
	var input string
	defineCommand(&cli.Command{
		Name:      "decode",
		Usage:     "Decode a message",
		ArgsUsage: "[HEX]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "read binary from `file` instead of hexadecimal argument",
				Destination: &input,
			},
		},
		Action: func(c *cli.Context) (e error) {
			var wire []byte
			switch {
			case input != "":
				if wire, e = os.ReadFile(input); e != nil {
					return e
				}
			case c.NArg() > 0:
				if wire, e = parseHex(strings.Join(c.Args().Slice(), "")); e != nil {
					return cli.Exit(e, 2)
				}
			default:
				return cli.Exit("either --input or HEX argument is required", 2)
			}

			value, e := message.Decode(wire, unmarshalOptions())
			printable, result := decodeResult(e)
			if !printable {
				return result
			}
			if e := printJSON(value); e != nil {
				return e
			}
			return result
		},
	})
}
