package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/urfave/cli/v2"
	"github.com/usnistgov/tlvcodec/core/yamlflag"
	"github.com/usnistgov/tlvcodec/tlv/tlvlayer"
	"go.uber.org/zap"
	"go4.org/must"
)

const layerTypeNum = 4096

func init() {
	var filename string
	var port int
	fileFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "pcap `file`",
			Destination: &filename,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "port",
			Usage:       "UDP `port` of message stream",
			Value:       8805,
			Destination: &port,
		},
	}

	var values []json.RawMessage
	var frameCfg tlvlayer.FrameConfig
	defineCommand(&cli.Command{
		Name:  "pcap",
		Usage: "Convert between messages and packet captures",
		Subcommands: []*cli.Command{
			{
				Name:  "write",
				Usage: "Write encoded messages into a pcap file as UDP datagrams",
				Flags: append([]cli.Flag{
					&cli.GenericFlag{
						Name:     "values",
						Usage:    "list of message value `documents` (YAML or JSON, @file to read from file)",
						Value:    yamlflag.New(&values),
						Required: true,
					},
					&cli.GenericFlag{
						Name:  "frame",
						Usage: "Ethernet and IP addresses `document` (YAML or JSON, @file to read from file)",
						Value: yamlflag.New(&frameCfg),
					},
				}, fileFlags...),
				Action: func(c *cli.Context) error {
					f, e := os.Create(filename)
					if e != nil {
						return e
					}
					defer must.Close(f)

					w := pcapgo.NewWriter(f)
					if e := w.WriteFileHeader(65536, layers.LinkTypeEthernet); e != nil {
						return e
					}

					cfg := frameCfg
					if cfg.SrcPort == 0 {
						cfg.SrcPort = uint16(port)
					}
					if cfg.DstPort == 0 {
						cfg.DstPort = uint16(port)
					}
					cfg.ApplyDefaults()
					if e := cfg.Validate(); e != nil {
						return cli.Exit(e, 2)
					}
					t0 := time.Now()
					for i, doc := range values {
						wire, e := message.Encode(doc)
						if e != nil {
							return e
						}
						frame, e := tlvlayer.Frame(cfg, gopacket.Payload(wire))
						if e != nil {
							return e
						}
						ci := gopacket.CaptureInfo{
							Timestamp:     t0.Add(time.Duration(i) * time.Millisecond),
							CaptureLength: len(frame),
							Length:        len(frame),
						}
						if e := w.WritePacket(ci, frame); e != nil {
							return e
						}
					}
					logger.Info("pcap written", zap.String("file", filename), zap.Int("count", len(values)))
					return nil
				},
			},
			{
				Name:  "read",
				Usage: "Decode messages from UDP datagrams in a pcap file",
				Flags: fileFlags,
				Action: func(c *cli.Context) error {
					t := tlvlayer.Register(layerTypeNum, message.Name(), message.New, unmarshalOptions())
					t.BindUDPPort(layers.UDPPort(port))

					f, e := os.Open(filename)
					if e != nil {
						return e
					}
					defer must.Close(f)

					r, e := pcapgo.NewReader(f)
					if e != nil {
						return e
					}

					src := gopacket.NewPacketSource(r, r.LinkType())
					nDecoded, nErrors := 0, 0
					for pkt := range src.Packets() {
						if l := pkt.Layer(t.LayerType); l != nil {
							nDecoded++
							if e := printJSON(l.(*tlvlayer.Record).Value); e != nil {
								return e
							}
						} else if el := pkt.ErrorLayer(); el != nil {
							nErrors++
							logger.Warn("packet not decoded",
								zap.Time("timestamp", pkt.Metadata().Timestamp),
								zap.Error(el.Error()),
							)
						}
					}
					logger.Info("pcap read", zap.String("file", filename), zap.Int("decoded", nDecoded), zap.Int("errors", nErrors))
					return nil
				},
			},
		},
	})
}
