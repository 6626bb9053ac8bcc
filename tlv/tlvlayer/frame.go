package tlvlayer

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// MAC is a unicast MAC-48 address with text encoding.
type MAC struct {
	net.HardwareAddr
}

// ParseMAC parses a unicast MAC-48 address.
func ParseMAC(s string) (m MAC, e error) {
	e = m.UnmarshalText([]byte(s))
	return
}

// Empty returns true if the address is unset.
func (m MAC) Empty() bool {
	return len(m.HardwareAddr) == 0
}

// MarshalText implements encoding.TextMarshaler interface.
func (m MAC) MarshalText() ([]byte, error) {
	return []byte(m.HardwareAddr.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler interface.
func (m *MAC) UnmarshalText(text []byte) (e error) {
	a, e := net.ParseMAC(string(text))
	if e != nil {
		return e
	}
	if len(a) != 6 || a[0]&0x01 != 0 {
		return fmt.Errorf("%s is not a unicast MAC-48 address", a)
	}
	m.HardwareAddr = a
	return nil
}

// FrameConfig contains addresses of a synthesized Ethernet-IP-UDP frame.
type FrameConfig struct {
	SrcMAC  MAC        `json:"srcMAC"`
	DstMAC  MAC        `json:"dstMAC"`
	SrcIP   netip.Addr `json:"srcIP"`
	DstIP   netip.Addr `json:"dstIP"`
	SrcPort uint16     `json:"srcPort"`
	DstPort uint16     `json:"dstPort"`
}

// ApplyDefaults fills unset addresses with locally administered and documentation-range values.
// If only one IP address is set, the other is chosen from the same address family.
func (cfg *FrameConfig) ApplyDefaults() {
	if cfg.SrcMAC.Empty() {
		cfg.SrcMAC.HardwareAddr = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	}
	if cfg.DstMAC.Empty() {
		cfg.DstMAC.HardwareAddr = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
	}

	src, dst := netip.MustParseAddr("192.0.2.1"), netip.MustParseAddr("192.0.2.2")
	if cfg.SrcIP.Is6() || cfg.DstIP.Is6() {
		src, dst = netip.MustParseAddr("2001:db8::1"), netip.MustParseAddr("2001:db8::2")
	}
	if !cfg.SrcIP.IsValid() {
		cfg.SrcIP = src
	}
	if !cfg.DstIP.IsValid() {
		cfg.DstIP = dst
	}
}

// Validate checks that IP addresses belong to the same address family.
func (cfg FrameConfig) Validate() error {
	if cfg.SrcIP.Unmap().Is4() != cfg.DstIP.Unmap().Is4() {
		return errors.New("SrcIP and DstIP must have the same address family")
	}
	return nil
}

// Frame wraps an application layer in Ethernet, IPv4 or IPv6, and UDP headers.
func Frame(cfg FrameConfig, app gopacket.SerializableLayer) ([]byte, error) {
	cfg.ApplyDefaults()
	if e := cfg.Validate(); e != nil {
		return nil, e
	}

	eth := &layers.Ethernet{
		SrcMAC: cfg.SrcMAC.HardwareAddr,
		DstMAC: cfg.DstMAC.HardwareAddr,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(cfg.SrcPort),
		DstPort: layers.UDPPort(cfg.DstPort),
	}

	var ip gopacket.NetworkLayer
	if src, dst := cfg.SrcIP.Unmap(), cfg.DstIP.Unmap(); src.Is4() {
		eth.EthernetType = layers.EthernetTypeIPv4
		ip = &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    src.AsSlice(),
			DstIP:    dst.AsSlice(),
		}
	} else {
		eth.EthernetType = layers.EthernetTypeIPv6
		ip = &layers.IPv6{
			Version:    6,
			HopLimit:   64,
			NextHeader: layers.IPProtocolUDP,
			SrcIP:      src.AsSlice(),
			DstIP:      dst.AsSlice(),
		}
	}
	if e := udp.SetNetworkLayerForChecksum(ip); e != nil {
		return nil, e
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if e := gopacket.SerializeLayers(buf, opts, eth, ip.(gopacket.SerializableLayer), udp, app); e != nil {
		return nil, e
	}
	return buf.Bytes(), nil
}
