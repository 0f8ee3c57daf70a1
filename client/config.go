package client

import (
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// ErrInvalidPortRange is returned when the UDP port range is reversed.
var ErrInvalidPortRange = errors.New("invalid port range")

// Config defines the network settings of a session.
type Config struct {
	ICEServers      []string // STUN or TURN urls.
	MinUDPPort      uint16   // Minimum UDP port for WebRTC, zero for any.
	MaxUDPPort      uint16   // Maximum UDP port for WebRTC, zero for any.
	IncludeLoopback bool     // Gather loopback candidates, for peers on one host.
}

// Configuration returns the peer connection configuration.
func (c Config) Configuration() webrtc.Configuration {
	if len(c.ICEServers) == 0 {
		return webrtc.Configuration{}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: c.ICEServers}},
	}
}

// SettingEngine returns the setting engine with the port range applied.
func (c Config) SettingEngine() (webrtc.SettingEngine, error) {
	se := webrtc.SettingEngine{}
	se.SetIncludeLoopbackCandidate(c.IncludeLoopback)

	if c.MinUDPPort == 0 && c.MaxUDPPort == 0 {
		return se, nil
	}
	if c.MinUDPPort > c.MaxUDPPort {
		return se, fmt.Errorf("min %d > max %d: %w", c.MinUDPPort, c.MaxUDPPort, ErrInvalidPortRange)
	}
	if err := se.SetEphemeralUDPPortRange(c.MinUDPPort, c.MaxUDPPort); err != nil {
		return se, fmt.Errorf("failed to set ephemeral UDP port range: %w", err)
	}
	return se, nil
}
