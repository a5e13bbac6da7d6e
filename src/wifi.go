package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

const WIFI_RESCAN_SETTLE = 3 * time.Second

// Network is one visible Wi-Fi network.
type Network struct {
	SSID   string
	Signal int
}

// Networker is the thin OS network tool the Wi-Fi menu talks to.
type Networker interface {
	Scan(ctx context.Context) ([]Network, error)
	Saved(ctx context.Context) ([]string, error)
	Activate(ctx context.Context, ssid string) error
	Connect(ctx context.Context, ssid, password string) error
}

var errNotActivated = errors.New("connection not activated")

// nmcli drives NetworkManager's command line client.
type nmcli struct {
	run    func(ctx context.Context, args ...string) (string, error)
	settle time.Duration
}

func newNmcli() *nmcli {
	return &nmcli{run: runNmcli, settle: WIFI_RESCAN_SETTLE}
}

func runNmcli(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "sudo", append([]string{"nmcli"}, args...)...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("nmcli %s: %w", args[0], err)
	}
	return string(out), nil
}

func (n *nmcli) Scan(ctx context.Context) ([]Network, error) {
	if _, err := n.run(ctx, "device", "wifi", "rescan"); err != nil {
		logger.Debug().Err(err).Msg("Wi-Fi rescan")
	}
	if err := sleepCtx(ctx, n.settle); err != nil {
		return nil, err
	}
	out, err := n.run(ctx, "-t", "-f", "SSID,SIGNAL", "device", "wifi", "list")
	if err != nil {
		return nil, err
	}
	return parseNetworks(out), nil
}

func (n *nmcli) Saved(ctx context.Context) ([]string, error) {
	out, err := n.run(ctx, "-t", "-f", "NAME,TYPE", "connection", "show")
	if err != nil {
		return nil, err
	}
	return parseSavedWifi(out), nil
}

// Activate brings up a saved connection. A saved connection that fails is
// deleted so the next attempt asks for the password again.
func (n *nmcli) Activate(ctx context.Context, ssid string) error {
	out, err := n.run(ctx, "connection", "up", ssid)
	if err == nil && activated(out) {
		return nil
	}
	if _, derr := n.run(ctx, "connection", "delete", ssid); derr != nil {
		logger.Warn().Err(derr).Str("ssid", ssid).Msg("Could not delete stale connection")
	}
	if err != nil {
		return err
	}
	return errNotActivated
}

func (n *nmcli) Connect(ctx context.Context, ssid, password string) error {
	if _, err := n.run(ctx, "device", "wifi", "connect", ssid, "password", password); err != nil {
		return err
	}
	if _, err := n.run(ctx, "connection", "modify", ssid, "connection.permissions", "", "connection.system", "yes"); err != nil {
		logger.Warn().Err(err).Str("ssid", ssid).Msg("Could not make connection system-wide")
	}
	out, err := n.run(ctx, "connection", "up", ssid)
	if err != nil {
		return err
	}
	if !activated(out) {
		return errNotActivated
	}
	return nil
}

func activated(out string) bool {
	return strings.Contains(strings.ToLower(out), "activated")
}

// parseNetworks reads terse "SSID:SIGNAL" lines, strongest first, one entry
// per SSID. Colons inside an SSID are escaped by nmcli.
func parseNetworks(out string) []Network {
	var networks []Network
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		i := strings.LastIndex(line, ":")
		if i <= 0 {
			continue
		}
		ssid := strings.ReplaceAll(line[:i], `\:`, ":")
		signal, err := strconv.Atoi(line[i+1:])
		if err != nil || ssid == "" {
			continue
		}
		networks = append(networks, Network{SSID: ssid, Signal: signal})
	}

	slices.SortStableFunc(networks, func(a, b Network) int { return b.Signal - a.Signal })
	return lo.UniqBy(networks, func(n Network) string { return n.SSID })
}

func parseSavedWifi(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		i := strings.LastIndex(line, ":")
		if i <= 0 {
			continue
		}
		if typ := line[i+1:]; typ == "wifi" || typ == "802-11-wireless" {
			names = append(names, strings.ReplaceAll(line[:i], `\:`, ":"))
		}
	}
	return names
}
