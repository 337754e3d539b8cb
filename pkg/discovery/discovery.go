package discovery

import (
	"context"
	"time"
)

// DNS-SD constants for SSH hosts.
const (
	// ServiceTypeSSH is the registered service type for SSH servers.
	ServiceTypeSSH = "_ssh._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// BrowseTimeout is the default bound on one browse operation.
	BrowseTimeout = 10 * time.Second
)

// Host is one advertised SSH server on the local network.
type Host struct {
	// InstanceName is the advertised instance name, usually the
	// machine's friendly name.
	InstanceName string

	// Hostname is the mDNS host name ("devbox.local.").
	Hostname string

	// Port is the advertised SSH port.
	Port uint16

	// Addresses are the resolved IPv4 and IPv6 addresses, aggregated
	// across interfaces.
	Addresses []string
}

// Browser finds SSH hosts on the local network.
type Browser interface {
	// Browse emits discovered hosts until ctx ends. The channel closes
	// when browsing stops.
	Browse(ctx context.Context) (<-chan *Host, error)

	// FindByInstance browses until a host with the given instance name
	// appears, or ctx ends.
	FindByInstance(ctx context.Context, instance string) (*Host, error)

	// Stop stops all active browsing.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds FindByInstance when the caller's context
	// carries no deadline. Default: BrowseTimeout.
	BrowseTimeout time.Duration

	// Interface restricts browsing to one network interface.
	// Empty means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{BrowseTimeout: BrowseTimeout}
}

// ServiceEntry is raw browse data decoupled from the mDNS library's
// types; Browser implementations convert into it.
type ServiceEntry struct {
	Instance string
	Host     string
	Port     uint16
	Addrs    []string
}

// ToHost converts a service entry to a Host. Entries with no instance
// name are unusable and map to nil.
func (e *ServiceEntry) ToHost() *Host {
	if e == nil || e.Instance == "" {
		return nil
	}
	return &Host{
		InstanceName: e.Instance,
		Hostname:     e.Host,
		Port:         e.Port,
		Addresses:    e.Addrs,
	}
}

// mergeAddresses adds new addresses to the existing list, skipping
// duplicates.
func mergeAddresses(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range extra {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses filters the given addresses out of the list.
func removeAddresses(addresses, gone []string) []string {
	toRemove := make(map[string]bool, len(gone))
	for _, addr := range gone {
		toRemove[addr] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}
