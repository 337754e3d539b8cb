// Package discovery browses the local network for advertised SSH
// hosts over mDNS/DNS-SD.
//
// Hosts that advertise the standard "_ssh._tcp" service (macOS remote
// login, avahi sshd profiles) show up as Host entries carrying their
// resolved addresses and port. Entries seen on multiple interfaces
// are aggregated by instance name.
package discovery
