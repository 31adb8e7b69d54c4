// Package transfer implements the rsync-backed job kinds that move media
// between the editing workstation and the render host: ingest (pull raw
// footage), sync-proxies and sync-editables (push converted media), and
// fetch-edl (pull the project file).
package transfer

import "strings"

// LocalHost is the resolved form of a transfer aimed at the render host itself.
const LocalHost = "127.0.0.1"

// LocalRequestMessage is emitted when a transfer resolves to the local host
// and there is nothing to move.
const LocalRequestMessage = "local request, nothing to do"

// ResolveRemote normalizes a submitted remote host. Empty values and
// localhost aliases collapse to LocalHost.
func ResolveRemote(host string) string {
	host = strings.TrimSpace(strings.Trim(strings.TrimSpace(host), `"`))
	if host == "" || strings.EqualFold(host, "localhost") {
		return LocalHost
	}
	return host
}

// IsLocal reports whether a resolved remote is the render host itself.
func IsLocal(host string) bool {
	return ResolveRemote(host) == LocalHost
}

// remoteSpec builds the rsync remote path form host:path.
func remoteSpec(host, path string) string {
	return host + ":" + path
}
