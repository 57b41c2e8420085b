package config

import (
	"os"
	"sync"
)

const dockerHostAlias = "host.docker.internal"

var (
	dockerOnce   sync.Once
	dockerResult bool
)

// IsRunningInDocker reports whether the process runs inside a container,
// detected through /.dockerenv. The result is cached.
func IsRunningInDocker() bool {
	dockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		dockerResult = err == nil
	})
	return dockerResult
}

// ResolveHostForDocker maps loopback hosts to the Docker host alias when
// running in a container, so catalog and target databases on the host stay
// reachable. Other hosts are returned unchanged.
func ResolveHostForDocker(host string) string {
	return resolveHost(host, IsRunningInDocker())
}

func resolveHost(host string, inDocker bool) string {
	if !inDocker {
		return host
	}
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return dockerHostAlias
	}
	return host
}
